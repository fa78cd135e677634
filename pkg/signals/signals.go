// Package signals manages process-wide signal dispositions: which handler, if
// any, runs when a signal reaches the process.
//
// Dispositions are global state shared by every thread in the process, so
// they live here rather than on thread.Thread. Each handled signal has exactly
// one handler; installing a new one replaces the previous disposition
// entirely.
//
// Handlers run on a dispatch goroutine, one delivery at a time. Keep them
// short: update some state and return. Signals may arrive again while a
// handler runs; treat state shared with the rest of the program as if only
// atomic access were safe.
package signals

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"syscall"

	"github.com/hitzhangjie/gothread/pkg/sigutil"
	"go.uber.org/atomic"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// deliveries buffered per signal before os/signal starts dropping them
const queueSize = 16

// Handler defines the interface for handling a signal.
type Handler interface {
	HandleSignal(sig syscall.Signal)
}

// HandlerFunc is an adapter to allow the use of ordinary functions as signal handlers.
type HandlerFunc func(sig syscall.Signal)

// HandleSignal calls f(sig).
func (f HandlerFunc) HandleSignal(sig syscall.Signal) {
	f(sig)
}

// Option configures a Dispositions.
type Option func(*Dispositions)

// WithSource replaces os/signal as the source of deliveries.
func WithSource(src Source) Option {
	return func(d *Dispositions) { d.source = src }
}

// WithLogger sets the logger failures and handler panics are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispositions) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispositions tracks the handlers installed through it. The zero value is
// not usable; create one with New or use Default.
//
// Several Dispositions may handle the same signal; each of its handlers runs
// per delivery. Ignore and ResetHandler only withdraw the calling instance's
// handler. The process-wide disposition changes once no instance handles the
// signal any more.
type Dispositions struct {
	mu      sync.Mutex
	source  Source
	logger  *slog.Logger
	entries map[syscall.Signal]*disposition
	ignored map[syscall.Signal]bool
}

type disposition struct {
	sig       syscall.Signal
	ch        chan os.Signal
	stop      chan struct{}
	delivered atomic.Uint64

	mu      sync.Mutex
	handler Handler
}

// New creates an empty Dispositions.
func New(opts ...Option) *Dispositions {
	d := &Dispositions{
		source:  process,
		logger:  slog.Default(),
		entries: make(map[syscall.Signal]*disposition),
		ignored: make(map[syscall.Signal]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Default is the process-wide Dispositions used by the package-level functions.
var Default = New()

// SetHandler makes h the handler of sig, replacing any previous handler or
// ignore disposition. h runs once per delivery of sig to the process.
//
// The installation happens with every signal masked on the calling OS thread,
// and the previous mask is restored afterwards whatever the outcome.
func (d *Dispositions) SetHandler(sig syscall.Signal, h Handler) error {
	if h == nil {
		return d.fail("set", sig, fmt.Errorf("%w: nil handler", ErrHandlerInstallFailed))
	}
	if !sigutil.Catchable(sig) {
		return d.fail("set", sig, fmt.Errorf("%w: can't set signal %d", ErrHandlerInstallFailed, int(sig)))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := withSignalsMasked(func() {
		delete(d.ignored, sig)
		if e, ok := d.entries[sig]; ok {
			e.setHandler(h)
			return
		}

		e := &disposition{
			sig:     sig,
			ch:      make(chan os.Signal, queueSize),
			stop:    make(chan struct{}),
			handler: h,
		}
		d.entries[sig] = e
		d.source.Notify(e.ch, sig)
		go e.dispatch(d.logger)
	})
	if err != nil {
		return d.fail("set", sig, err)
	}

	d.logger.Debug("signal handler installed", "signal", sigutil.Name(sig))
	return nil
}

// Ignore discards future deliveries of sig to d. The signal is ignored by the
// process once no other Dispositions has a handler for it.
func (d *Dispositions) Ignore(sig syscall.Signal) error {
	if !sigutil.Catchable(sig) {
		return d.fail("ignore", sig, fmt.Errorf("%w: can't ignore signal %d", ErrHandlerInstallFailed, int(sig)))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := withSignalsMasked(func() {
		d.removeLocked(sig)
		d.source.Ignore(sig)
		d.ignored[sig] = true
	})
	if err != nil {
		return d.fail("ignore", sig, err)
	}
	return nil
}

// ResetHandler removes d's disposition of sig. The default disposition comes
// back once no other Dispositions has a handler for it; for many signals the
// default is to terminate the process.
func (d *Dispositions) ResetHandler(sig syscall.Signal) error {
	if !sigutil.Catchable(sig) {
		return d.fail("reset", sig, fmt.Errorf("%w: can't reset signal %d", ErrHandlerInstallFailed, int(sig)))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := withSignalsMasked(func() {
		d.removeLocked(sig)
		delete(d.ignored, sig)
		d.source.Reset(sig)
	})
	if err != nil {
		return d.fail("reset", sig, err)
	}
	return nil
}

func (d *Dispositions) removeLocked(sig syscall.Signal) {
	e, ok := d.entries[sig]
	if !ok {
		return
	}
	d.source.Stop(e.ch)
	close(e.stop)
	delete(d.entries, sig)
}

// Installed reports whether a handler is installed for sig.
func (d *Dispositions) Installed(sig syscall.Signal) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.entries[sig]
	return ok
}

// Ignored reports whether sig was ignored through d.
func (d *Dispositions) Ignored(sig syscall.Signal) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ignored[sig]
}

// Signals returns the signals with an installed handler in ascending order.
func (d *Dispositions) Signals() []syscall.Signal {
	d.mu.Lock()
	defer d.mu.Unlock()

	sigs := maps.Keys(d.entries)
	slices.Sort(sigs)
	return sigs
}

// Delivered returns how many deliveries of sig reached a handler installed
// through d. The count survives handler replacement but not ResetHandler.
func (d *Dispositions) Delivered(sig syscall.Signal) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[sig]; ok {
		return e.delivered.Load()
	}
	return 0
}

func (d *Dispositions) fail(op string, sig syscall.Signal, err error) error {
	d.logger.Error("signal disposition failed", "op", op, "signal", sigutil.Name(sig), "err", err)
	return err
}

func (e *disposition) setHandler(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

func (e *disposition) current() Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handler
}

func (e *disposition) dispatch(logger *slog.Logger) {
	for {
		select {
		case <-e.stop:
			return
		case <-e.ch:
			e.deliver(logger)
		}
	}
}

func (e *disposition) deliver(logger *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("signal handler panicked", "signal", sigutil.Name(e.sig), "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	e.delivered.Inc()
	e.current().HandleSignal(e.sig)
}

// SetHandler installs h for sig on Default.
func SetHandler(sig syscall.Signal, h Handler) error { return Default.SetHandler(sig, h) }

// Ignore ignores sig on Default.
func Ignore(sig syscall.Signal) error { return Default.Ignore(sig) }

// ResetHandler restores the default disposition of sig on Default.
func ResetHandler(sig syscall.Signal) error { return Default.ResetHandler(sig) }

// Installed reports whether Default has a handler for sig.
func Installed(sig syscall.Signal) bool { return Default.Installed(sig) }

// Signals lists the signals Default has handlers for.
func Signals() []syscall.Signal { return Default.Signals() }
