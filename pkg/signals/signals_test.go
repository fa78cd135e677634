package signals

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

// fakeSource records registrations and lets tests deliver signals by hand.
type fakeSource struct {
	mu      sync.Mutex
	chans   map[os.Signal][]chan<- os.Signal
	ignored []os.Signal
	reset   []os.Signal
}

func newFakeSource() *fakeSource {
	return &fakeSource{chans: make(map[os.Signal][]chan<- os.Signal)}
}

func (f *fakeSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range sig {
		f.chans[s] = append(f.chans[s], c)
	}
}

func (f *fakeSource) Stop(c chan<- os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s, list := range f.chans {
		kept := list[:0]
		for _, ch := range list {
			if ch != c {
				kept = append(kept, ch)
			}
		}
		f.chans[s] = kept
	}
}

func (f *fakeSource) Ignore(sig ...os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ignored = append(f.ignored, sig...)
}

func (f *fakeSource) Reset(sig ...os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset = append(f.reset, sig...)
}

func (f *fakeSource) deliver(sig os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.chans[sig] {
		ch <- sig
	}
}

func (f *fakeSource) registered(sig os.Signal) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chans[sig])
}

func TestSetHandlerOncePerDelivery(t *testing.T) {
	src := newFakeSource()
	d := New(WithSource(src))

	var calls atomic.Int64
	require.NoError(t, d.SetHandler(unix.SIGUSR1, HandlerFunc(func(sig syscall.Signal) {
		assert.Equal(t, unix.SIGUSR1, sig)
		calls.Inc()
	})))
	defer d.ResetHandler(unix.SIGUSR1)

	for i := 0; i < 3; i++ {
		src.deliver(unix.SIGUSR1)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(3), d.Delivered(unix.SIGUSR1))
	assert.True(t, d.Installed(unix.SIGUSR1))
}

func TestSetHandlerReplaces(t *testing.T) {
	src := newFakeSource()
	d := New(WithSource(src))

	var first, second atomic.Int64
	require.NoError(t, d.SetHandler(unix.SIGUSR2, HandlerFunc(func(syscall.Signal) { first.Inc() })))
	require.NoError(t, d.SetHandler(unix.SIGUSR2, HandlerFunc(func(syscall.Signal) { second.Inc() })))
	defer d.ResetHandler(unix.SIGUSR2)

	// replacing a handler keeps a single registration
	assert.Equal(t, 1, src.registered(unix.SIGUSR2))

	src.deliver(unix.SIGUSR2)
	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestSetHandlerRejects(t *testing.T) {
	d := New(WithSource(newFakeSource()))

	assert.ErrorIs(t, d.SetHandler(unix.SIGUSR1, nil), ErrHandlerInstallFailed)

	noop := HandlerFunc(func(syscall.Signal) {})
	for _, sig := range []syscall.Signal{0, -1, 65, unix.SIGKILL, unix.SIGSTOP} {
		assert.ErrorIs(t, d.SetHandler(sig, noop), ErrHandlerInstallFailed, "signal %d", sig)
	}
	assert.Empty(t, d.Signals())
}

func TestIgnoreClearsHandler(t *testing.T) {
	src := newFakeSource()
	d := New(WithSource(src))

	var calls atomic.Int64
	require.NoError(t, d.SetHandler(unix.SIGHUP, HandlerFunc(func(syscall.Signal) { calls.Inc() })))
	require.NoError(t, d.Ignore(unix.SIGHUP))

	assert.False(t, d.Installed(unix.SIGHUP))
	assert.True(t, d.Ignored(unix.SIGHUP))
	assert.Equal(t, 0, src.registered(unix.SIGHUP))
	assert.Contains(t, src.ignored, os.Signal(unix.SIGHUP))

	// installing again clears the ignore flag
	require.NoError(t, d.SetHandler(unix.SIGHUP, HandlerFunc(func(syscall.Signal) { calls.Inc() })))
	assert.False(t, d.Ignored(unix.SIGHUP))
	src.deliver(unix.SIGHUP)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, d.Ignore(unix.SIGKILL), ErrHandlerInstallFailed)
}

func TestResetHandler(t *testing.T) {
	src := newFakeSource()
	d := New(WithSource(src))

	require.NoError(t, d.SetHandler(unix.SIGUSR1, HandlerFunc(func(syscall.Signal) {})))
	require.NoError(t, d.ResetHandler(unix.SIGUSR1))

	assert.False(t, d.Installed(unix.SIGUSR1))
	assert.Zero(t, d.Delivered(unix.SIGUSR1))
	assert.Equal(t, 0, src.registered(unix.SIGUSR1))
	assert.Contains(t, src.reset, os.Signal(unix.SIGUSR1))

	assert.ErrorIs(t, d.ResetHandler(unix.SIGSTOP), ErrHandlerInstallFailed)
}

func TestSignalsSorted(t *testing.T) {
	d := New(WithSource(newFakeSource()))
	noop := HandlerFunc(func(syscall.Signal) {})

	for _, sig := range []syscall.Signal{unix.SIGTERM, unix.SIGHUP, unix.SIGUSR2} {
		require.NoError(t, d.SetHandler(sig, noop))
	}
	assert.Equal(t, []syscall.Signal{unix.SIGHUP, unix.SIGUSR2, unix.SIGTERM}, d.Signals())
}

func TestHandlerPanicRecovered(t *testing.T) {
	src := newFakeSource()
	d := New(WithSource(src))

	var calls atomic.Int64
	require.NoError(t, d.SetHandler(unix.SIGUSR1, HandlerFunc(func(syscall.Signal) {
		if calls.Inc() == 1 {
			panic("boom")
		}
	})))

	src.deliver(unix.SIGUSR1)
	src.deliver(unix.SIGUSR1)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}
