// Package thread runs a unit of work on a dedicated OS thread and controls
// that thread's lifecycle and signal mask.
//
// A Thread pins a goroutine to its own OS thread with runtime.LockOSThread and
// never unlocks it, so the Go runtime destroys the OS thread once the work
// returns. Anything done to the thread from inside Run, such as blocking a
// signal, dies with it.
//
// Cancellation is cooperative. Stop cancels the context passed to Run; the
// work notices at its own cancellation points (ctx.Done, Sleep). Work that
// never looks at its context keeps running until it returns.
package thread

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"syscall"
	"time"

	"go.uber.org/atomic"
)

var (
	threadSeqNo = atomic.NewUint64(0)
)

// interval between two checks for a kernel task that is still being torn down
const reapPollInterval = 50 * time.Microsecond

// Runner is the work executed on a Thread's OS thread.
type Runner interface {
	Run(ctx context.Context)
}

// RunnerFunc adapts an ordinary function to the Runner interface.
type RunnerFunc func(ctx context.Context)

// Run calls f(ctx).
func (f RunnerFunc) Run(ctx context.Context) {
	f(ctx)
}

// Thread 表示一个独占OS线程的执行单元
type Thread struct {
	id     uint64
	name   string
	runner Runner
	parent context.Context
	logger *slog.Logger

	// mu linearizes Start, Stop and the natural exit of Run.
	mu      sync.Mutex
	started atomic.Bool
	tid     atomic.Int64
	cancel  context.CancelFunc
	done    chan struct{} // closed when the current OS thread exits
}

// New returns a Thread that will execute r once per successful Start.
func New(r Runner, opts ...Option) *Thread {
	t := &Thread{
		id:     threadSeqNo.Add(1),
		runner: r,
		parent: context.Background(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the process-unique sequence number of t.
func (t *Thread) ID() uint64 {
	return t.id
}

// Name returns the label given with WithName.
func (t *Thread) Name() string {
	return t.name
}

// Tid returns the kernel thread id of the most recent OS thread started for t,
// or 0 if t was never started.
func (t *Thread) Tid() int {
	return int(t.tid.Load())
}

func (t *Thread) String() string {
	if t.name == "" {
		return fmt.Sprintf("thread#%d", t.id)
	}
	return fmt.Sprintf("%s#%d", t.name, t.id)
}

// Start creates the OS thread and runs the Runner on it.
//
// Start on a started Thread does nothing and returns nil. Start returns once the
// OS thread exists, without waiting for Run to begin. If a previous thread was
// stopped but has not returned from Run yet, Start fails with ErrTerminating
// so that at most one OS thread is ever associated with t. The same happens
// when Run has returned but the kernel has not released the OS thread yet;
// Wait first to avoid it.
func (t *Thread) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.Load() {
		return nil
	}
	if t.runner == nil {
		return t.fail("start", 0, fmt.Errorf("%w: no runner", ErrCreateFailed))
	}
	if t.done != nil && (!isClosed(t.done) || lingering(t.Tid())) {
		return t.fail("start", 0, fmt.Errorf("%w: %w", ErrCreateFailed, ErrTerminating))
	}

	ctx, cancel := context.WithCancel(t.parent)
	done := make(chan struct{})
	ready := make(chan int, 1)

	go execute(t, ctx, ready, done)

	t.tid.Store(int64(<-ready))
	t.cancel = cancel
	t.done = done
	t.started.Store(true)

	t.logger.Debug("thread started", "thread", t.String(), "tid", t.Tid())
	return nil
}

// execute is the entry point of every OS thread: it pins itself, publishes the
// tid and dispatches to the concrete Runner.
func execute(t *Thread, ctx context.Context, ready chan<- int, done chan struct{}) {
	// 故意不调用UnlockOSThread：goroutine退出时runtime会销毁该线程，
	// 线程上修改过的信号掩码不会泄漏给其他goroutine
	runtime.LockOSThread()
	defer t.exited(done)

	ready <- gettid()
	t.runner.Run(ctx)
}

func (t *Thread) exited(done chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done == done {
		t.started.Store(false)
		t.cancel()
	}
	close(done)
	t.logger.Debug("thread exited", "thread", t.String(), "tid", t.Tid())
}

// Stop requests cancellation of a started Thread and returns without waiting
// for Run to return. The started flag is cleared before cancellation is
// delivered. Follow Stop with Wait to be sure the OS thread is gone.
func (t *Thread) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started.Load() {
		return ErrNotStarted
	}
	t.started.Store(false)
	t.cancel()

	t.logger.Debug("thread cancel requested", "thread", t.String(), "tid", t.Tid())
	return nil
}

// Wait blocks until the most recent OS thread of t has exited, whether Run
// returned by itself or after Stop. Waiting again returns nil immediately.
func (t *Thread) Wait() error {
	return t.WaitContext(context.Background())
}

// WaitContext is Wait bounded by ctx.
func (t *Thread) WaitContext(ctx context.Context) error {
	done, tid := t.current()
	if done == nil {
		return t.fail("join", 0, fmt.Errorf("%w: %w", ErrJoinFailed, ErrNotStarted))
	}

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrJoinFailed, ctx.Err())
	}

	// done在goroutine退出前就关闭了，此时内核线程可能还没销毁
	for lingering(tid) {
		if err := Sleep(ctx, reapPollInterval); err != nil {
			return fmt.Errorf("%w: %w", ErrJoinFailed, err)
		}
	}
	return nil
}

// current returns the done channel and tid of the most recent OS thread.
func (t *Thread) current() (chan struct{}, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done, t.Tid()
}

// Done returns a channel closed when the most recent OS thread exits.
// It returns nil if t was never started.
func (t *Thread) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done == nil {
		return nil
	}
	return t.done
}

// IsStarted reports the lifecycle flag: true between a successful Start and
// either Stop or the return of Run.
func (t *Thread) IsStarted() bool {
	return t.started.Load()
}

// IsAlive reports whether the OS thread still exists. Unlike IsStarted it
// stays true after Stop until Run has returned and the kernel has released
// the thread.
func (t *Thread) IsAlive() bool {
	done, tid := t.current()
	if done == nil {
		return false
	}
	return !isClosed(done) || lingering(tid)
}

func (t *Thread) fail(op string, sig syscall.Signal, err error) error {
	attrs := []any{"op", op, "thread", t.String(), "tid", t.Tid(), "err", err}
	if sig != 0 {
		attrs = append(attrs, "signal", sig)
	}
	t.logger.Error("thread operation failed", attrs...)
	return err
}

// Sleep pauses for d and is a cancellation point: it returns ctx.Err() as soon
// as ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
