package thread

import (
	"context"
	"fmt"
)

// Executor is a Thread whose Run serves closures submitted with Exec. Every
// closure runs on the executor's own OS thread, which makes thread-scoped
// operations such as BlockSignal available to other goroutines.
type Executor struct {
	*Thread

	calls chan func()
}

// NewExecutor returns an Executor. Start it before calling Exec.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		calls: make(chan func()),
	}
	e.Thread = New(RunnerFunc(e.serve), opts...)
	return e
}

func (e *Executor) serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-e.calls:
			fn()
		}
	}
}

// Exec runs fn on the executor's OS thread and waits for it to return.
// It fails with ErrNotStarted if the executor is not running, or stops
// running before fn completes.
func (e *Executor) Exec(fn func()) error {
	done := e.Done()
	if done == nil || !e.IsStarted() {
		return fmt.Errorf("%w: %s", ErrNotStarted, e.Thread)
	}

	ran := make(chan struct{})
	call := func() {
		defer close(ran)
		fn()
	}

	select {
	case e.calls <- call:
	case <-done:
		return fmt.Errorf("%w: %s exited", ErrNotStarted, e.Thread)
	}

	select {
	case <-ran:
		return nil
	case <-done:
		if isClosed(ran) {
			return nil
		}
		return fmt.Errorf("%w: %s exited", ErrNotStarted, e.Thread)
	}
}
