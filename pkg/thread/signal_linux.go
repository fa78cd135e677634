package thread

import (
	"fmt"
	"syscall"

	"github.com/hitzhangjie/gothread/pkg/sigutil"
	"golang.org/x/sys/unix"
)

func gettid() int {
	return unix.Gettid()
}

// BlockSignal adds sig to the signal mask of t's OS thread, leaving the other
// blocked signals untouched. A blocked signal sent with SendSignal stays
// pending on the thread until UnblockSignal.
//
// The mask is per OS thread, so BlockSignal must be called from t's own Run.
// Called from any other goroutine it fails with ErrMaskFailed.
func (t *Thread) BlockSignal(sig syscall.Signal) error {
	return t.mask(unix.SIG_BLOCK, "block", sig)
}

// UnblockSignal removes sig from the signal mask of t's OS thread. Any pending
// instance of sig is delivered before UnblockSignal returns. Like BlockSignal
// it must be called from t's own Run.
func (t *Thread) UnblockSignal(sig syscall.Signal) error {
	return t.mask(unix.SIG_UNBLOCK, "unblock", sig)
}

func (t *Thread) mask(how int, op string, sig syscall.Signal) error {
	if !t.onThread() {
		return t.fail(op, sig, fmt.Errorf("%w: not called from %s", ErrMaskFailed, t))
	}

	set, err := sigutil.SetOf(sig)
	if err != nil {
		return t.fail(op, sig, fmt.Errorf("%w: %w", ErrMaskFailed, err))
	}
	if err := unix.PthreadSigmask(how, set, nil); err != nil {
		return t.fail(op, sig, fmt.Errorf("%w: can't %s signal %s: %w", ErrMaskFailed, op, sigutil.Name(sig), err))
	}
	return nil
}

// onThread reports whether the caller runs on t's live OS thread. The thread is
// locked to Run's goroutine, so a matching tid means the caller is Run itself.
func (t *Thread) onThread() bool {
	done := t.Done()
	if done == nil || isClosed(done) {
		return false
	}
	return unix.Gettid() == t.Tid()
}

// SendSignal delivers sig to t's OS thread. It may be called from any
// goroutine. Sending to a thread that was never started or has exited fails
// with ErrSendFailed.
func (t *Thread) SendSignal(sig syscall.Signal) error {
	done := t.Done()
	if done == nil {
		return t.fail("send", sig, fmt.Errorf("%w: %w", ErrSendFailed, ErrNotStarted))
	}
	// the kernel may already have handed the tid to another thread
	if isClosed(done) {
		return t.fail("send", sig, fmt.Errorf("%w: %s has exited", ErrSendFailed, t))
	}

	if err := unix.Tgkill(unix.Getpid(), t.Tid(), sig); err != nil {
		return t.fail("send", sig, fmt.Errorf("%w: can't send signal %s: %w", ErrSendFailed, sigutil.Name(sig), err))
	}
	return nil
}
