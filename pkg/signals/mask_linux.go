package signals

import (
	"fmt"
	"runtime"

	"github.com/hitzhangjie/gothread/pkg/sigutil"
	"golang.org/x/sys/unix"
)

// withSignalsMasked runs fn on one OS thread with every signal blocked, then
// restores that thread's previous mask.
func withSignalsMasked(fn func()) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var old unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, sigutil.FullSet(), &old); err != nil {
		return fmt.Errorf("%w: mask signals: %w", ErrHandlerInstallFailed, err)
	}
	defer unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil)

	fn()
	return nil
}
