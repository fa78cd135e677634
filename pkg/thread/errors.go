package thread

import "errors"

// Every failing operation returns one of these, possibly wrapped with more
// detail. Use errors.Is to branch on the kind.
var (
	ErrCreateFailed = errors.New("thread: create failed")
	ErrNotStarted   = errors.New("thread: not started")
	ErrTerminating  = errors.New("thread: previous thread still terminating")
	ErrJoinFailed   = errors.New("thread: join failed")
	ErrMaskFailed   = errors.New("thread: signal mask update failed")
	ErrSendFailed   = errors.New("thread: signal delivery failed")
	ErrQueryFailed  = errors.New("thread: state query failed")
	ErrUnsupported  = errors.New("thread: operation not supported on this platform")
)
