//go:build !linux

package thread

import (
	"fmt"
	"syscall"
)

func gettid() int {
	return 0
}

// BlockSignal is only implemented on Linux.
func (t *Thread) BlockSignal(sig syscall.Signal) error {
	return t.fail("block", sig, fmt.Errorf("%w: %w", ErrMaskFailed, ErrUnsupported))
}

// UnblockSignal is only implemented on Linux.
func (t *Thread) UnblockSignal(sig syscall.Signal) error {
	return t.fail("unblock", sig, fmt.Errorf("%w: %w", ErrMaskFailed, ErrUnsupported))
}

// SendSignal is only implemented on Linux.
func (t *Thread) SendSignal(sig syscall.Signal) error {
	return t.fail("send", sig, fmt.Errorf("%w: %w", ErrSendFailed, ErrUnsupported))
}
