//go:build !linux

package thread

import (
	"fmt"
	"syscall"
)

// TaskState is only populated on Linux.
type TaskState struct {
	Tid    int
	Name   string
	State  string
	SigBlk uint64
	SigPnd uint64
	ShdPnd uint64
}

// Blocked always reports false outside Linux.
func (s *TaskState) Blocked(sig syscall.Signal) bool { return false }

// Pending always reports false outside Linux.
func (s *TaskState) Pending(sig syscall.Signal) bool { return false }

// State is only implemented on Linux.
func (t *Thread) State() (*TaskState, error) {
	return nil, t.fail("state", 0, fmt.Errorf("%w: %w", ErrQueryFailed, ErrUnsupported))
}

// without /proc only the done channel tells whether the thread is gone
func lingering(tid int) bool {
	return false
}
