// Package sigutil converts between signal names and numbers and builds the
// kernel signal sets used by the thread and signals packages.
package sigutil

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// MaxSignal is the highest signal number the kernel accepts (_NSIG - 1).
const MaxSignal = 64

// Parse converts a signal name or number to its value. Names are matched
// case-insensitively with or without the SIG prefix: "SIGUSR1", "usr1", "10".
func Parse(s string) (syscall.Signal, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, fmt.Errorf("empty signal")
	}

	if num, err := strconv.Atoi(s); err == nil {
		if num <= 0 || num > MaxSignal {
			return 0, fmt.Errorf("signal number out of range: %d", num)
		}
		return syscall.Signal(num), nil
	}

	if !strings.HasPrefix(s, "SIG") {
		s = "SIG" + s
	}
	if sig := unix.SignalNum(s); sig != 0 {
		return sig, nil
	}
	return 0, fmt.Errorf("unknown signal: %s", s)
}

// Name returns the symbolic name of sig ("SIGUSR1"). Signals without a name,
// such as real-time ones, are rendered as "SIG<n>".
func Name(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("SIG%d", int(sig))
}

// Catchable reports whether a handler may be installed for sig.
func Catchable(sig syscall.Signal) bool {
	if sig <= 0 || sig > MaxSignal {
		return false
	}
	return sig != unix.SIGKILL && sig != unix.SIGSTOP
}
