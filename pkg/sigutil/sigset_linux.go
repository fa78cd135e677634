package sigutil

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// bits per element of unix.Sigset_t.Val, which differs between 32 and 64 bit
// architectures.
const wordBits = uint(unsafe.Sizeof(unix.Sigset_t{}.Val[0])) * 8

// SetOf returns a signal set containing exactly sigs.
func SetOf(sigs ...syscall.Signal) (*unix.Sigset_t, error) {
	var set unix.Sigset_t
	for _, sig := range sigs {
		if sig <= 0 || sig > MaxSignal {
			return nil, fmt.Errorf("signal number out of range: %d", int(sig))
		}
		n := uint(sig - 1)
		set.Val[n/wordBits] |= 1 << (n % wordBits)
	}
	return &set, nil
}

// FullSet returns a signal set containing every signal.
func FullSet() *unix.Sigset_t {
	var set unix.Sigset_t
	for i := range set.Val {
		set.Val[i] = ^set.Val[i]
	}
	return &set
}

// Has reports whether sig is a member of set.
func Has(set *unix.Sigset_t, sig syscall.Signal) bool {
	if set == nil || sig <= 0 || sig > MaxSignal {
		return false
	}
	n := uint(sig - 1)
	return set.Val[n/wordBits]&(1<<(n%wordBits)) != 0
}

// MaskHas reports whether sig is set in a 64-bit mask as printed by
// /proc/<pid>/task/<tid>/status (SigBlk, SigPnd, ...).
func MaskHas(mask uint64, sig syscall.Signal) bool {
	if sig <= 0 || sig > MaxSignal {
		return false
	}
	return mask&(1<<uint(sig-1)) != 0
}
