// Package clock reads the kernel's POSIX clocks, including the per-thread CPU
// clocks that time.Now can't reach.
package clock

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

var ErrClockFailed = errors.New("clock: read failed")

// ID selects a kernel clock.
type ID int32

const (
	Realtime   ID = unix.CLOCK_REALTIME
	Monotonic  ID = unix.CLOCK_MONOTONIC
	ProcessCPU ID = unix.CLOCK_PROCESS_CPUTIME_ID
	// ThreadCPU is the CPU time of the calling OS thread. Lock the goroutine
	// to its thread before reading it.
	ThreadCPU ID = unix.CLOCK_THREAD_CPUTIME_ID
)

// ThreadCPUOf returns the CPU clock of another thread of this process, the
// same id pthread_getcpuclockid hands out.
func ThreadCPUOf(tid int) ID {
	// CPUCLOCK_PERTHREAD_MASK | CPUCLOCK_SCHED
	return ID(^int32(tid)<<3 | 6)
}

func (id ID) String() string {
	switch id {
	case Realtime:
		return "realtime"
	case Monotonic:
		return "monotonic"
	case ProcessCPU:
		return "process-cputime"
	case ThreadCPU:
		return "thread-cputime"
	}
	if id < 0 && id&7 == 6 {
		return fmt.Sprintf("thread-cputime(%d)", ^int32(id>>3))
	}
	return fmt.Sprintf("clock(%d)", int32(id))
}

// Time is a reading of a clock. Add and Set change the value without
// touching the clock; Reset reads it again.
type Time struct {
	id ID
	ts unix.Timespec
}

// Now reads clock id.
func Now(id ID) (Time, error) {
	t := Time{id: id}
	if err := t.Reset(); err != nil {
		return Time{}, err
	}
	return t, nil
}

// Reset sets t to the current value of its clock.
func (t *Time) Reset() error {
	if err := unix.ClockGettime(int32(t.id), &t.ts); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrClockFailed, t.id, err)
	}
	return nil
}

// Add moves t by d, which may be negative.
func (t *Time) Add(d time.Duration) {
	t.ts = unix.NsecToTimespec(t.ts.Nano() + int64(d))
}

// Set replaces the value of t. nsec may exceed a second; it is normalized.
func (t *Time) Set(sec, nsec int64) {
	t.ts = unix.NsecToTimespec(sec*int64(time.Second) + nsec)
}

// Clock returns the clock t was read from.
func (t Time) Clock() ID {
	return t.id
}

// Duration returns the value of t as the time elapsed since the clock's epoch.
func (t Time) Duration() time.Duration {
	return time.Duration(t.ts.Nano())
}

// Sub returns t-u.
func (t Time) Sub(u Time) time.Duration {
	return time.Duration(t.ts.Nano() - u.ts.Nano())
}

func (t Time) Before(u Time) bool { return t.ts.Nano() < u.ts.Nano() }
func (t Time) After(u Time) bool  { return t.ts.Nano() > u.ts.Nano() }
func (t Time) Equal(u Time) bool  { return t.ts.Nano() == u.ts.Nano() }

func (t Time) String() string {
	return fmt.Sprintf("%s@%s", t.id, t.Duration())
}

// Resolution returns the precision of clock id.
func Resolution(id ID) (time.Duration, error) {
	var res unix.Timespec
	if err := unix.ClockGetres(int32(id), &res); err != nil {
		return 0, fmt.Errorf("%w: resolution of %s: %w", ErrClockFailed, id, err)
	}
	return time.Duration(res.Nano()), nil
}
