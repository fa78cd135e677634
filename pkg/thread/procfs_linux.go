package thread

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/hitzhangjie/gothread/pkg/sigutil"
)

// TaskState is the kernel's view of one OS thread, read from
// /proc/self/task/<tid>/status.
type TaskState struct {
	Tid    int
	Name   string // comm
	State  string // single letter: R, S, D, T, Z ...
	SigBlk uint64 // blocked signals
	SigPnd uint64 // signals pending on this thread only
	ShdPnd uint64 // signals pending on the whole process
}

// Blocked reports whether sig is in the thread's signal mask.
func (s *TaskState) Blocked(sig syscall.Signal) bool {
	return sigutil.MaskHas(s.SigBlk, sig)
}

// Pending reports whether sig is waiting for delivery to this thread.
func (s *TaskState) Pending(sig syscall.Signal) bool {
	return sigutil.MaskHas(s.SigPnd, sig)
}

// State queries the kernel for the state of t's OS thread.
func (t *Thread) State() (*TaskState, error) {
	tid, err := t.running("state")
	if err != nil {
		return nil, err
	}
	st, err := readTaskStatus(tid)
	if err != nil {
		return nil, t.fail("state", 0, fmt.Errorf("%w: %w", ErrQueryFailed, err))
	}
	return st, nil
}

// running returns the tid of t's OS thread while Run has not returned.
func (t *Thread) running(op string) (int, error) {
	done, tid := t.current()
	if done == nil {
		return 0, t.fail(op, 0, fmt.Errorf("%w: %w", ErrQueryFailed, ErrNotStarted))
	}
	if isClosed(done) {
		return 0, t.fail(op, 0, fmt.Errorf("%w: %s has exited", ErrQueryFailed, t))
	}
	return tid, nil
}

func taskStatusPath(tid int) string {
	return fmt.Sprintf("/proc/self/task/%d/status", tid)
}

func taskExists(tid int) bool {
	if tid == 0 {
		return false
	}
	_, err := os.Stat(fmt.Sprintf("/proc/self/task/%d", tid))
	return err == nil
}

// lingering reports whether the kernel still holds tid although the goroutine
// locked to it may be gone.
//
// 主线程是例外：锁定它的goroutine退出后runtime只会把它挂起，不会销毁。
func lingering(tid int) bool {
	if tid == os.Getpid() {
		return false
	}
	return taskExists(tid)
}

// readTaskStatus read /proc/self/task/<tid>/status
func readTaskStatus(tid int) (*TaskState, error) {
	dat, err := os.ReadFile(taskStatusPath(tid))
	if err != nil {
		return nil, fmt.Errorf("could not read task status: %w", err)
	}
	st, err := parseTaskStatus(dat)
	if err != nil {
		return nil, err
	}
	st.Tid = tid
	return st, nil
}

func parseTaskStatus(dat []byte) (*TaskState, error) {
	st := &TaskState{}

	sc := bufio.NewScanner(bytes.NewReader(dat))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)

		var err error
		switch key {
		case "Name":
			st.Name = val
		case "State":
			// "S (sleeping)"
			st.State, _, _ = strings.Cut(val, " ")
		case "SigBlk":
			st.SigBlk, err = strconv.ParseUint(val, 16, 64)
		case "SigPnd":
			st.SigPnd, err = strconv.ParseUint(val, 16, 64)
		case "ShdPnd":
			st.ShdPnd, err = strconv.ParseUint(val, 16, 64)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if st.State == "" {
		return nil, fmt.Errorf("no State line in task status")
	}
	return st, nil
}
