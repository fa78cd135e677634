package thread

import (
	"fmt"
	"time"

	"github.com/hitzhangjie/gothread/pkg/clock"
)

// CPUTime returns the CPU time consumed so far by t's OS thread. It can be
// called from any goroutine while Run has not returned.
func (t *Thread) CPUTime() (time.Duration, error) {
	tid, err := t.running("cputime")
	if err != nil {
		return 0, err
	}
	now, err := clock.Now(clock.ThreadCPUOf(tid))
	if err != nil {
		return 0, t.fail("cputime", 0, fmt.Errorf("%w: %w", ErrQueryFailed, err))
	}
	return now.Duration(), nil
}
