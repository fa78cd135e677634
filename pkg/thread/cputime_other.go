//go:build !linux

package thread

import (
	"fmt"
	"time"
)

// CPUTime is only implemented on Linux.
func (t *Thread) CPUTime() (time.Duration, error) {
	return 0, t.fail("cputime", 0, fmt.Errorf("%w: %w", ErrQueryFailed, ErrUnsupported))
}
