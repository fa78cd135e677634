package clock

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMonotonicNeverGoesBack(t *testing.T) {
	a, err := Now(Monotonic)
	require.NoError(t, err)
	b, err := Now(Monotonic)
	require.NoError(t, err)

	assert.False(t, b.Before(a))
	assert.GreaterOrEqual(t, b.Sub(a), time.Duration(0))
	assert.Equal(t, Monotonic, b.Clock())
}

func TestAddSetCompare(t *testing.T) {
	var a, b Time
	a.Set(1, 500)
	b.Set(0, int64(time.Second)+500)
	assert.True(t, a.Equal(b))

	b.Add(time.Nanosecond)
	assert.True(t, b.After(a))
	assert.True(t, a.Before(b))
	assert.Equal(t, time.Nanosecond, b.Sub(a))

	b.Add(-2 * time.Second)
	assert.True(t, b.Before(a))
	assert.Equal(t, -time.Second+501*time.Nanosecond, b.Duration())
}

func TestResolution(t *testing.T) {
	for _, id := range []ID{Realtime, Monotonic, ProcessCPU, ThreadCPU} {
		res, err := Resolution(id)
		require.NoError(t, err, id.String())
		assert.Greater(t, res, time.Duration(0), id.String())
	}
}

func TestThreadCPUOf(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid := unix.Gettid()
	id := ThreadCPUOf(tid)
	assert.Equal(t, fmt.Sprintf("thread-cputime(%d)", tid), id.String())

	before, err := Now(id)
	require.NoError(t, err)
	spin := time.Now()
	for time.Since(spin) < 20*time.Millisecond {
	}
	after, err := Now(id)
	require.NoError(t, err)
	assert.True(t, after.After(before))

	self, err := Now(ThreadCPU)
	require.NoError(t, err)
	assert.False(t, self.Before(after))
}

func TestUnknownClock(t *testing.T) {
	_, err := Now(ID(1 << 20))
	assert.ErrorIs(t, err, ErrClockFailed)

	_, err = Resolution(ID(1 << 20))
	assert.ErrorIs(t, err, ErrClockFailed)
}
