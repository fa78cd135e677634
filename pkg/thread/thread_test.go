package thread

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// blocker runs until its context is canceled and counts how often Run was
// entered.
type blocker struct {
	runs    atomic.Int64
	entered chan struct{}
	once    sync.Once
}

func newBlocker() *blocker {
	return &blocker{entered: make(chan struct{})}
}

func (b *blocker) Run(ctx context.Context) {
	b.runs.Inc()
	b.once.Do(func() { close(b.entered) })
	<-ctx.Done()
}

func waitTimeout(t *testing.T, th *Thread) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, th.WaitContext(ctx))
}

func TestStartTwiceCreatesOneThread(t *testing.T) {
	b := newBlocker()
	th := New(b)

	require.NoError(t, th.Start())
	tid := th.Tid()
	require.NoError(t, th.Start())
	assert.Equal(t, tid, th.Tid())

	<-b.entered
	assert.True(t, th.IsStarted())

	require.NoError(t, th.Stop())
	waitTimeout(t, th)
	assert.Equal(t, int64(1), b.runs.Load())
}

func TestStopNeverStarted(t *testing.T) {
	th := New(newBlocker())

	err := th.Stop()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.False(t, th.IsStarted())
	assert.Nil(t, th.Done())
}

func TestStopTwice(t *testing.T) {
	th := New(newBlocker())
	require.NoError(t, th.Start())

	require.NoError(t, th.Stop())
	assert.ErrorIs(t, th.Stop(), ErrNotStarted)
	waitTimeout(t, th)
}

func TestWaitAfterNaturalCompletion(t *testing.T) {
	var counter atomic.Int64
	th := New(RunnerFunc(func(context.Context) {
		counter.Inc()
	}))

	require.NoError(t, th.Start())
	require.NoError(t, th.Wait())
	assert.Equal(t, int64(1), counter.Load())

	// joining again is harmless
	assert.NoError(t, th.Wait())
}

func TestStartStopWait(t *testing.T) {
	var iterations atomic.Int64
	th := New(RunnerFunc(func(ctx context.Context) {
		for {
			if err := Sleep(ctx, time.Millisecond); err != nil {
				return
			}
			iterations.Inc()
		}
	}))

	require.NoError(t, th.Start())
	require.NoError(t, th.Stop())
	assert.False(t, th.IsStarted())
	waitTimeout(t, th)
	assert.False(t, th.IsAlive())
}

func TestNaturalCompletionResetsFlag(t *testing.T) {
	var counter atomic.Int64
	th := New(RunnerFunc(func(context.Context) {
		counter.Inc()
	}))

	require.NoError(t, th.Start())
	waitTimeout(t, th)
	assert.False(t, th.IsStarted())

	// a finished thread can be started again
	require.NoError(t, th.Start())
	waitTimeout(t, th)
	assert.Equal(t, int64(2), counter.Load())
}

func TestStartWhileTerminating(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	th := New(RunnerFunc(func(ctx context.Context) {
		close(entered)
		// ignores cancellation until released
		<-release
	}))

	require.NoError(t, th.Start())
	<-entered
	require.NoError(t, th.Stop())
	assert.False(t, th.IsStarted())
	assert.True(t, th.IsAlive())

	err := th.Start()
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.ErrorIs(t, err, ErrTerminating)

	close(release)
	waitTimeout(t, th)
	assert.False(t, th.IsAlive())
}

func TestStartNilRunner(t *testing.T) {
	th := New(nil)
	assert.ErrorIs(t, th.Start(), ErrCreateFailed)
	assert.False(t, th.IsStarted())
}

func TestWaitNeverStarted(t *testing.T) {
	th := New(newBlocker())
	err := th.Wait()
	assert.ErrorIs(t, err, ErrJoinFailed)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestWaitContextTimeout(t *testing.T) {
	b := newBlocker()
	th := New(b)
	require.NoError(t, th.Start())
	defer func() {
		_ = th.Stop()
		waitTimeout(t, th)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := th.WaitContext(ctx)
	assert.ErrorIs(t, err, ErrJoinFailed)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := newBlocker()
	th := New(b, WithContext(ctx), WithName("child"))

	require.NoError(t, th.Start())
	<-b.entered
	cancel()

	waitTimeout(t, th)
	assert.False(t, th.IsStarted())
}

func TestConcurrentStartStop(t *testing.T) {
	b := newBlocker()
	th := New(b)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = th.Start()
		}()
	}
	wg.Wait()

	assert.True(t, th.IsStarted())
	require.NoError(t, th.Stop())
	waitTimeout(t, th)
	assert.Equal(t, int64(1), b.runs.Load())
}

func TestThreadString(t *testing.T) {
	a := New(nil)
	b := New(nil, WithName("worker"))

	assert.Greater(t, b.ID(), a.ID())
	assert.Equal(t, "worker", b.Name())
	assert.Contains(t, a.String(), "thread#")
	assert.Contains(t, b.String(), "worker#")
	assert.Zero(t, a.Tid())
}

func TestSleepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
