package sigutil

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want syscall.Signal
	}{
		{"SIGUSR1", unix.SIGUSR1},
		{"sigusr2", unix.SIGUSR2},
		{"term", unix.SIGTERM},
		{" HUP ", unix.SIGHUP},
		{"10", syscall.Signal(10)},
		{"34", syscall.Signal(34)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "0", "-1", "65", "SIGNOPE", "usr3"} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "SIGUSR1", Name(unix.SIGUSR1))
	assert.Equal(t, "SIGKILL", Name(unix.SIGKILL))
	assert.Equal(t, "SIG99", Name(syscall.Signal(99)))
}

func TestCatchable(t *testing.T) {
	assert.True(t, Catchable(unix.SIGUSR1))
	assert.True(t, Catchable(unix.SIGTERM))
	assert.False(t, Catchable(unix.SIGKILL))
	assert.False(t, Catchable(unix.SIGSTOP))
	assert.False(t, Catchable(0))
	assert.False(t, Catchable(MaxSignal+1))
}
