package schedule

import (
	"testing"

	"github.com/rileyhilliard/swarm/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_FiresAtZero(t *testing.T) {
	p := New(3)

	assert.False(t, p.Tick(false, false))
	assert.False(t, p.Tick(false, false))
	assert.Equal(t, 1, p.Remaining())
	assert.True(t, p.Tick(false, false))
	assert.Equal(t, 3, p.Remaining(), "resets after firing")
}

func TestPolicy_PausedWhileBusyOrEmpty(t *testing.T) {
	p := New(2)

	for i := 0; i < 5; i++ {
		assert.False(t, p.Tick(true, false))
		assert.False(t, p.Tick(false, true))
	}
	assert.Equal(t, 2, p.Remaining())
}

func TestPolicy_SetIntervalAndReset(t *testing.T) {
	p := New(10)
	p.Tick(false, false)

	require.NoError(t, p.SetInterval(5))
	assert.Equal(t, 5, p.Interval())
	assert.Equal(t, 5, p.Remaining())

	p.Tick(false, false)
	p.Reset()
	assert.Equal(t, 5, p.Remaining())

	err := p.SetInterval(0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Equal(t, 5, p.Interval())
}

func TestNew_ClampsInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, New(0).Interval())
	assert.Equal(t, DefaultInterval, New(-4).Interval())
}
