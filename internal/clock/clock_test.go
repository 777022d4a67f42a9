package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsPausedAtZero(t *testing.T) {
	c := New()
	assert.True(t, c.IsPaused())
	assert.Equal(t, int64(0), c.Now())
}

func TestPlayAdvancesMonotonically(t *testing.T) {
	c := New()
	c.Play()
	t1 := c.Now()
	time.Sleep(20 * time.Millisecond)
	t2 := c.Now()
	require.GreaterOrEqual(t, t2, t1)
}

func TestPauseFreezesPosition(t *testing.T) {
	c := New()
	c.Play()
	time.Sleep(15 * time.Millisecond)
	c.Pause()
	frozen := c.Now()
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, frozen, c.Now())
}

func TestSetTimeOverridesImmediately(t *testing.T) {
	c := New()
	c.SetTime(30000)
	assert.Equal(t, int64(30000), c.Now())
	c.Play()
	assert.GreaterOrEqual(t, c.Now(), int64(30000))
}

func TestSetRatePreservesContinuity(t *testing.T) {
	c := New()
	c.SetTime(1000)
	c.Play()
	time.Sleep(10 * time.Millisecond)
	before := c.Now()
	c.SetRate(2.0)
	after := c.Now()
	// re-anchoring must not cause a backward or huge forward jump
	assert.InDelta(t, float64(before), float64(after), 20)
}

func TestSetRateWhilePausedDoesNotResume(t *testing.T) {
	c := New()
	c.SetTime(500)
	c.SetRate(2.0)
	assert.True(t, c.IsPaused())
	assert.Equal(t, int64(500), c.Now())
}
