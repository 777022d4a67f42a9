package seekreq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishLastWriterWins(t *testing.T) {
	s := NewSlot()
	s.Publish(1000)
	s.Publish(5000)
	req, present, fresh := s.Peek()
	assert.True(t, present)
	assert.True(t, fresh)
	assert.Equal(t, int64(5000), req.TargetMs)
}

func TestShouldDropOutsideWindow(t *testing.T) {
	s := NewSlot()
	s.Publish(10000)
	assert.True(t, s.ShouldDrop(5000, ToleranceVideoMs))
	assert.False(t, s.ShouldDrop(10500, ToleranceVideoMs))
	assert.False(t, s.ShouldDrop(9200, ToleranceVideoMs))
}

func TestShouldDropNoRequest(t *testing.T) {
	s := NewSlot()
	assert.False(t, s.ShouldDrop(999999, ToleranceVideoMs))
}

func TestWatchdogClearsStaleRequest(t *testing.T) {
	s := NewSlot()
	s.mu.Lock()
	s.req = &Request{TargetMs: 10000, IssuedAt: time.Now().Add(-3 * time.Second)}
	s.mu.Unlock()

	assert.False(t, s.ShouldDrop(0, ToleranceVideoMs))
	_, present, _ := s.Peek()
	assert.False(t, present)
}

func TestClearIfTarget(t *testing.T) {
	s := NewSlot()
	s.Publish(2000)
	s.ClearIfTarget()
	_, present, _ := s.Peek()
	assert.False(t, present)
}
