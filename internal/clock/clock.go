// Package clock implements the playback engine's master clock: the single
// shared, audio-slaved time source every pipeline stage reads from or
// writes to.
package clock

import (
	"sync"
	"time"
)

// Clock is a monotonic, wall-clock-corrected presentation-time source.
// It is safe for concurrent use. The zero value is not usable; use New.
//
// Invariant: while unpaused, Now() == basePTS + elapsed(wall)*rate. While
// paused, Now() == pausedAt. Both are true between explicit SetTime/Play/
// Pause/SetRate calls, matching §4.4 of the spec this package implements.
type Clock struct {
	mu sync.Mutex

	basePTSMs int64
	baseWall  time.Time
	rate      float64
	paused    bool
	pausedAt  int64
}

// New creates a Clock paused at position 0 with rate 1.0.
func New() *Clock {
	return &Clock{
		rate:     1.0,
		paused:   true,
		baseWall: time.Now(),
	}
}

// Now returns the current playback position in milliseconds.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowLocked(time.Now())
}

func (c *Clock) nowLocked(wallNow time.Time) int64 {
	if c.paused {
		return c.pausedAt
	}
	elapsed := wallNow.Sub(c.baseWall)
	return c.basePTSMs + int64(float64(elapsed.Milliseconds())*c.rate)
}

// SetTime atomically resets the clock to ptsMs, regardless of play/pause
// state. Used for the pre-set step of the seek protocol (§4.1) so the UI's
// position readout reflects the seek target immediately, before any
// decoder has produced an in-range frame.
func (c *Clock) SetTime(ptsMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basePTSMs = ptsMs
	c.baseWall = time.Now()
	c.pausedAt = ptsMs
}

// Play resumes the clock from its paused position. A no-op if already
// playing.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.basePTSMs = c.pausedAt
	c.baseWall = time.Now()
	c.paused = false
}

// Pause freezes the clock at its current position. A no-op if already
// paused.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.pausedAt = c.nowLocked(time.Now())
	c.paused = true
}

// IsPaused reports whether the clock is currently paused.
func (c *Clock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// SetRate changes the playback rate, re-anchoring basePTS/baseWall first
// (if currently playing) so that Now() does not jump at the instant the
// rate changes.
func (c *Clock) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		now := c.nowLocked(time.Now())
		c.basePTSMs = now
		c.baseWall = time.Now()
	}
	c.rate = rate
}

// Rate returns the current playback rate.
func (c *Clock) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}
