// Package seekreq implements the single-slot, last-writer-wins SeekRequest
// mechanism that lets the Playback Controller and the video and audio
// decoders agree on "what are we seeking to right now" without a
// shared lock being held across any blocking call (spec.md §4.1, §5).
package seekreq

import (
	"sync"
	"time"
)

// Watchdog is the unconditional clearance window: if a request has been
// sitting for longer than this, decoders drop it even if no in-range frame
// ever arrived, preventing permanent-skip deadlocks (spec.md §4.1).
const Watchdog = 2 * time.Second

// ToleranceVideoMs and ToleranceAudioMs are the post-seek acceptance
// windows of spec.md invariant 3.
const (
	ToleranceVideoMs int64 = 1000
	ToleranceAudioMs int64 = 500
)

// seekWindowMaxMs bounds how far past the target a frame may still be
// accepted, per spec.md §4.1 ("outside [target-tolerance, target+10000ms]").
const seekWindowMaxMs int64 = 10000

// Request is a pending seek: a target position and the wall-clock instant
// it was issued, used to compute staleness against Watchdog.
type Request struct {
	TargetMs int64
	IssuedAt time.Time
}

// Slot is the mutex-protected single-slot holder. Controller writes
// (Publish), decoders read and clear (ShouldDrop/ClearIfTarget).
type Slot struct {
	mu  sync.Mutex
	req *Request
}

// NewSlot creates an empty slot.
func NewSlot() *Slot { return &Slot{} }

// Publish installs a new seek request, overwriting (last-writer-wins) any
// request already present.
func (s *Slot) Publish(targetMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = &Request{TargetMs: targetMs, IssuedAt: time.Now()}
}

// Clear removes any pending request.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = nil
}

// Peek returns a copy of the current request, if any, and whether it is
// still fresh (issued no longer ago than Watchdog). A stale request is
// still returned so the caller (a decoder) can apply the watchdog clear.
func (s *Slot) Peek() (req Request, present bool, fresh bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return Request{}, false, false
	}
	fresh = time.Since(s.req.IssuedAt) <= Watchdog
	return *s.req, true, fresh
}

// ShouldDrop reports whether a frame with the given PTS should be dropped
// as part of the post-seek filter (spec.md §4.1, §4.3): a request is
// present, fresh, and ptsMs falls outside
// [target-tolerance, target+10000ms]. If the request is present but stale,
// ShouldDrop clears it (watchdog) and returns false so playback resumes
// normally rather than skipping forever.
func (s *Slot) ShouldDrop(ptsMs int64, toleranceMs int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return false
	}
	if time.Since(s.req.IssuedAt) > Watchdog {
		s.req = nil
		return false
	}
	lo := s.req.TargetMs - toleranceMs
	hi := s.req.TargetMs + seekWindowMaxMs
	return ptsMs < lo || ptsMs > hi
}

// ClearIfTarget clears the slot unconditionally, modeling "the first frame
// passing the filter clears the slot" (spec.md §4.1). It does not check
// the range itself: call it only after ShouldDrop returned false for a
// frame that should be treated as the seek's first accepted frame (e.g.
// the first audio frame post-seek).
func (s *Slot) ClearIfTarget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = nil
}
