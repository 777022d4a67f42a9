// Package avsync implements the GUI-facing pull interface of spec.md §4.5:
// the three-tier catch-up policy for video frame selection, and the
// largest-start subtitle cue selection shared by embedded and external
// subtitle sources.
package avsync

import (
	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
)

// Tier thresholds and fast-jump bounds from spec.md §4.5.
const (
	inSyncLagLowMs    = -10
	inSyncLagHighMs   = 50
	inSyncAdvanceMs   = 40
	catchUpLagHighMs  = 150
	catchUpAdvanceMs  = 30
	fastJumpPopLimit  = 10
	fastJumpDiscardMs = 80
)

// VideoQueue is the subset of *mediaqueue.FrameQueue[*media.VideoFrame]
// that CurrentFrameFor needs, declared narrowly so it's trivially fakeable
// in tests.
type VideoQueue interface {
	PeekFront() (*media.VideoFrame, bool)
	PopFront() (*media.VideoFrame, bool)
	PopUpTo(n int) []*media.VideoFrame
}

var _ VideoQueue = (*mediaqueue.FrameQueue[*media.VideoFrame])(nil)

// CurrentFrameFor implements current_frame_for(now_ms) (spec.md §4.5).
// current is the frame last returned by a previous call (nil initially);
// it is used to measure lag and is replaced with whatever frame this call
// returns. The caller (the public facade) is expected to hold the
// returned frame as its new "current" for the next call.
func CurrentFrameFor(queue VideoQueue, current *media.VideoFrame, nowMs int64) *media.VideoFrame {
	if current == nil {
		frame, ok := queue.PopFront()
		if !ok {
			return nil
		}
		return frame
	}

	lag := nowMs - current.PTSMs

	switch {
	case lag >= catchUpLagHighMs+1:
		// fast jump: pop up to 10 frames, discard stale ones, keep first in range
		popped := queue.PopUpTo(fastJumpPopLimit)
		best := current
		for _, f := range popped {
			if nowMs-f.PTSMs < fastJumpDiscardMs {
				best = f
				break
			}
			best = f // fall through to last popped if none are in range
		}
		return best
	case lag >= inSyncLagHighMs+1:
		// slow catch-up tier
		if lag >= catchUpAdvanceMs {
			if next, ok := queue.PeekFront(); ok {
				queue.PopFront()
				return next
			}
		}
		return current
	default:
		// in-sync tier (also covers lag < inSyncLagLowMs, i.e. ahead of clock)
		if lag >= inSyncAdvanceMs {
			if next, ok := queue.PeekFront(); ok {
				queue.PopFront()
				return next
			}
		}
		return current
	}
}

// CurrentSubtitle selects, among cues covering nowMs, the one with the
// largest Start (spec.md §4.5: "handles overlapping cues"). embedded is
// consulted first; external is only used when embedded has no match.
func CurrentSubtitle(embedded, external []media.SubtitleCue, nowMs int64) (media.SubtitleCue, bool) {
	if cue, ok := bestCovering(embedded, nowMs); ok {
		return cue, true
	}
	return bestCovering(external, nowMs)
}

func bestCovering(cues []media.SubtitleCue, nowMs int64) (media.SubtitleCue, bool) {
	var best media.SubtitleCue
	found := false
	for _, c := range cues {
		if c.StartMs <= nowMs && nowMs < c.EndMs {
			if !found || c.StartMs > best.StartMs {
				best = c
				found = true
			}
		}
	}
	return best, found
}
