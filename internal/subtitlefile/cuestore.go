package subtitlefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avplay/engine/internal/media"
)

// LoadFile reads and parses path, dispatching on its extension. Returned
// cues are sorted by StartMs, matching CueStore's invariant.
func LoadFile(path string) ([]media.SubtitleCue, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	var cues []media.SubtitleCue
	switch ext {
	case "srt":
		cues, err = ParseSRT(string(content))
	case "ass", "ssa":
		cues, err = ParseASS(string(content))
	case "vtt":
		cues, err = ParseVTT(string(content))
	default:
		return nil, errUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(cues, func(i, j int) bool { return cues[i].StartMs < cues[j].StartMs })
	return cues, nil
}

// CueStore holds a pre-sorted external subtitle track and answers
// point-in-time queries for the controller's current_subtitle operation
// (spec.md §6).
type CueStore struct {
	cues []media.SubtitleCue
}

// NewCueStore wraps cues, which must already be sorted by StartMs (as
// LoadFile guarantees; ParseSRT/ParseASS/ParseVTT keep file order).
func NewCueStore(cues []media.SubtitleCue) *CueStore {
	return &CueStore{cues: cues}
}

// Len reports how many cues are loaded.
func (s *CueStore) Len() int { return len(s.cues) }

// At returns the cue, if any, covering nowMs. When multiple cues overlap
// (malformed or intentionally layered tracks) the one with the latest
// StartMs wins, matching internal/avsync's embedded-subtitle tie-break so
// external and embedded tracks behave consistently.
func (s *CueStore) At(nowMs int64) (media.SubtitleCue, bool) {
	// binary-search the last cue whose StartMs <= nowMs, then scan
	// backwards for the first (latest-start) one that still covers nowMs.
	idx := sort.Search(len(s.cues), func(i int) bool { return s.cues[i].StartMs > nowMs }) - 1
	for i := idx; i >= 0; i-- {
		cue := s.cues[i]
		if cue.EndMs <= nowMs {
			// Cues are sorted by start, not by end: an earlier-starting cue
			// with an even earlier end doesn't disqualify cues before it,
			// so keep scanning rather than stopping here.
			continue
		}
		if cue.StartMs <= nowMs {
			return cue, true
		}
	}
	return media.SubtitleCue{}, false
}
