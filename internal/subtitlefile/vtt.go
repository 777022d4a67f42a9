package subtitlefile

import (
	"strconv"
	"strings"

	"github.com/avplay/engine/internal/media"
)

// ParseVTT parses WebVTT content into cues, grounded on
// original_source's parse_vtt: the leading WEBVTT line is skipped, NOTE
// and STYLE blocks are ignored, "-->" marks a time line.
func ParseVTT(content string) ([]media.SubtitleCue, error) {
	lines := strings.Split(content, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // WEBVTT header
	}

	var cues []media.SubtitleCue
	var pending *pendingCue

	for _, rawLine := range lines {
		line := strings.TrimSpace(strings.TrimRight(rawLine, "\r"))

		if line == "" {
			if pending != nil {
				cues = appendPending(cues, pending)
				pending = nil
			}
			continue
		}
		if strings.Contains(line, "-->") {
			start, end, ok := parseVTTTimeLine(line)
			if ok {
				pending = &pendingCue{startMs: start, endMs: end}
			}
			continue
		}
		if strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}
		if pending != nil {
			pending.appendText(line)
		}
	}
	cues = appendPending(cues, pending)
	return cues, nil
}

func parseVTTTimeLine(line string) (start, end int64, ok bool) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok1 := parseVTTTimestamp(strings.TrimSpace(parts[0]))
	// The end side may carry trailing cue settings ("align:start"); only
	// the first whitespace-delimited token is the timestamp.
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, false
	}
	end, ok2 := parseVTTTimestamp(endField[0])
	return start, end, ok1 && ok2
}

// parseVTTTimestamp parses "HH:MM:SS.mmm" or "MM:SS.mmm" into milliseconds.
func parseVTTTimestamp(ts string) (int64, bool) {
	parts := strings.SplitN(ts, ".", 2)
	if len(parts) != 2 {
		return 0, false
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}

	comp := strings.Split(parts[0], ":")
	switch len(comp) {
	case 2:
		m, err1 := strconv.ParseInt(comp[0], 10, 64)
		s, err2 := strconv.ParseInt(comp[1], 10, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return m*60000 + s*1000 + ms, true
	case 3:
		h, m, s, ok := splitHMS(parts[0])
		if !ok {
			return 0, false
		}
		return h*3600000 + m*60000 + s*1000 + ms, true
	default:
		return 0, false
	}
}
