package decode

import (
	"regexp"
	"strings"
	"sync"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
)

// subtitleStoreCap bounds how many embedded cues are kept in memory at
// once. Cues are sparse compared to video/audio frames, so this is sized
// generously rather than tuned like the frame queue soft/hard limits.
const subtitleStoreCap = 64

// SubtitleStore holds the embedded cues decoded so far, queried by the
// public facade's current_subtitle operation via internal/avsync.
type SubtitleStore struct {
	mu   sync.Mutex
	cues []media.SubtitleCue
}

// NewSubtitleStore creates an empty store.
func NewSubtitleStore() *SubtitleStore { return &SubtitleStore{} }

// Add appends a decoded cue, trimming the oldest once subtitleStoreCap is
// exceeded.
func (s *SubtitleStore) Add(cue media.SubtitleCue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = append(s.cues, cue)
	if len(s.cues) > subtitleStoreCap {
		s.cues = s.cues[len(s.cues)-subtitleStoreCap:]
	}
}

// Snapshot returns a copy of the cues currently held, suitable for
// internal/avsync.CurrentSubtitle.
func (s *SubtitleStore) Snapshot() []media.SubtitleCue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]media.SubtitleCue, len(s.cues))
	copy(out, s.cues)
	return out
}

// Drain clears every held cue, used by the seek protocol's flush step
// (spec.md §4.1 step 4), same as the video/audio frame queues.
func (s *SubtitleStore) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = s.cues[:0]
}

// SubtitleDecoder is the Subtitle Decoder worker of spec.md §4.3: it reads
// embedded subtitle packets, strips ASS override blocks and HTML markup
// down to plain cue text, and drops cues whose stripped text is empty
// (bitmap-only subtitle tracks have no text representation to give the
// GUI, so there is nothing useful to queue).
type SubtitleDecoder struct {
	in    *mediaqueue.PacketQueue
	store *SubtitleStore
	log   Logger
}

// NewSubtitleDecoder wires a SubtitleDecoder around its input packet queue
// and the store the controller reads from.
func NewSubtitleDecoder(in *mediaqueue.PacketQueue, store *SubtitleStore, log Logger) *SubtitleDecoder {
	return &SubtitleDecoder{in: in, store: store, log: log}
}

// Run is the decoder's blocking loop. Call it in its own goroutine; it
// returns once the input packet queue is closed and drained.
func (d *SubtitleDecoder) Run() {
	for {
		pkt, ok := d.in.Recv()
		if !ok {
			return
		}
		if pkt.Type != media.PacketSubtitle {
			continue
		}

		text := stripSubtitleMarkup(string(pkt.Payload))
		if text == "" {
			// Bitmap subtitle (PGS/DVB) or an empty line: drop it, per
			// spec.md §4.3 "bitmap drop".
			continue
		}

		d.store.Add(media.SubtitleCue{
			StartMs: pkt.PTSMs,
			EndMs:   pkt.PTSMs + pkt.DurationMs,
			Text:    text,
		})
	}
}

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	assOverridePattern = regexp.MustCompile(`\{[^}]*\}`)
)

// stripSubtitleMarkup removes ASS override blocks ({\...}) and turns \N/\n
// line-break codes (which ASS dialogue text carries outside override
// blocks, not inside them) into real newlines, as
// internal/subtitlefile/ass.go's cleanASSText does, and additionally strips
// HTML tags (<i>, <b>, <font ...>) that embedded SRT-style subtitle tracks
// commonly carry, per spec.md §4.3 "ASS/HTML stripping".
func stripSubtitleMarkup(text string) string {
	text = assOverridePattern.ReplaceAllString(text, "")
	text = strings.NewReplacer(`\N`, "\n", `\n`, "\n").Replace(text)
	text = htmlTagPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
