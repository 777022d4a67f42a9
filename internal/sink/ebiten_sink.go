package sink

import (
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
)

// bufferSize mirrors the teacher's playerBufferSize: 200ms is comfortable
// on desktop, see controller_yes_audio.go for the web/microcontroller
// tuning notes that still apply here.
const bufferSize time.Duration = 200 * time.Millisecond

// readWait bounds how long Read will stall waiting for the decoder to
// catch up before handing ebiten a short (possibly empty) read. Ebiten's
// mixing goroutine calls Read continuously, so never block unboundedly.
const readWait = 150 * time.Millisecond

var ErrNoAudioContext = errors.New("ebiten audio.Context not initialized")

// EbitenSink is the default AudioSink, backed by ebiten/v2's audio
// package. It pulls decoded frames off a mediaqueue.FrameQueue and serves
// them to an audio.Player through the io.Reader adapter, exactly as the
// teacher's videoWithAudioController fed its own audio.Player — the
// difference is the frames now arrive from an independent decoder
// goroutine instead of being pulled synchronously inside Read.
type EbitenSink struct {
	mu sync.Mutex

	frames     *mediaqueue.FrameQueue[*media.AudioFrame]
	sampleRate int
	channels   int

	player *audio.Player
	volume float64
	muted  bool

	leftover      []byte
	servedSamples int64 // per-channel sample frames served since last Reset
}

var _ AudioSink = (*EbitenSink)(nil)

// NewEbitenSink constructs a sink around frames, playing through the
// process-wide audio.Context. sampleRate and channels describe the frames
// it will receive; the sink does not resample them to the context's rate.
// CreateAudioContextForMedia creates the context at the source's own
// sample rate.
func NewEbitenSink(frames *mediaqueue.FrameQueue[*media.AudioFrame], sampleRate, channels int) (*EbitenSink, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		return nil, ErrNoAudioContext
	}

	s := &EbitenSink{
		frames:     frames,
		sampleRate: sampleRate,
		channels:   channels,
		volume:     1.0,
		leftover:   make([]byte, 0, 4096),
	}
	player, err := ctx.NewPlayer(&struct{ io.Reader }{s})
	if err != nil {
		return nil, err
	}
	player.SetBufferSize(bufferSize)
	player.SetVolume(s.effectiveVolume())
	s.player = player
	return s, nil
}

func (s *EbitenSink) Play() error  { s.player.Play(); return nil }
func (s *EbitenSink) Pause() error { s.player.Pause(); return nil }
func (s *EbitenSink) Close() error { return s.player.Close() }

func (s *EbitenSink) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	s.player.SetVolume(s.effectiveVolume())
}

func (s *EbitenSink) GetVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *EbitenSink) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	s.player.SetVolume(s.effectiveVolume())
}

func (s *EbitenSink) GetMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *EbitenSink) effectiveVolume() float64 {
	if s.muted {
		return 0
	}
	return s.volume
}

// Position reports elapsed playback time computed from samples actually
// served to ebiten, which is the audio-slaved clock's source of truth
// (spec.md §4.4) — it advances only as fast as the sink has truly
// consumed audio, not as fast as the decoder produced it.
func (s *EbitenSink) Position() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sampleRate == 0 {
		return 0, false
	}
	return (s.servedSamples * 1000) / int64(s.sampleRate), true
}

// Reset discards buffered audio and rewinds the position clock, used by
// the seek protocol's flush step.
func (s *EbitenSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leftover = s.leftover[:0]
	s.servedSamples = 0
	s.frames.Drain()
}

// Read implements io.Reader for the underlying audio.Player: L16 stereo
// (or mono) PCM, little-endian, matching the sample format ebiten's
// audio.Context expects (see controller_yes_audio.go's own buffer-size
// sanity check on multiples of 4 bytes).
func (s *EbitenSink) Read(buffer []byte) (int, error) {
	frameBytes := 2 * s.channels
	if frameBytes == 0 {
		frameBytes = 2
	}
	if rem := len(buffer) % frameBytes; rem != 0 {
		buffer = buffer[:len(buffer)-rem]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	served := 0
	deadline := time.Now().Add(readWait)
	for served < len(buffer) {
		if len(s.leftover) > 0 {
			n := copy(buffer[served:], s.leftover)
			served += n
			s.leftover = s.leftover[n:]
			continue
		}

		frame, ok := s.frames.PopFront()
		if !ok {
			if time.Now().After(deadline) {
				break
			}
			s.mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			s.mu.Lock()
			continue
		}
		s.noLockAcceptFrame(frame)
	}
	return served, nil
}

func (s *EbitenSink) noLockAcceptFrame(frame *media.AudioFrame) {
	pcm := make([]byte, 2*len(frame.Samples))
	for i, sample := range frame.Samples {
		pcm[2*i], pcm[2*i+1] = int16ToBytes(floatToInt16(sample))
	}
	s.leftover = append(s.leftover, pcm...)
	if frame.Channels > 0 {
		s.servedSamples += int64(len(frame.Samples) / frame.Channels)
	}
}

func floatToInt16(sample float32) int16 {
	v := sample
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(float64(v) * 32767))
}

func int16ToBytes(v int16) (byte, byte) {
	u := uint16(v)
	return byte(u), byte(u >> 8)
}
