package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
)

// newTestSink builds an EbitenSink without going through NewEbitenSink, so
// tests don't need a live ebiten audio.Context / player.
func newTestSink(frames *mediaqueue.FrameQueue[*media.AudioFrame], sampleRate, channels int) *EbitenSink {
	return &EbitenSink{
		frames:     frames,
		sampleRate: sampleRate,
		channels:   channels,
		volume:     1.0,
		leftover:   make([]byte, 0, 64),
	}
}

func TestFloatToInt16ClampsRange(t *testing.T) {
	assert.Equal(t, int16(32767), floatToInt16(2.0))
	assert.Equal(t, int16(-32767), floatToInt16(-2.0))
	assert.Equal(t, int16(0), floatToInt16(0))
}

func TestReadServesQueuedFrameAsPCM(t *testing.T) {
	frames := mediaqueue.NewFrameQueue[*media.AudioFrame](4, 8)
	frames.Push(&media.AudioFrame{PTSMs: 0, SampleRate: 100, Channels: 2, Samples: []float32{1, -1, 0.5, -0.5}})
	s := newTestSink(frames, 100, 2)

	buf := make([]byte, 16)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n) // 4 samples * 2 bytes each

	ms, ok := s.Position()
	require.True(t, ok)
	assert.Equal(t, int64(20), ms) // 2 sample-frames / 100Hz * 1000
}

func TestResetDiscardsBufferedAudioAndPosition(t *testing.T) {
	frames := mediaqueue.NewFrameQueue[*media.AudioFrame](4, 8)
	frames.Push(&media.AudioFrame{PTSMs: 0, SampleRate: 48000, Channels: 1, Samples: []float32{0.1, 0.2}})
	s := newTestSink(frames, 48000, 1)

	buf := make([]byte, 4)
	_, err := s.Read(buf)
	require.NoError(t, err)

	s.Reset()
	ms, ok := s.Position()
	require.True(t, ok)
	assert.Equal(t, int64(0), ms)
	assert.Equal(t, 0, frames.Len())
}

func TestMuteZeroesEffectiveVolumeWithoutChangingVolume(t *testing.T) {
	s := newTestSink(mediaqueue.NewFrameQueue[*media.AudioFrame](4, 8), 48000, 2)
	s.volume = 0.8
	s.muted = true
	assert.Equal(t, float64(0), s.effectiveVolume())
	assert.Equal(t, 0.8, s.GetVolume())
}
