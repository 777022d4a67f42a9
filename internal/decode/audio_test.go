package decode

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
	"github.com/avplay/engine/internal/seekreq"
)

func float32ToBytes(values ...float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func TestAudioDecoderProducesSamples(t *testing.T) {
	in := mediaqueue.NewPacketQueue(4)
	frames := mediaqueue.NewFrameQueue[*media.AudioFrame](4, 8)
	slot := seekreq.NewSlot()
	d := NewAudioDecoder(in, frames, slot, nopLogger{})

	go d.Run()
	in.Send(&media.Packet{
		Type:       media.PacketAudio,
		PTSMs:      250,
		SampleRate: 48000,
		Channels:   2,
		Payload:    float32ToBytes(0.5, -0.5, 0.25, -0.25),
	}, nil)

	require.Eventually(t, func() bool { return frames.Len() == 1 }, time.Second, time.Millisecond)
	frame, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(250), frame.PTSMs)
	assert.InDelta(t, 0.5, frame.Samples[0], 1e-6)
	assert.InDelta(t, -0.25, frame.Samples[3], 1e-6)

	in.Close()
}

func TestAudioDecoderTighterToleranceThanVideo(t *testing.T) {
	in := mediaqueue.NewPacketQueue(4)
	frames := mediaqueue.NewFrameQueue[*media.AudioFrame](4, 8)
	slot := seekreq.NewSlot()
	slot.Publish(10000)
	d := NewAudioDecoder(in, frames, slot, nopLogger{})

	go d.Run()
	// 9400ms is within video's 1000ms tolerance window but outside audio's 500ms one.
	in.Send(&media.Packet{Type: media.PacketAudio, PTSMs: 9400, SampleRate: 48000, Channels: 1, Payload: float32ToBytes(0)}, nil)
	in.Send(&media.Packet{Type: media.PacketAudio, PTSMs: 10010, SampleRate: 48000, Channels: 1, Payload: float32ToBytes(1)}, nil)

	require.Eventually(t, func() bool { return frames.Len() == 1 }, time.Second, time.Millisecond)
	frame, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(10010), frame.PTSMs)

	in.Close()
}

func TestAudioDecoderBlocksAboveHardLimitUntilConsumerCatchesUp(t *testing.T) {
	in := mediaqueue.NewPacketQueue(16)
	frames := mediaqueue.NewFrameQueue[*media.AudioFrame](1, 1)
	slot := seekreq.NewSlot()
	d := NewAudioDecoder(in, frames, slot, nopLogger{})

	go d.Run()
	in.Send(&media.Packet{Type: media.PacketAudio, PTSMs: 0, SampleRate: 48000, Channels: 1, Payload: float32ToBytes(0)}, nil)
	require.Eventually(t, func() bool { return frames.Len() == 1 }, time.Second, time.Millisecond)

	in.Send(&media.Packet{Type: media.PacketAudio, PTSMs: 20, SampleRate: 48000, Channels: 1, Payload: float32ToBytes(1)}, nil)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, frames.Len(), "decoder must block, not evict, once at the hard limit")

	f1, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(0), f1.PTSMs)

	require.Eventually(t, func() bool { return frames.Len() == 1 }, time.Second, time.Millisecond)
	f2, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(20), f2.PTSMs)

	d.Stop()
	in.Close()
}
