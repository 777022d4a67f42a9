package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
	"github.com/avplay/engine/internal/seekreq"
)

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

func TestVideoDecoderProducesFrames(t *testing.T) {
	in := mediaqueue.NewPacketQueue(4)
	frames := mediaqueue.NewFrameQueue[*media.VideoFrame](4, 8)
	slot := seekreq.NewSlot()
	d := NewVideoDecoder(in, frames, slot, nopLogger{})

	go d.Run()

	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 100, Width: 2, Height: 2, Payload: make([]byte, 16)}, nil)
	require.Eventually(t, func() bool { return frames.Len() == 1 }, time.Second, time.Millisecond)

	frame, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(100), frame.PTSMs)

	in.Close()
}

func TestVideoDecoderDropsFramesDuringActiveSeek(t *testing.T) {
	in := mediaqueue.NewPacketQueue(4)
	frames := mediaqueue.NewFrameQueue[*media.VideoFrame](4, 8)
	slot := seekreq.NewSlot()
	slot.Publish(5000)
	d := NewVideoDecoder(in, frames, slot, nopLogger{})

	go d.Run()
	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 100, Width: 1, Height: 1, Payload: make([]byte, 4)}, nil)
	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 5050, Width: 1, Height: 1, Payload: make([]byte, 4)}, nil)

	require.Eventually(t, func() bool { return frames.Len() == 1 }, time.Second, time.Millisecond)
	frame, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(5050), frame.PTSMs)

	in.Close()
}

func TestVideoDecoderBlocksAboveHardLimitUntilConsumerCatchesUp(t *testing.T) {
	in := mediaqueue.NewPacketQueue(16)
	frames := mediaqueue.NewFrameQueue[*media.VideoFrame](2, 2)
	slot := seekreq.NewSlot()
	d := NewVideoDecoder(in, frames, slot, nopLogger{})

	go d.Run()
	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 0, Width: 1, Height: 1, Payload: make([]byte, 4)}, nil)
	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 40, Width: 1, Height: 1, Payload: make([]byte, 4)}, nil)
	require.Eventually(t, func() bool { return frames.Len() == 2 }, time.Second, time.Millisecond)

	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 80, Width: 1, Height: 1, Payload: make([]byte, 4)}, nil)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, frames.Len(), "decoder must block, not evict, once at the hard limit")

	f1, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(0), f1.PTSMs)

	require.Eventually(t, func() bool { return frames.Len() == 2 }, time.Second, time.Millisecond)
	f2, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(40), f2.PTSMs)
	f3, ok := frames.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(80), f3.PTSMs)

	d.Stop()
	in.Close()
}

func TestVideoDecoderStopUnblocksBackoffWait(t *testing.T) {
	in := mediaqueue.NewPacketQueue(16)
	frames := mediaqueue.NewFrameQueue[*media.VideoFrame](1, 1)
	slot := seekreq.NewSlot()
	d := NewVideoDecoder(in, frames, slot, nopLogger{})

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 0, Width: 1, Height: 1, Payload: make([]byte, 4)}, nil)
	require.Eventually(t, func() bool { return frames.Len() == 1 }, time.Second, time.Millisecond)
	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 40, Width: 1, Height: 1, Payload: make([]byte, 4)}, nil)
	time.Sleep(20 * time.Millisecond) // let the decoder enter its backoff wait

	d.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("decoder did not exit after Stop while backed off")
	}
}
