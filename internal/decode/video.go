package decode

import (
	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
	"github.com/avplay/engine/internal/seekreq"
)

// VideoDecoder is the Video Decoder worker of spec.md §4.3. It owns no
// reisen/ffmpeg state directly — by the time a packet reaches it over the
// bounded queue, internal/demux.ReisenDemuxer has already produced decoded
// RGBA8 pixels (see internal/media.Packet) — so its job is repacking,
// seek-filtering and bounding the frame queue.
type VideoDecoder struct {
	in       *mediaqueue.PacketQueue
	frames   *mediaqueue.FrameQueue[*media.VideoFrame]
	seekSlot *seekreq.Slot
	log      Logger
	stop     chan struct{}
}

// NewVideoDecoder wires a VideoDecoder around its input packet queue, the
// frame queue it publishes to, and the shared seek request slot.
func NewVideoDecoder(in *mediaqueue.PacketQueue, frames *mediaqueue.FrameQueue[*media.VideoFrame], seekSlot *seekreq.Slot, log Logger) *VideoDecoder {
	return &VideoDecoder{in: in, frames: frames, seekSlot: seekSlot, log: log, stop: make(chan struct{})}
}

// Stop unblocks a decoder parked in the soft/hard-limit backoff wait, so
// the controller can join this goroutine promptly even when the frame
// queue's consumer (the GUI) has stopped pulling frames.
func (d *VideoDecoder) Stop() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
}

// Run is the decoder's blocking loop. Call it in its own goroutine; it
// returns once the input packet queue is closed and drained (the demuxer
// reader stopped) or Stop is called while backed off.
func (d *VideoDecoder) Run() {
	for {
		pkt, ok := d.in.Recv()
		if !ok {
			return
		}
		if pkt.Type != media.PacketVideo {
			continue
		}

		if d.seekSlot.ShouldDrop(pkt.PTSMs, seekreq.ToleranceVideoMs) {
			continue
		}
		// Only the audio decoder clears the shared seek slot (spec.md
		// §4.1: "the first audio frame passing this filter clears the
		// slot") — video frames routinely reach their in-range PTS before
		// audio does, and clearing it here would let a stale pre-seek
		// audio packet already in flight slip past the audio decoder's
		// own filter once the slot is gone.

		frame := &media.VideoFrame{
			PTSMs:  pkt.PTSMs,
			Width:  pkt.Width,
			Height: pkt.Height,
			Format: media.PixelFormatRGBA8,
			Data:   pkt.Payload,
		}

		if !waitForRoom(d.frames.Len, d.frames.SoftLimit(), d.frames.HardLimit(), d.stop, d.log, "video") {
			return
		}
		d.frames.Push(frame)
	}
}
