package decode

import (
	"encoding/binary"
	"math"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
	"github.com/avplay/engine/internal/seekreq"
)

// AudioDecoder is the Audio Decoder worker of spec.md §4.3. Like
// VideoDecoder it receives already-decoded payload bytes (packed float32
// PCM, reisen's negotiated sample format) and is responsible for
// seek-filtering and repacking into media.AudioFrame, not for actual
// codec work.
type AudioDecoder struct {
	in       *mediaqueue.PacketQueue
	frames   *mediaqueue.FrameQueue[*media.AudioFrame]
	seekSlot *seekreq.Slot
	log      Logger
	stop     chan struct{}
}

// NewAudioDecoder wires an AudioDecoder around its input packet queue, the
// frame queue it publishes to (consumed by internal/sink), and the shared
// seek request slot.
func NewAudioDecoder(in *mediaqueue.PacketQueue, frames *mediaqueue.FrameQueue[*media.AudioFrame], seekSlot *seekreq.Slot, log Logger) *AudioDecoder {
	return &AudioDecoder{in: in, frames: frames, seekSlot: seekSlot, log: log, stop: make(chan struct{})}
}

// Stop unblocks a decoder parked in the soft/hard-limit backoff wait, so
// the controller can join this goroutine promptly.
func (d *AudioDecoder) Stop() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
}

// Run is the decoder's blocking loop. Call it in its own goroutine; it
// returns once the input packet queue is closed and drained or Stop is
// called while backed off.
func (d *AudioDecoder) Run() {
	for {
		pkt, ok := d.in.Recv()
		if !ok {
			return
		}
		if pkt.Type != media.PacketAudio {
			continue
		}

		// Audio uses a tighter tolerance than video (spec.md invariant 3):
		// the master clock is audio-slaved, so a stale audio frame would
		// directly corrupt the clock rather than just display briefly.
		if d.seekSlot.ShouldDrop(pkt.PTSMs, seekreq.ToleranceAudioMs) {
			continue
		}
		// The first in-range audio frame clears the shared seek slot
		// (spec.md §4.1) — not the video decoder, see video.go.
		d.seekSlot.ClearIfTarget()

		frame := &media.AudioFrame{
			PTSMs:      pkt.PTSMs,
			SampleRate: pkt.SampleRate,
			Channels:   pkt.Channels,
			Samples:    bytesToFloat32(pkt.Payload),
		}

		if !waitForRoom(d.frames.Len, d.frames.SoftLimit(), d.frames.HardLimit(), d.stop, d.log, "audio") {
			return
		}
		d.frames.Push(frame)
	}
}

// bytesToFloat32 reinterprets a packed little-endian float32 PCM buffer
// as a sample slice, mirroring the raw byte handling the teacher's
// videoWithAudioController.Read does for its own leftover-bytes buffer,
// generalized to an explicit sample type instead of raw bytes.
func bytesToFloat32(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
