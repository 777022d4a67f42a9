// Package mediaqueue implements the engine's two queue shapes from
// spec.md §3: bounded packet channels (the Demuxer Reader's sole
// backpressure signal) and self-pruning soft/hard-capped frame queues.
package mediaqueue

import "github.com/avplay/engine/internal/media"

// Recommended capacities from spec.md §3.
const (
	VideoPacketCapacity    = 200 // ~8s @ 25fps
	AudioPacketCapacity    = 150 // ~3s @ 48kHz
	SubtitlePacketCapacity = 64  // subtitle cues arrive far sparser than AV packets

	VideoFrameSoftLimit = 36
	VideoFrameHardLimit = 48
	AudioFrameSoftLimit = 80
	AudioFrameHardLimit = 120
)

// PacketQueue wraps a single-producer single-consumer bounded channel of
// packets. Send blocks when full: that block is the demuxer reader's only
// throttle (spec.md §4.2 step 3).
type PacketQueue struct {
	ch chan *media.Packet
}

// NewPacketQueue creates a packet queue with the given capacity.
func NewPacketQueue(capacity int) *PacketQueue {
	return &PacketQueue{ch: make(chan *media.Packet, capacity)}
}

// Send blocks until the packet is enqueued or ctx-like cancellation is
// signaled externally by closing done. Returns false if done fired first.
func (q *PacketQueue) Send(pkt *media.Packet, done <-chan struct{}) bool {
	select {
	case q.ch <- pkt:
		return true
	case <-done:
		return false
	}
}

// Recv blocks until a packet is available or the queue is closed/drained.
// ok is false when the channel has been closed and drained, signaling the
// consuming decoder to exit.
func (q *PacketQueue) Recv() (pkt *media.Packet, ok bool) {
	pkt, ok = <-q.ch
	return pkt, ok
}

// Close closes the underlying channel so blocked Recv calls unblock with
// ok==false. Only the producer (demuxer reader) may call this, exactly
// once, on Stop.
func (q *PacketQueue) Close() { close(q.ch) }

// Len reports the current fill level.
func (q *PacketQueue) Len() int { return len(q.ch) }

// Cap reports the queue's bounded capacity.
func (q *PacketQueue) Cap() int { return cap(q.ch) }

// Drain removes and discards every packet currently queued, used during
// the seek protocol's flush step. It never blocks.
func (q *PacketQueue) Drain() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
