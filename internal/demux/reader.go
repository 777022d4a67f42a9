package demux

import (
	"sync"
	"time"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
)

// Logger is the narrow logging surface this package needs, satisfied by
// both avplay.Logger and internal/telemetry.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Command is sent over the Reader's command channel by the controller.
type Command struct {
	Kind   CommandKind
	SeekMs int64
}

type CommandKind uint8

const (
	CmdSeek CommandKind = iota
	CmdStop
)

// eofSleep is the EOF policy of spec.md §4.2 step 2: don't exit, sleep and
// retry (a later Seek may resume reads).
const eofSleep = 100 * time.Millisecond

// seekSettle is the brief wait after executing a seek so consumers can
// observe the flush signal before new packets enter the queue (spec.md
// §4.2 step 1).
const seekSettle = 10 * time.Millisecond

// ReconnectMaxAttempts and ReconnectDelay implement the bounded retry
// policy of spec.md §7 NetworkError{recoverable}, grounded on
// other_examples' somafm-cli player (MaxRetries=3, RetryDelay=2s there;
// spec.md names 5 attempts / 3s, which we follow).
const (
	ReconnectMaxAttempts = 5
	ReconnectDelay       = 3 * time.Second
)

// StreamStateKind mirrors avplay.StreamStateKind without importing the
// root package.
type StreamStateKind uint8

const (
	StreamDisconnected StreamStateKind = iota
	StreamConnecting
	StreamBuffering
	StreamPlaying
	StreamReconnecting
	StreamFailed
)

// StreamState is published by Reader for NetworkStream sources so the
// controller can answer stream_state() without polling internals.
type StreamState struct {
	Kind     StreamStateKind
	Progress float32
	Attempt  uint32
	Reason   string
}

// Reader is the Demuxer Reader worker of spec.md §4.2: single goroutine,
// blocking packet pump, command channel, seek choreography, EOF policy.
type Reader struct {
	demuxer     Demuxer
	videoOut    *mediaqueue.PacketQueue
	audioOut    *mediaqueue.PacketQueue
	subtitleOut *mediaqueue.PacketQueue
	commands    chan Command
	done        chan struct{}
	log         Logger
	isNetwork   bool

	state    atomicStreamState
	exitedCh chan struct{}
}

// NewReader wires a Reader around an already-open Demuxer and the bounded
// queues it will feed. The SeekRequest slot itself is published by the
// controller and consulted by decoders (spec.md §4.1, §4.3) — the reader
// only needs to execute Seek on the Demuxer, not consult the slot.
func NewReader(demuxer Demuxer, videoOut, audioOut, subtitleOut *mediaqueue.PacketQueue, isNetwork bool, log Logger) *Reader {
	return &Reader{
		demuxer:     demuxer,
		videoOut:    videoOut,
		audioOut:    audioOut,
		subtitleOut: subtitleOut,
		commands:    make(chan Command, 8),
		done:        make(chan struct{}),
		log:         log,
		isNetwork:   isNetwork,
		exitedCh:    make(chan struct{}),
	}
}

// Seek enqueues a seek command (non-blocking; the command channel is
// buffered and last-writer-wins is resolved by draining all pending
// commands each loop iteration).
func (r *Reader) Seek(targetMs int64) {
	select {
	case r.commands <- Command{Kind: CmdSeek, SeekMs: targetMs}:
	default:
		// channel full: drain one stale command and retry once, so a burst
		// of seeks during scrubbing never blocks the controller goroutine.
		select {
		case <-r.commands:
		default:
		}
		select {
		case r.commands <- Command{Kind: CmdSeek, SeekMs: targetMs}:
		default:
		}
	}
}

// Stop signals the loop to exit. It returns once the command is queued (it
// blocks only while the command buffer is full and the loop is still
// running); call Wait to join.
func (r *Reader) Stop() {
	select {
	case r.commands <- Command{Kind: CmdStop}:
	case <-r.done:
	}
}

// Wait blocks until the reader goroutine has exited.
func (r *Reader) Wait() { <-r.exitedCh }

// StreamState returns the current network connectivity state. Only
// meaningful when the reader was constructed for a network source.
func (r *Reader) StreamState() StreamState { return r.state.load() }

// Run is the reader's blocking loop (spec.md §4.2). Call it in its own
// goroutine; it returns when Stop is processed or an unrecoverable error
// occurs.
func (r *Reader) Run() {
	defer close(r.exitedCh)
	defer close(r.done)
	defer r.videoOut.Close()
	defer r.audioOut.Close()
	defer r.subtitleOut.Close()

	if r.isNetwork {
		r.state.store(StreamState{Kind: StreamConnecting})
	}

	reconnectAttempts := 0

	for {
		// Drain all pending commands, last-writer-wins for Seek.
		var pendingSeek *int64
		draining := true
		for draining {
			select {
			case cmd := <-r.commands:
				switch cmd.Kind {
				case CmdSeek:
					ms := cmd.SeekMs
					pendingSeek = &ms
				case CmdStop:
					r.log.Printf("demuxer reader: stop command received")
					return
				}
			default:
				draining = false
			}
		}

		if pendingSeek != nil {
			if err := r.demuxer.Seek(*pendingSeek); err != nil {
				r.log.Printf("demuxer reader: seek to %dms failed: %v", *pendingSeek, err)
			} else {
				r.log.Printf("demuxer reader: seek to %dms executed", *pendingSeek)
				time.Sleep(seekSettle)
			}
		}

		pkt, ok, err := r.demuxer.ReadPacket()
		if err != nil {
			if r.isNetwork && reconnectAttempts < ReconnectMaxAttempts {
				reconnectAttempts++
				r.state.store(StreamState{Kind: StreamReconnecting, Attempt: uint32(reconnectAttempts)})
				r.log.Printf("demuxer reader: read error (%v), reconnect attempt %d/%d", err, reconnectAttempts, ReconnectMaxAttempts)
				time.Sleep(ReconnectDelay)
				continue
			}
			r.state.store(StreamState{Kind: StreamFailed, Reason: err.Error()})
			r.log.Printf("demuxer reader: unrecoverable read error: %v", err)
			return
		}
		reconnectAttempts = 0
		if r.isNetwork {
			r.state.store(StreamState{Kind: StreamPlaying})
		}

		if !ok {
			// EOF: don't exit, sleep and retry (a later Seek may resume reads).
			time.Sleep(eofSleep)
			continue
		}
		if pkt == nil {
			// packet consumed but no frame produced yet (reorder buffering)
			continue
		}

		switch pkt.Type {
		case media.PacketVideo:
			if !r.videoOut.Send(pkt, r.done) {
				return
			}
		case media.PacketAudio:
			if !r.audioOut.Send(pkt, r.done) {
				return
			}
		case media.PacketSubtitle:
			if !r.subtitleOut.Send(pkt, r.done) {
				return
			}
		}
	}
}

// atomicStreamState is a tiny mutex-guarded box; the contention here (read
// on query, write a few times a second at most) doesn't warrant anything
// fancier than a plain mutex.
type atomicStreamState struct {
	mu    sync.Mutex
	value StreamState
}

func (a *atomicStreamState) store(v StreamState) {
	a.mu.Lock()
	a.value = v
	a.mu.Unlock()
}

func (a *atomicStreamState) load() StreamState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}
