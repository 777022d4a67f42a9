package demux

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
)

type testLogger struct{}

func (testLogger) Printf(string, ...any) {}

// fakeDemuxer is a scripted, in-memory Demuxer used to test Reader without
// any reisen/ffmpeg dependency.
type fakeDemuxer struct {
	mu      sync.Mutex
	packets []*media.Packet
	idx     int
	eofOnce bool
	seeks   []int64
	closed  bool
}

func (f *fakeDemuxer) ReadPacket() (*media.Packet, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.packets) {
		if !f.eofOnce {
			f.eofOnce = true
		}
		return nil, false, nil
	}
	p := f.packets[f.idx]
	f.idx++
	return p, true, nil
}

func (f *fakeDemuxer) Seek(targetMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, targetMs)
	f.idx = 0
	return nil
}

func (f *fakeDemuxer) Info() media.Info                      { return media.Info{} }
func (f *fakeDemuxer) StreamIndices() (int, int, int)         { return 0, 1, -1 }
func (f *fakeDemuxer) IsSeekable() bool                       { return true }
func (f *fakeDemuxer) Description() string                    { return "fake" }
func (f *fakeDemuxer) Close() error                            { f.closed = true; return nil }

var _ Demuxer = (*fakeDemuxer)(nil)

func TestReaderForwardsPacketsByType(t *testing.T) {
	fd := &fakeDemuxer{packets: []*media.Packet{
		{StreamIndex: 0, Type: media.PacketVideo, PTSMs: 0},
		{StreamIndex: 1, Type: media.PacketAudio, PTSMs: 0},
		{StreamIndex: 0, Type: media.PacketVideo, PTSMs: 40},
	}}
	videoQ := mediaqueue.NewPacketQueue(8)
	audioQ := mediaqueue.NewPacketQueue(8)
	subtitleQ := mediaqueue.NewPacketQueue(8)
	r := NewReader(fd, videoQ, audioQ, subtitleQ, false, testLogger{})

	go r.Run()

	pkt, ok := videoQ.Recv()
	require.True(t, ok)
	assert.Equal(t, media.PacketVideo, pkt.Type)

	pkt, ok = audioQ.Recv()
	require.True(t, ok)
	assert.Equal(t, media.PacketAudio, pkt.Type)

	r.Stop()
	r.Wait()
}

func TestReaderSeekCommandExecutesAndSettles(t *testing.T) {
	fd := &fakeDemuxer{packets: []*media.Packet{
		{StreamIndex: 0, Type: media.PacketVideo, PTSMs: 0},
	}}
	videoQ := mediaqueue.NewPacketQueue(8)
	audioQ := mediaqueue.NewPacketQueue(8)
	subtitleQ := mediaqueue.NewPacketQueue(8)
	r := NewReader(fd, videoQ, audioQ, subtitleQ, false, testLogger{})

	go r.Run()
	r.Seek(30000)

	time.Sleep(50 * time.Millisecond)
	r.Stop()
	r.Wait()

	fd.mu.Lock()
	defer fd.mu.Unlock()
	require.NotEmpty(t, fd.seeks)
	assert.Equal(t, int64(30000), fd.seeks[0])
}

func TestReaderEOFDoesNotExit(t *testing.T) {
	fd := &fakeDemuxer{packets: nil}
	videoQ := mediaqueue.NewPacketQueue(8)
	audioQ := mediaqueue.NewPacketQueue(8)
	subtitleQ := mediaqueue.NewPacketQueue(8)
	r := NewReader(fd, videoQ, audioQ, subtitleQ, false, testLogger{})

	go r.Run()
	time.Sleep(30 * time.Millisecond)

	select {
	case <-r.exitedCh:
		t.Fatal("reader exited on EOF, should keep waiting for commands")
	default:
	}

	r.Stop()
	r.Wait()
}

func TestReaderStopJoins(t *testing.T) {
	fd := &fakeDemuxer{}
	videoQ := mediaqueue.NewPacketQueue(8)
	audioQ := mediaqueue.NewPacketQueue(8)
	subtitleQ := mediaqueue.NewPacketQueue(8)
	r := NewReader(fd, videoQ, audioQ, subtitleQ, false, testLogger{})

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	r.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader did not exit after Stop")
	}
}

func TestReaderNetworkReconnectOnErrors(t *testing.T) {
	fd := &erroringDemuxer{err: errors.New("connection reset")}
	videoQ := mediaqueue.NewPacketQueue(8)
	audioQ := mediaqueue.NewPacketQueue(8)
	subtitleQ := mediaqueue.NewPacketQueue(8)
	r := NewReader(fd, videoQ, audioQ, subtitleQ, true, testLogger{})
	r.Seek(0) // no-op, exercise seek path too

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(ReconnectMaxAttempts*ReconnectDelay + 2*time.Second):
		t.Fatal("reader should give up after max reconnect attempts")
	}

	assert.Equal(t, StreamFailed, r.StreamState().Kind)
}

type erroringDemuxer struct {
	err error
}

func (e *erroringDemuxer) ReadPacket() (*media.Packet, bool, error) { return nil, false, e.err }
func (e *erroringDemuxer) Seek(int64) error                          { return nil }
func (e *erroringDemuxer) Info() media.Info                          { return media.Info{} }
func (e *erroringDemuxer) StreamIndices() (int, int, int)            { return 0, 1, -1 }
func (e *erroringDemuxer) IsSeekable() bool                          { return false }
func (e *erroringDemuxer) Description() string                       { return "erroring" }
func (e *erroringDemuxer) Close() error                               { return nil }

var _ Demuxer = (*erroringDemuxer)(nil)
