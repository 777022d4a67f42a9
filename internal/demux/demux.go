// Package demux defines the Demuxer capability set and its reisen-backed
// implementation, plus the DemuxerReader worker that pumps packets into
// bounded queues (spec.md §4.2, §9 "dynamic dispatch over Demuxer Source").
package demux

import (
	"time"

	"github.com/avplay/engine/internal/media"
)

// Demuxer is the capability set spec.md §9 asks for: "sealed polymorphism
// over {read_packet, seek, media_info, stream_indices, is_seekable,
// description}". Modeling it as a Go interface gives the same extensibility
// for future non-file sources (memory buffers, live capture) without the
// sum-type machinery Rust would use.
type Demuxer interface {
	// ReadPacket blocks until the next packet is available. ok is false on
	// EOF; the caller (DemuxerReader) must not treat that as fatal.
	ReadPacket() (pkt *media.Packet, ok bool, err error)

	// Seek moves the read position to targetMs. Implementations should
	// make a best effort; exact precision depends on keyframe spacing.
	Seek(targetMs int64) error

	// Info returns the media's static metadata, captured at open time.
	Info() media.Info

	// StreamIndices reports which demuxer stream index carries video,
	// audio and subtitles. -1 means "no such stream".
	StreamIndices() (video, audio, subtitle int)

	// IsSeekable reports whether Seek is meaningful for this source (false
	// for non-seekable live streams, per spec.md §7 SeekUnsupported).
	IsSeekable() bool

	// Description is a short human-readable identifier for logging.
	Description() string

	// Close releases all underlying resources. Safe to call once, after
	// the reader loop has exited.
	Close() error
}

// NetworkOptions carries the protocol-aware tuning of spec.md §4.2. Not
// every option is honored by every Demuxer implementation — ReisenDemuxer
// applies none of the individual fields (see the note on Open in
// reisen_demuxer.go).
type NetworkOptions struct {
	Protocol int // mirrors avplay.Protocol without importing the root package

	DiscardCorrupt bool
	GeneratePTS    bool
	IgnoreDTS      bool

	AnalyzeDuration time.Duration // short probe: ~5s
	ProbeSizeBytes  int64         // short probe: ~10MB

	ConnectTimeout time.Duration // 8-15s range
	ReadTimeout    time.Duration

	AutoReconnect bool // HTTP

	HLSStartAtLatestSegment bool // false (-1) means VOD start
	HLSPersistentHTTP       bool
}

// DefaultNetworkOptions returns the recommended tuning of spec.md §4.2 for
// the given protocol.
func DefaultNetworkOptions(protocol int) NetworkOptions {
	return NetworkOptions{
		Protocol:                protocol,
		DiscardCorrupt:          true,
		GeneratePTS:             true,
		IgnoreDTS:               true,
		AnalyzeDuration:         5 * time.Second,
		ProbeSizeBytes:          10 * 1024 * 1024,
		ConnectTimeout:          8 * time.Second,
		ReadTimeout:             15 * time.Second,
		AutoReconnect:           true,
		HLSStartAtLatestSegment: true,
		HLSPersistentHTTP:       true,
	}
}
