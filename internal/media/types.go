// Package media defines the engine's core data model (spec.md §3): the
// immutable value types that flow from demuxer to decoders to queues to the
// GUI-facing pull interface. It has no dependencies on any other engine
// package so every other package (clock, mediaqueue, demux, decode,
// avsync, the public facade) can depend on it without creating cycles.
package media

// PacketType tags which elementary stream a Packet belongs to.
type PacketType uint8

const (
	PacketVideo PacketType = iota
	PacketAudio
	PacketSubtitle
)

// Packet is the unit carried on the bounded queues between the Demuxer
// Reader and a decoder (spec.md §3 "Packet"). For reisen-backed sources,
// packet-read and frame-decode are a single coupled call on the library's
// Media/Stream objects (see internal/demux/reisen_demuxer.go), so by the
// time a Packet reaches this shape it already carries decoded raw
// payload — Payload is raw RGBA8 pixel bytes for video or raw
// sample bytes (reisen's negotiated format, packed float32) for audio.
// The decoder stage (internal/decode) still owns normalization,
// seek-filtering, flush and backoff: it treats Payload as opaque bytes to
// repack, exactly as it would treat a truly-undecoded compressed payload
// from a demuxer whose library does separate the two steps.
type Packet struct {
	StreamIndex int
	Type        PacketType
	PTSMs       int64
	Payload     []byte

	// Set for PacketVideo.
	Width, Height int
	// Set for PacketAudio.
	SampleRate, Channels int
	// Set for PacketSubtitle: the cue's display length. Payload is the
	// cue text as decoded from the subtitle frame, markup included;
	// internal/decode's SubtitleDecoder strips it.
	DurationMs int64
}

// PixelFormat is always RGBA8 per spec.md §3; kept as a named type in case
// a future GPU path adds others.
type PixelFormat uint8

const PixelFormatRGBA8 PixelFormat = 0

// VideoFrame is an immutable decoded video frame, row-major RGBA8 with no
// stride padding (len(Data) == 4*Width*Height).
type VideoFrame struct {
	PTSMs  int64
	Width  int
	Height int
	Format PixelFormat
	Data   []byte
}

// AudioFrame is an immutable decoded, resampled/remixed audio frame:
// packed float32 interleaved samples, len(Samples) == frameSamples*Channels.
type AudioFrame struct {
	PTSMs      int64
	SampleRate int
	Channels   int
	Samples    []float32
}

// SubtitleCue is a single subtitle entry, from either an embedded stream
// (decoded on demand) or an external file (pre-sorted by StartMs).
type SubtitleCue struct {
	StartMs int64
	EndMs   int64
	Text    string // UTF-8, possibly multiline
}

// Info is the immutable media metadata captured once at open time
// (spec.md §3 "Media Info").
type Info struct {
	DurationMs int64
	Width      int
	Height     int
	FPS        float64
	VideoCodec string
	AudioCodec string
	SampleRate int
	Channels   int
}
