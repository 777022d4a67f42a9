package avplay

import "github.com/avplay/engine/internal/demux"

// Protocol identifies the wire protocol of a NetworkStream source.
type Protocol uint8

const (
	ProtocolNone Protocol = iota
	ProtocolRTSP
	ProtocolRTMP
	ProtocolHLS
	ProtocolHTTP
)

func (p Protocol) String() string {
	switch p {
	case ProtocolRTSP:
		return "RTSP"
	case ProtocolRTMP:
		return "RTMP"
	case ProtocolHLS:
		return "HLS"
	case ProtocolHTTP:
		return "HTTP"
	default:
		return "None"
	}
}

// MediaSource is the tagged variant of §3: either a local file path or a
// network stream with a classified protocol.
type MediaSource struct {
	Path      string   // set when !IsNetwork
	URL       string   // set when IsNetwork
	Protocol  Protocol // ProtocolNone when !IsNetwork
	IsNetwork bool
}

// String returns the spec string used for this source (path or URL).
func (m MediaSource) String() string {
	if m.IsNetwork {
		return m.URL
	}
	return m.Path
}

// ClassifySource applies the classification rule of spec.md §3 to a raw
// source string typed by a user or passed from a GUI shell's "open" dialog.
// The actual rule lives in internal/demux (demux.Classify), next to the
// protocol constants it returns, so internal packages can use it without
// importing this package back.
func ClassifySource(spec string) MediaSource {
	c := demux.Classify(spec)
	if !c.IsNetwork {
		return MediaSource{Path: c.Path}
	}
	return MediaSource{URL: c.URL, Protocol: Protocol(c.Protocol), IsNetwork: true}
}
