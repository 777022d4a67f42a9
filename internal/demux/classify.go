package demux

import "strings"

// Protocol constants mirror avplay.Protocol's values exactly (see
// source.go at the repo root) so callers can cast freely; duplicated here
// (rather than imported) because the root package depends on this one and
// a back-reference would cycle.
const (
	ProtoNone = iota
	ProtoRTSP
	ProtoRTMP
	ProtoHLS
	ProtoHTTP
)

// ClassifiedSource is the result of Classify: either a local path or a
// network URL with its detected protocol.
type ClassifiedSource struct {
	Path      string
	URL       string
	Protocol  int
	IsNetwork bool
}

// Classify applies the classification rule of spec.md §3 to a raw source
// string.
func Classify(spec string) ClassifiedSource {
	lower := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lower, "rtsp://"):
		return ClassifiedSource{URL: spec, Protocol: ProtoRTSP, IsNetwork: true}
	case strings.HasPrefix(lower, "rtmp://"):
		return ClassifiedSource{URL: spec, Protocol: ProtoRTMP, IsNetwork: true}
	case strings.HasSuffix(lower, ".m3u8") || strings.Contains(lower, "/hls/"):
		return ClassifiedSource{URL: spec, Protocol: ProtoHLS, IsNetwork: true}
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return ClassifiedSource{URL: spec, Protocol: ProtoHTTP, IsNetwork: true}
	default:
		return ClassifiedSource{Path: spec}
	}
}

// IsRejectedYouTubePage reports whether spec is a YouTube *page* URL (as
// opposed to a direct media URL), which open() must reject with an
// explanatory OpenFailed error per spec.md §4.2.
func IsRejectedYouTubePage(spec string) bool {
	lower := strings.ToLower(spec)
	if !strings.Contains(lower, "youtube.com/watch") && !strings.Contains(lower, "youtu.be/") {
		return false
	}
	// direct googlevideo.com CDN URLs (what a resolver would hand back)
	// are not page URLs even though they came from YouTube.
	return !strings.Contains(lower, "googlevideo.com")
}
