package avplay

import "github.com/avplay/engine/internal/media"

// MediaInfo mirrors spec.md §3 "Media Info": captured once at open time,
// immutable thereafter.
type MediaInfo = media.Info

// VideoFrame, AudioFrame and SubtitleCue are the GUI/audio-sink facing
// value types of spec.md §3. They are aliases of the internal media
// package's types so every internal package can produce and consume them
// without importing the root package (which would create an import
// cycle, since the root package imports those internal packages).
type VideoFrame = media.VideoFrame
type AudioFrame = media.AudioFrame
type SubtitleCue = media.SubtitleCue
