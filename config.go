package avplay

import (
	"github.com/avplay/engine/internal/demux"
)

// NetworkOptions is the public alias for the protocol-aware network
// tuning of spec.md §4.2, so callers outside this module can construct
// one for WithNetworkOptions without needing to reach into internal/demux.
type NetworkOptions = demux.NetworkOptions

// OpenOption configures a Controller at Open time. The functional-options
// shape follows the teacher's own keep-it-simple style (NewPlayer took a
// single ignoreAudio bool; this generalizes that single knob into a small,
// composable set without inventing a config struct callers have to zero
// out field by field).
type OpenOption func(*openConfig)

type openConfig struct {
	withoutAudio  bool
	looping       bool
	logger        Logger
	networkOpts   *demux.NetworkOptions
	subtitleDir   string
	preferSubLang string
}

// WithoutAudio disables audio decoding and sink creation entirely,
// equivalent to the teacher's NewPlayerWithoutAudio.
func WithoutAudio() OpenOption {
	return func(c *openConfig) { c.withoutAudio = true }
}

// WithLooping sets the controller's initial looping flag (see
// Controller.SetLooping: the flag is recorded but does not make playback
// restart at end of stream).
func WithLooping(looping bool) OpenOption {
	return func(c *openConfig) { c.looping = looping }
}

// WithLogger overrides the package-level logger for this controller only.
func WithLogger(logger Logger) OpenOption {
	return func(c *openConfig) { c.logger = logger }
}

// WithNetworkOptions overrides the default network tuning applied when
// the classified source is a NetworkStream. Ignored for local files.
func WithNetworkOptions(opts NetworkOptions) OpenOption {
	return func(c *openConfig) { c.networkOpts = &opts }
}

// WithExternalSubtitles points the controller at a directory to search
// for a matching external subtitle file at Open time (spec.md §6).
func WithExternalSubtitles(dir string) OpenOption {
	return func(c *openConfig) { c.subtitleDir = dir }
}

// WithPreferredSubtitleLanguage makes external-subtitle candidates whose
// filename contains this language tag sort first within their match tier.
func WithPreferredSubtitleLanguage(lang string) OpenOption {
	return func(c *openConfig) { c.preferSubLang = lang }
}

func resolveOpenConfig(opts []OpenOption) openConfig {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
