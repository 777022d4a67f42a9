package avplay

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/avplay/engine/internal/demux"
)

var ErrNoAudio = errors.New("media contains no audio")
var ErrNonNilAudioContext = errors.New("audio context already initialized")

// CreateAudioContextForMedia probes spec for its audio sample rate and
// creates the process-wide ebiten audio.Context to match it. ebiten only
// allows one audio.Context per process, so GUI shells that want audio
// playback must call this (or construct their own matching context) before
// Open()ing a controller with audio enabled.
func CreateAudioContextForMedia(spec string) error {
	if audio.CurrentContext() != nil {
		return ErrNonNilAudioContext
	}
	sampleRate, err := ProbeAudioSampleRate(spec)
	if err != nil {
		return err
	}
	_ = audio.NewContext(sampleRate)
	return nil
}

// ProbeAudioSampleRate opens spec just long enough to read its audio
// stream's sample rate, then closes it. Returns ErrNoAudio if the source
// has no decodable audio stream.
func ProbeAudioSampleRate(spec string) (int, error) {
	d, err := demux.Open(spec, nil, pkgLogger)
	if err != nil {
		return 0, fmt.Errorf("probe audio: %w", err)
	}
	defer d.Close()

	info := d.Info()
	if info.SampleRate == 0 {
		return 0, ErrNoAudio
	}
	return info.SampleRate, nil
}
