// Package sink implements the audio output side of spec.md §6: a narrow
// AudioSink interface the Playback Controller depends on, and a default
// ebiten/audio-backed implementation grounded on the teacher's
// videoWithAudioController (controller_yes_audio.go), which drove its
// audio.Player through an io.Reader fed by a leftover-bytes buffer.
package sink

// AudioSink is the interface the controller uses to push decoded audio
// and read back playback position. Because the master clock is
// audio-slaved whenever audio is present (spec.md §4.4), Position is the
// most load-bearing method here: everything else is transport control.
type AudioSink interface {
	// Play starts or resumes output. Calling Play while already playing is
	// a no-op.
	Play() error
	// Pause halts output without discarding buffered frames.
	Pause() error
	// Close permanently releases the sink's resources.
	Close() error

	SetVolume(volume float64)
	GetVolume() float64
	SetMuted(muted bool)
	GetMuted() bool

	// Position reports the sink's own playback clock, in milliseconds
	// since the sink was created or last Reset. ok is false when the sink
	// has no sample rate to convert served samples into time.
	Position() (ms int64, ok bool)

	// Reset discards any buffered audio and rewinds the position clock to
	// 0, used by the seek protocol (spec.md §4.1 step 4).
	Reset()
}
