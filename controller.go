package avplay

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/avplay/engine/internal/avsync"
	"github.com/avplay/engine/internal/clock"
	"github.com/avplay/engine/internal/decode"
	"github.com/avplay/engine/internal/demux"
	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
	"github.com/avplay/engine/internal/seekreq"
	"github.com/avplay/engine/internal/sink"
	"github.com/avplay/engine/internal/subtitlefile"
	"github.com/avplay/engine/internal/telemetry"
)

// initialBufferWait bounds how long Open() waits for the first video
// frame to arrive before reporting Paused/ready, so a slow network probe
// doesn't hang the caller forever (spec.md §3 "Opening -> Buffering").
const initialBufferWait = 2 * time.Second

// A Controller is a complete playback session over one MediaSource: the
// Demuxer Reader, the Video/Audio/Subtitle Decoders, the master clock and
// the audio sink, wired together and exposed through the single surface
// the GUI shell drives (spec.md §4 "Playback Controller"). It supersedes
// the teacher's Player/videoController pair — where that pair dispatched
// to one of three synchronous, pull-based controllers selected at
// construction time, a Controller always runs the same concurrent
// pipeline and only varies by whether an audio sink was created.
type Controller struct {
	mu sync.Mutex

	log    Logger
	source MediaSource
	info   media.Info

	// openSpec/openCfg are retained so Play() can fully re-open the
	// pipeline after Stop() (spec.md §4.1: "if currently Stopped, first
	// re-opens the last source").
	openSpec string
	openCfg  openConfig

	demuxer demux.Demuxer
	reader  *demux.Reader
	group   *errgroup.Group

	videoPackets    *mediaqueue.PacketQueue
	audioPackets    *mediaqueue.PacketQueue
	subtitlePackets *mediaqueue.PacketQueue
	videoFrames     *mediaqueue.FrameQueue[*media.VideoFrame]
	audioFrames     *mediaqueue.FrameQueue[*media.AudioFrame]
	embeddedCues    *decode.SubtitleStore
	seekSlot        *seekreq.Slot

	videoDecoder    *decode.VideoDecoder
	audioDecoder    *decode.AudioDecoder
	subtitleDecoder *decode.SubtitleDecoder

	clk         *clock.Clock
	baselinePTS int64 // clock value the audio sink's own position clock is offset from

	audioSink sink.AudioSink
	hasAudio  bool

	state   PlaybackState
	looping bool

	currentVideoFrame *media.VideoFrame
	currentImage      *ebiten.Image
	onBlackFrame      bool

	externalCues *subtitlefile.CueStore

	closed bool
}

// Open probes spec, classifies it (local file vs. NetworkStream), and
// starts the full pipeline: Demuxer Reader plus Video/Audio/Subtitle
// Decoder goroutines. Open blocks in Buffering until the first video frame
// is available or initialBufferWait has elapsed, whichever comes first,
// and returns the Controller in Paused.
func Open(spec string, opts ...OpenOption) (*Controller, error) {
	cfg := resolveOpenConfig(opts)

	logger := cfg.logger
	if logger == nil {
		logger = pkgLogger
	}
	log := telemetry.Stream(telemetry.Component(logger, "controller"), spec)

	classified := ClassifySource(spec)
	if classified.IsNetwork && demux.IsRejectedYouTubePage(spec) {
		return nil, newOpenFailed("youtube page URLs are not playable media; resolve to a direct stream URL first", nil)
	}

	c := &Controller{
		log:      log,
		source:   classified,
		openSpec: spec,
		openCfg:  cfg,
		clk:      clock.New(),
		looping:  cfg.looping,
	}

	if searchPath := subtitleSearchPath(classified, cfg.subtitleDir); searchPath != "" {
		if cues, cerr := loadBestExternalSubtitles(searchPath, cfg.preferSubLang); cerr == nil && cues != nil {
			c.externalCues = cues
		}
	}

	c.mu.Lock()
	err := c.noLockStartPipeline()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.waitForInitialBuffer()
	c.mu.Lock()
	if c.state == Buffering {
		c.state = Paused
	}
	c.mu.Unlock()

	return c, nil
}

// noLockStartPipeline opens the demuxer for c.openSpec and spins up the
// Demuxer Reader and Video/Audio/Subtitle Decoder goroutines, leaving the
// controller in Buffering. The caller must hold c.mu; it is used both by
// Open() and by Play()'s stop->play restart (spec.md §4.1), so it assumes
// no pipeline fields are set (or have already been torn down by
// noLockStopToIdle) and does no locking or waiting of its own — callers
// unlock, call waitForInitialBuffer, then re-lock to settle into Paused.
func (c *Controller) noLockStartPipeline() error {
	classified := c.source

	var netOpts *demux.NetworkOptions
	if classified.IsNetwork {
		opts := demux.DefaultNetworkOptions(int(classified.Protocol))
		if c.openCfg.networkOpts != nil {
			opts = *c.openCfg.networkOpts
		}
		netOpts = &opts
	}

	d, err := demux.Open(c.openSpec, netOpts, c.log)
	if err != nil {
		if err == demux.ErrNoVideoStream {
			return newNoVideoStream(c.openSpec)
		}
		return newOpenFailed(c.openSpec, err)
	}

	_, audioIdx, _ := d.StreamIndices()

	c.info = d.Info()
	c.demuxer = d
	c.videoPackets = mediaqueue.NewPacketQueue(mediaqueue.VideoPacketCapacity)
	c.audioPackets = mediaqueue.NewPacketQueue(mediaqueue.AudioPacketCapacity)
	c.subtitlePackets = mediaqueue.NewPacketQueue(mediaqueue.SubtitlePacketCapacity)
	c.videoFrames = mediaqueue.NewFrameQueue[*media.VideoFrame](mediaqueue.VideoFrameSoftLimit, mediaqueue.VideoFrameHardLimit)
	c.audioFrames = mediaqueue.NewFrameQueue[*media.AudioFrame](mediaqueue.AudioFrameSoftLimit, mediaqueue.AudioFrameHardLimit)
	c.embeddedCues = decode.NewSubtitleStore()
	c.seekSlot = seekreq.NewSlot()
	c.baselinePTS = 0
	c.currentVideoFrame = nil
	c.onBlackFrame = true

	img := ebiten.NewImage(max(1, c.info.Width), max(1, c.info.Height))
	img.Fill(color.Black)
	c.currentImage = img

	c.hasAudio = false
	c.audioSink = nil
	if audioIdx >= 0 && !c.openCfg.withoutAudio {
		if s, serr := sink.NewEbitenSink(c.audioFrames, c.info.SampleRate, c.info.Channels); serr != nil {
			c.log.Printf("audio sink unavailable, continuing video-only: %v", serr)
		} else {
			c.audioSink = s
			c.hasAudio = true
		}
	}

	c.reader = demux.NewReader(d, c.videoPackets, c.audioPackets, c.subtitlePackets, classified.IsNetwork, c.log)
	c.videoDecoder = decode.NewVideoDecoder(c.videoPackets, c.videoFrames, c.seekSlot, c.log)
	c.audioDecoder = decode.NewAudioDecoder(c.audioPackets, c.audioFrames, c.seekSlot, c.log)
	c.subtitleDecoder = decode.NewSubtitleDecoder(c.subtitlePackets, c.embeddedCues, c.log)

	reader, videoDecoder, audioDecoder, subtitleDecoder := c.reader, c.videoDecoder, c.audioDecoder, c.subtitleDecoder
	var eg errgroup.Group
	eg.Go(func() error { reader.Run(); return nil })
	eg.Go(func() error { videoDecoder.Run(); return nil })
	eg.Go(func() error { audioDecoder.Run(); return nil })
	eg.Go(func() error { subtitleDecoder.Run(); return nil })
	c.group = &eg

	c.state = Buffering
	return nil
}

// subtitleSearchPath resolves the video-shaped path subtitlefile.Discover
// needs: the local file's own path by default, or that file's name
// relocated into an explicitly configured subtitle directory (so
// WithExternalSubtitles also works for NetworkStream sources, which have
// no local Path of their own).
func subtitleSearchPath(source MediaSource, subtitleDir string) string {
	if subtitleDir == "" {
		return source.Path
	}
	name := "stream"
	if source.Path != "" {
		name = filepath.Base(source.Path)
	}
	return filepath.Join(subtitleDir, name)
}

func loadBestExternalSubtitles(videoOrDir, preferLang string) (*subtitlefile.CueStore, error) {
	candidates, err := subtitlefile.Discover(videoOrDir, preferLang)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}
	cues, err := subtitlefile.LoadFile(candidates[0].Path)
	if err != nil {
		return nil, err
	}
	return subtitlefile.NewCueStore(cues), nil
}

func (c *Controller) waitForInitialBuffer() {
	deadline := time.Now().Add(initialBufferWait)
	for time.Now().Before(deadline) {
		if c.videoFrames.Len() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Play starts or resumes playback. A no-op if already Playing. If the
// controller is Stopped, it first re-opens the last source and waits for
// the initial buffer exactly as Open() does (spec.md §4.1).
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.state == Playing {
		c.mu.Unlock()
		return nil
	}
	if c.state == Error {
		err := fmt.Errorf("cannot play from state %s", c.state)
		c.mu.Unlock()
		return err
	}
	if c.state == Stopped {
		if err := c.noLockStartPipeline(); err != nil {
			c.mu.Unlock()
			return err
		}
		c.mu.Unlock()
		c.waitForInitialBuffer()
		c.mu.Lock()
		if c.state == Buffering {
			c.state = Paused
		}
	}

	c.clk.Play()
	if c.hasAudio {
		if err := c.audioSink.Play(); err != nil {
			c.mu.Unlock()
			return newAudioSinkError("play", err)
		}
	}
	c.state = Playing
	c.mu.Unlock()
	return nil
}

// Pause halts playback, preserving position. A no-op if not Playing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return nil
	}
	c.clk.Pause()
	if c.hasAudio {
		if err := c.audioSink.Pause(); err != nil {
			return newAudioSinkError("pause", err)
		}
	}
	c.state = Paused
	return nil
}

// Stop fully tears the pipeline down: it signals the Demuxer Reader and
// every decoder to exit, joins them, and releases the demuxer and audio
// sink, leaving no engine goroutine alive (spec.md §4.1 invariant 4).
// Play() after Stop re-opens the same source and restarts from position 0.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.noLockStopToIdle()
}

func (c *Controller) noLockStopToIdle() error {
	if c.state == Stopped {
		return nil
	}

	c.clk.Pause()
	if c.hasAudio && c.audioSink != nil {
		c.audioSink.Pause()
	}

	if c.reader != nil {
		c.reader.Stop()
	}
	if c.videoDecoder != nil {
		c.videoDecoder.Stop()
	}
	if c.audioDecoder != nil {
		c.audioDecoder.Stop()
	}
	// A decoder leaving its backoff wait stops consuming packets, so empty
	// the packet queues: a reader blocked on a full queue can then finish
	// its send and reach the Stop command.
	if c.videoPackets != nil {
		c.videoPackets.Drain()
		c.audioPackets.Drain()
		c.subtitlePackets.Drain()
	}
	if c.group != nil {
		_ = c.group.Wait()
	}

	if c.hasAudio && c.audioSink != nil {
		if err := c.audioSink.Close(); err != nil {
			c.log.Printf("stop: audio sink close failed: %v", err)
		}
	}
	if c.demuxer != nil {
		if err := c.demuxer.Close(); err != nil {
			c.log.Printf("stop: demuxer close failed: %v", err)
		}
	}

	c.reader = nil
	c.videoDecoder = nil
	c.audioDecoder = nil
	c.subtitleDecoder = nil
	c.group = nil
	c.demuxer = nil
	c.audioSink = nil
	c.hasAudio = false

	c.videoPackets = nil
	c.audioPackets = nil
	c.subtitlePackets = nil
	c.videoFrames = nil
	c.audioFrames = nil
	c.embeddedCues = nil
	c.seekSlot = nil

	c.clk.SetTime(0)
	c.baselinePTS = 0
	c.currentVideoFrame = nil
	c.noLockCopyBlackFrame()

	c.state = Stopped
	return nil
}

// Close permanently shuts down the pipeline and marks the Controller
// unusable afterwards. It is the same full teardown Stop performs, plus
// the closed latch that makes repeated calls safe no-ops.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.noLockStopToIdle()
}

// Seek moves playback to targetMs, per the protocol of spec.md §4.1:
// pre-set the clock so position readouts update immediately, publish a
// SeekRequest the decoders use to filter stale frames, flush every queue,
// and ask the Demuxer Reader to reposition the underlying stream.
func (c *Controller) Seek(targetMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.demuxer == nil {
		return fmt.Errorf("cannot seek while stopped")
	}
	if !c.demuxer.IsSeekable() {
		return newSeekUnsupported(c.source.String())
	}
	if targetMs < 0 {
		targetMs = 0
	}
	if c.info.DurationMs > 0 && targetMs > c.info.DurationMs {
		targetMs = c.info.DurationMs
	}

	resumeState := c.state
	c.state = Seeking

	c.clk.SetTime(targetMs)
	c.baselinePTS = targetMs
	c.seekSlot.Publish(targetMs)

	c.videoFrames.Drain()
	c.audioFrames.Drain()
	c.videoPackets.Drain()
	c.audioPackets.Drain()
	c.subtitlePackets.Drain()
	c.embeddedCues.Drain()
	if c.hasAudio {
		c.audioSink.Reset()
	}
	c.currentVideoFrame = nil

	c.reader.Seek(targetMs)

	switch resumeState {
	case Playing:
		c.clk.Play()
		c.state = Playing
	default:
		c.clk.Pause()
		c.state = Paused
	}
	return nil
}

// SetVolume sets playback volume in [0, 1]. A no-op if the source has no
// audio.
func (c *Controller) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasAudio {
		c.audioSink.SetVolume(volume)
	}
}

// GetVolume returns the current volume, or 0 if the source has no audio.
func (c *Controller) GetVolume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasAudio {
		return 0
	}
	return c.audioSink.GetVolume()
}

// SetMuted mutes or unmutes audio without touching the stored volume, so
// unmuting restores exactly the previous level (spec.md supplemented
// feature: mute independent of volume).
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasAudio {
		c.audioSink.SetMuted(muted)
	}
}

// GetMuted reports whether audio is muted. Sources without audio always
// report true.
func (c *Controller) GetMuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasAudio {
		return true
	}
	return c.audioSink.GetMuted()
}

// SetRate changes the playback speed. Because the master clock is
// audio-slaved whenever audio is present, changing rate on an audio
// source is only honored up to what the sink supports; video-only
// sources honor any positive rate.
func (c *Controller) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clk.SetRate(rate)
}

// GetRate returns the current playback rate.
func (c *Controller) GetRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clk.Rate()
}

// SetLooping records the looping flag reported by GetLooping. The flag is
// not passed to the Demuxer Reader: at end of stream playback does not
// return to the start, whatever its value.
func (c *Controller) SetLooping(looping bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.looping = looping
}

// GetLooping reports whether looping is enabled.
func (c *Controller) GetLooping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.looping
}

// HasAudio reports whether this source has a usable audio stream and
// sink.
func (c *Controller) HasAudio() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasAudio
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noLockCheckFailure()
	c.noLockSyncClockFromAudio()
	return c.state
}

// noLockCheckFailure promotes the controller into Error once the Demuxer
// Reader has reported an unrecoverable stream failure (spec.md §7:
// "Stream-fatal errors set PlaybackState = Error and the GUI must observe
// via state()"). Stopped/already-Error are left alone: Stop() always wins
// over a stale failure report from a reader that has since been torn down.
func (c *Controller) noLockCheckFailure() {
	if c.reader == nil || c.state == Stopped || c.state == Error {
		return
	}
	if c.reader.StreamState().Kind == demux.StreamFailed {
		c.state = Error
	}
}

// PositionMs returns the current playback position in milliseconds.
func (c *Controller) PositionMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noLockSyncClockFromAudio()
	return c.clk.Now()
}

// DurationMs returns the media's total duration, or 0 for live sources.
func (c *Controller) DurationMs() int64 { return c.info.DurationMs }

// MediaInfo returns the static metadata captured at Open time.
func (c *Controller) MediaInfo() MediaInfo { return c.info }

// noLockSyncClockFromAudio re-anchors the master clock to the audio
// sink's own playback position, mirroring the teacher's
// firstAudioFrameOffsetOnPlay + audioPlayer.Position() computation
// (controller_yes_audio.go's noLockPosition) — the clock never free-runs
// ahead of what the sink has actually played.
func (c *Controller) noLockSyncClockFromAudio() {
	if !c.hasAudio || c.clk.IsPaused() {
		return
	}
	if ms, ok := c.audioSink.Position(); ok {
		c.clk.SetTime(c.baselinePTS + ms)
		c.clk.Play()
	}
}

// CurrentVideoFrame returns the video frame that should be on screen at
// the current playback position, applying the three-tier sync policy of
// spec.md §4.5. The returned frame is nil before the first frame has ever
// arrived, or once the pipeline has been torn down by Stop.
func (c *Controller) CurrentVideoFrame() *VideoFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noLockSyncClockFromAudio()
	if c.videoFrames == nil {
		return c.currentVideoFrame
	}
	now := c.clk.Now()
	c.currentVideoFrame = avsync.CurrentFrameFor(c.videoFrames, c.currentVideoFrame, now)
	return c.currentVideoFrame
}

// CurrentVideoImage returns the current frame uploaded into a reusable
// *ebiten.Image, ready to hand to Draw. This is the direct analogue of
// the teacher's Player.CurrentFrame, generalized to pull from the
// decoder pipeline instead of reading a reisen frame synchronously.
func (c *Controller) CurrentVideoImage() (*ebiten.Image, error) {
	frame := c.CurrentVideoFrame()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.noLockCopyFrame(frame)
	return c.currentImage, nil
}

// NextVideoFrame advances exactly one video frame while paused, for
// frame-by-frame inspection (spec.md supplemented feature). It is an
// error to call this while Playing.
func (c *Controller) NextVideoFrame() (*ebiten.Image, error) {
	c.mu.Lock()
	if c.state == Playing {
		c.mu.Unlock()
		return nil, fmt.Errorf("NextVideoFrame requires the controller to be paused")
	}
	if c.videoFrames != nil {
		if frame, ok := c.videoFrames.PopFront(); ok {
			c.currentVideoFrame = frame
			c.clk.SetTime(frame.PTSMs)
			c.baselinePTS = frame.PTSMs
		}
	}
	c.noLockCopyFrame(c.currentVideoFrame)
	img := c.currentImage
	c.mu.Unlock()
	return img, nil
}

func (c *Controller) noLockCopyFrame(frame *media.VideoFrame) {
	if frame == nil {
		if !c.onBlackFrame {
			c.currentImage.Fill(color.Black)
			c.onBlackFrame = true
		}
		return
	}
	c.currentImage.WritePixels(frame.Data)
	c.onBlackFrame = false
}

func (c *Controller) noLockCopyBlackFrame() { c.noLockCopyFrame(nil) }

// CurrentSubtitle returns the subtitle cue, if any, covering the current
// playback position. Cues decoded from the source's own embedded
// subtitle stream (internal/decode.SubtitleDecoder) take priority, per
// internal/avsync.CurrentSubtitle's embedded-first selection; an external
// subtitle file loaded at Open (or via LoadExternalSubtitles) is only
// consulted when no embedded cue covers the position.
func (c *Controller) CurrentSubtitle() (SubtitleCue, bool) {
	c.mu.Lock()
	nowMs := c.clk.Now()
	embedded := c.embeddedCues
	external := c.externalCues
	c.mu.Unlock()

	var embeddedSnapshot []media.SubtitleCue
	if embedded != nil {
		embeddedSnapshot = embedded.Snapshot()
	}
	if cue, ok := avsync.CurrentSubtitle(embeddedSnapshot, nil, nowMs); ok {
		return cue, true
	}
	if external == nil {
		return SubtitleCue{}, false
	}
	return external.At(nowMs)
}

// LoadExternalSubtitles replaces the active external subtitle track with
// the contents of path, parsed by extension (.srt/.ass/.ssa/.vtt).
func (c *Controller) LoadExternalSubtitles(path string) error {
	cues, err := subtitlefile.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load external subtitles: %w", err)
	}
	c.mu.Lock()
	c.externalCues = subtitlefile.NewCueStore(cues)
	c.mu.Unlock()
	return nil
}

// StreamState reports the network connectivity state for NetworkStream
// sources. Local files always report StreamPlaying once Buffering
// completes. Reports StreamDisconnected once Stop has torn the reader
// down.
func (c *Controller) StreamState() StreamState {
	c.mu.Lock()
	isNetwork := c.source.IsNetwork
	reader := c.reader
	c.mu.Unlock()
	if !isNetwork {
		return StreamState{Kind: StreamPlaying}
	}
	if reader == nil {
		return StreamState{Kind: StreamDisconnected}
	}
	rs := reader.StreamState()
	return StreamState{Kind: StreamStateKind(rs.Kind), Progress: rs.Progress, Attempt: rs.Attempt, Reason: rs.Reason}
}
