// Package pipeline holds the process-scoped mutable state shared by the
// capture, detect, and playback loops: the four ring buffers, the VAD state
// cell, and the handles to the capture/playback channels, front-end, model,
// and pulse output. It is the "single process-scoped context object created
// by init and destroyed by cleanup" that every loop and control-surface
// operation takes explicitly, rather than free-standing globals.
package pipeline

import (
	"sync"
	"sync/atomic"

	"voicecore/internal/audio"
	"voicecore/internal/command"
	"voicecore/internal/config"
	"voicecore/internal/frontend"
	"voicecore/internal/pulse"
	"voicecore/internal/reference"
	"voicecore/internal/ring"
)

// VADState is the mutex-guarded "speaking" flag the detect loop writes and
// the host polls via check_vad.
type VADState struct {
	mu       sync.Mutex
	speaking bool
}

// Set updates the speaking flag.
func (v *VADState) Set(speaking bool) {
	v.mu.Lock()
	v.speaking = speaking
	v.mu.Unlock()
}

// Get returns an instantaneous snapshot of the speaking flag.
func (v *VADState) Get() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.speaking
}

// FrontendFrame is what the capture loop hands the detect loop after
// running one interleaved frame through the front-end: the cleaned samples,
// the front-end's raw VAD bit, and the energies the capture loop cached for
// the detect loop's suppression logic.
type FrontendFrame struct {
	Clean     []int16
	VAD       bool
	MicEnergy int64
	RefEnergy int64
	RefActive bool
}

// Context is the process-wide state created by engine.Init and destroyed by
// engine.Cleanup.
type Context struct {
	Cfg config.Config

	Capture  audio.CaptureChannel
	Playback audio.PlaybackChannel
	Frontend frontend.Frontend
	Model    command.Model
	Vocab    command.Vocabulary
	Pulser   *pulse.Pulser

	RefMu sync.Mutex
	Ref   *reference.Manager

	RecordMu         sync.Mutex
	Record           *ring.Ring[int16]
	RecordingEnabled atomic.Bool

	PlaybackMu  sync.Mutex
	PlaybackBuf *ring.Ring[byte]

	// FrontendOut is the channel standing in for the front-end's own
	// internal queue: the capture loop sends one FrontendFrame per
	// interleaved frame it submits; the detect loop blocks receiving from
	// it, exactly as spec.md's "pull the next processed frame from the
	// front-end (blocking)" describes.
	FrontendOut chan FrontendFrame

	Results chan command.Result

	VAD       VADState
	MicEnergy atomic.Int64
	RefEnergy atomic.Int64
	RefActive atomic.Bool
	EnergyRatio atomic.Int64

	CaptureRunning  atomic.Bool
	DetectRunning   atomic.Bool
	PlaybackRunning atomic.Bool

	StopCapture  chan struct{}
	StopDetect   chan struct{}
	StopPlayback chan struct{}
	PlaybackDone chan struct{}

	WG sync.WaitGroup

	DroppedFrontend atomic.Uint64
	DroppedResults  atomic.Uint64

	// FeedCount and RefActiveFeeds are the capture loop's own diagnostic
	// counters, grounded on modespsr.c's g_feed_count/g_ref_active_feeds.
	FeedCount      atomic.Uint64
	RefActiveFeeds atomic.Uint64
}

// New allocates a Context's ring buffers, channels, and mutable state from
// cfg. It does not open hardware channels or start any loop — that is
// engine.Init's job.
func New(cfg config.Config) *Context {
	ctx := &Context{
		Cfg:         cfg,
		Ref:         reference.New(cfg.ReferenceBufferSamples, cfg.DelaySamples(), cfg.GainShift, cfg.FreshnessTimeout),
		Record:      ring.New[int16](cfg.RecordingBufferSamples, ring.Overwrite),
		PlaybackBuf: ring.New[byte](cfg.PlaybackBufferBytes, ring.Block),
		FrontendOut: make(chan FrontendFrame, 4),
		Results:     make(chan command.Result, cfg.ResultQueueDepth),
	}
	ctx.EnergyRatio.Store(int64(cfg.EnergyThresholdRatio))
	return ctx
}
