// Package engine implements the Control Surface (spec.md §4.F): the
// host-visible API for initialization, command retrieval, voice-activity
// polling, pull-mode recording, push-mode playback, and runtime tuning of
// AEC parameters. It owns the process-scoped Context and the capture/detect
// loop goroutines.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"voicecore/internal/audio"
	"voicecore/internal/capture"
	"voicecore/internal/command"
	"voicecore/internal/config"
	"voicecore/internal/detect"
	"voicecore/internal/frontend"
	"voicecore/internal/pipeline"
	"voicecore/internal/playback"
	"voicecore/internal/pulse"
)

// Sentinel errors surfaced synchronously to the host, per spec.md §7's
// configuration-error and resource-acquisition-error categories.
var (
	ErrNotInitialized  = errors.New("engine: not initialized")
	ErrInvalidParameter = errors.New("engine: invalid parameter")
)

// Options configures Init beyond the AEC/buffer defaults already carried in
// config.Config.
type Options struct {
	CaptureDeviceID  int // -1 selects the system default
	PlaybackDeviceID int // -1 selects the system default
	Vocabulary       command.Vocabulary
}

// DefaultOptions returns Options with default devices and vocabulary.
func DefaultOptions() Options {
	return Options{
		CaptureDeviceID:  -1,
		PlaybackDeviceID: -1,
		Vocabulary:       command.DefaultVocabulary(),
	}
}

// Engine is the Control Surface. The zero value is not initialized; use
// New.
type Engine struct {
	mu          sync.Mutex
	ctx         *pipeline.Context
	initialized bool
}

// New returns an uninitialized Engine.
func New() *Engine {
	return &Engine{}
}

// Init is idempotent: a second call while already initialized returns nil
// immediately. It allocates the ring buffers, opens the capture and
// playback channels, creates the front-end and model, and starts the
// capture and detect loops. On any sub-step failure, partially-allocated
// state is torn down before returning the failure.
func (e *Engine) Init(cfg config.Config, opts Options) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if err := audio.Init(); err != nil {
		return fmt.Errorf("engine: init portaudio: %w", err)
	}

	capChan, err := audio.OpenCapture(opts.CaptureDeviceID, cfg.SampleRate, cfg.FeedChunkize)
	if err != nil {
		audio.Terminate()
		return fmt.Errorf("engine: open capture channel: %w", err)
	}

	pb, err := audio.OpenPlayback(opts.PlaybackDeviceID, cfg.SampleRate, cfg.PlaybackChunkSamples)
	if err != nil {
		capChan.Stop()
		capChan.Close()
		audio.Terminate()
		return fmt.Errorf("engine: open playback channel: %w", err)
	}

	var pulser *pulse.Pulser
	if cfg.Pins.PulseChip != "" {
		pulser, err = pulse.Open(cfg.Pins.PulseChip, cfg.Pins.PulseLine)
		if err != nil {
			// The pulse line is a convenience signal, not required for the
			// audio pipeline itself; log and continue without it.
			log.Printf("engine: pulse line unavailable, continuing without it: %v", err)
			pulser = nil
		}
	}

	vocab := opts.Vocabulary
	if vocab.Len() == 0 {
		vocab = command.DefaultVocabulary()
	}

	ctx := pipeline.New(cfg)
	ctx.Capture = capChan
	ctx.Playback = pb
	ctx.Frontend = frontend.New()
	ctx.Model = command.NewEnergyMatcher(vocab)
	ctx.Vocab = vocab
	ctx.Pulser = pulser
	ctx.StopCapture = make(chan struct{})
	ctx.StopDetect = make(chan struct{})

	ctx.CaptureRunning.Store(true)
	ctx.DetectRunning.Store(true)
	ctx.WG.Add(2)
	go capture.Run(ctx)
	go detect.Run(ctx)

	e.ctx = ctx
	e.initialized = true
	return nil
}

// Cleanup signals all loops to stop, waits bounded time, releases hardware
// channels, and frees buffers. Safe to call when not initialized.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return
	}
	ctx := e.ctx

	close(ctx.StopCapture)
	close(ctx.StopDetect)
	if ctx.PlaybackRunning.Load() {
		stopPlaybackLocked(ctx)
	}

	waitBounded(&ctx.WG, 2*time.Second)

	ctx.Capture.Stop()
	ctx.Capture.Close()
	ctx.Playback.Stop()
	ctx.Playback.Close()
	if ctx.Pulser != nil {
		ctx.Pulser.Close()
	}
	audio.Terminate()

	e.ctx = nil
	e.initialized = false
}

func waitBounded(wg *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

// Listen dequeues one Recognition Result, blocking for at most timeout. It
// returns a ResultTimeout result if the queue stays empty for the whole
// timeout.
func (e *Engine) Listen(timeout time.Duration) (command.Result, error) {
	e.mu.Lock()
	ctx := e.ctx
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return command.Result{}, ErrNotInitialized
	}

	select {
	case res := <-ctx.Results:
		return res, nil
	case <-time.After(timeout):
		return command.Result{Kind: command.ResultTimeout}, nil
	}
}

// GetCommands returns the id → phrase mapping for the active vocabulary.
func (e *Engine) GetCommands() (map[int]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return e.ctx.Vocab.Commands(), nil
}

// FeedReference writes samples directly into the reference store, for use
// when the host drives playback externally instead of through
// StartPlayback/FeedPlayback.
func (e *Engine) FeedReference(samples []int16) error {
	e.mu.Lock()
	ctx := e.ctx
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}

	ctx.RefMu.Lock()
	ctx.Ref.Write(samples)
	ctx.RefMu.Unlock()
	return nil
}

// StartRecording enables the capture loop's side-tap into the recording
// ring, clearing any previously recorded audio.
func (e *Engine) StartRecording() error {
	e.mu.Lock()
	ctx := e.ctx
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}

	ctx.RecordMu.Lock()
	ctx.Record.Clear()
	ctx.RecordMu.Unlock()
	ctx.RecordingEnabled.Store(true)
	return nil
}

// StopRecording disables the capture loop's side-tap.
func (e *Engine) StopRecording() error {
	e.mu.Lock()
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}
	e.ctx.RecordingEnabled.Store(false)
	return nil
}

// ReadAudio performs a non-blocking pull from the recording ring, copying
// up to len(buf) bytes of little-endian PCM16 samples and returning the
// number of bytes copied.
func (e *Engine) ReadAudio(buf []byte) (int, error) {
	e.mu.Lock()
	ctx := e.ctx
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return 0, ErrNotInitialized
	}

	maxSamples := len(buf) / 2
	samples := make([]int16, maxSamples)

	ctx.RecordMu.Lock()
	n := ctx.Record.Read(samples)
	ctx.RecordMu.Unlock()

	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(samples[i]))
	}
	return n * 2, nil
}

// StartPlayback clears the playback ring and spawns the playback loop.
func (e *Engine) StartPlayback() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	ctx := e.ctx
	if ctx.PlaybackRunning.Load() {
		return nil
	}

	ctx.PlaybackMu.Lock()
	ctx.PlaybackBuf.Clear()
	ctx.PlaybackMu.Unlock()

	ctx.StopPlayback = make(chan struct{})
	ctx.PlaybackDone = make(chan struct{})
	ctx.PlaybackRunning.Store(true)
	ctx.WG.Add(1)
	go playback.Run(ctx)
	return nil
}

// StopPlayback signals the playback loop to stop and waits bounded for it
// to exit.
func (e *Engine) StopPlayback() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	if !e.ctx.PlaybackRunning.Load() {
		return nil
	}
	stopPlaybackLocked(e.ctx)
	return nil
}

func stopPlaybackLocked(ctx *pipeline.Context) {
	select {
	case <-ctx.StopPlayback:
		// already closed
	default:
		close(ctx.StopPlayback)
	}
	select {
	case <-ctx.PlaybackDone:
	case <-time.After(2 * time.Second):
	}
}

// IsPlaybackRunning reports whether the playback loop is currently active.
func (e *Engine) IsPlaybackRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return false
	}
	return e.ctx.PlaybackRunning.Load()
}

// FeedPlayback performs a non-blocking push of data into the playback ring
// under the block policy, returning the number of bytes accepted (short on
// full).
func (e *Engine) FeedPlayback(data []byte) (int, error) {
	e.mu.Lock()
	ctx := e.ctx
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return 0, ErrNotInitialized
	}

	ctx.PlaybackMu.Lock()
	n := ctx.PlaybackBuf.Write(data)
	ctx.PlaybackMu.Unlock()
	return n, nil
}

// CheckVAD snapshots the VAD "speaking" flag.
func (e *Engine) CheckVAD() (bool, error) {
	e.mu.Lock()
	ctx := e.ctx
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return false, ErrNotInitialized
	}
	return ctx.VAD.Get(), nil
}

// SetAECParams atomically updates delay, gain, and energy-ratio under the
// reference-manager mutex and clears phase-initialization.
func (e *Engine) SetAECParams(delayMS, gainShift, energyRatio int) error {
	e.mu.Lock()
	ctx := e.ctx
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}
	if delayMS < 0 || energyRatio < 0 {
		return ErrInvalidParameter
	}

	delaySamples := delayMS * ctx.Cfg.SampleRate / 1000
	ctx.RefMu.Lock()
	ctx.Ref.Reconfigure(delaySamples, gainShift)
	ctx.EnergyRatio.Store(int64(energyRatio))
	ctx.RefMu.Unlock()
	return nil
}
