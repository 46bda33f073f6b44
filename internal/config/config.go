// Package config holds the process's build/deployment configuration: AEC
// defaults, buffer sizing, sample format constants, and board pin
// assignments. Session state (ring contents, VAD state, recognition
// results) is explicitly process-lifetime only and has no counterpart
// here — there is no disk persistence in this package.
package config

import "time"

// PinConfig names the hardware pins the capture/playback channels bind to.
// It configures, rather than drives, the hardware binding layer that is out
// of scope for this module.
type PinConfig struct {
	// PDM capture.
	PDMClockPin int
	PDMDataPin  int

	// Standard serial audio (I2S-style) playback, right-slot mono.
	TXBitClockPin  int
	TXWordSelectPin int
	TXDataOutPin   int

	// GPIO line used for the one-shot external pulse.
	PulseChip string
	PulseLine int
}

// Config is the full set of defaults and board wiring for one process.
type Config struct {
	// Sample format.
	SampleRate   int // Hz
	FeedChunkize int // samples per capture/front-end frame

	// AEC defaults (spec.md §6).
	DelayMS                int
	GainShift              int
	EnergyThresholdRatio   int
	VADDebounceNeeded      int
	VADMode                int
	FreshnessTimeout       time.Duration
	IdleTimeout            time.Duration

	// Buffer sizing (spec.md §4.F).
	RecordingBufferSamples int
	ReferenceBufferSamples int
	PlaybackBufferBytes    int
	ResultQueueDepth       int

	// Playback chunking (spec.md §4.E).
	PlaybackChunkSamples int

	Pins PinConfig
}

// Default returns the configuration named in spec.md §6, plus the
// idle-timeout value grounded on the original firmware's playback loop
// constant.
func Default() Config {
	return Config{
		SampleRate:   16000,
		FeedChunkize: 512,

		DelayMS:              30,
		GainShift:            1,
		EnergyThresholdRatio: 8,
		VADDebounceNeeded:    6,
		VADMode:              0,
		FreshnessTimeout:     100 * time.Millisecond,
		IdleTimeout:          8000 * time.Millisecond,

		RecordingBufferSamples: 16000 * 10,
		ReferenceBufferSamples: 16000 * 3,
		PlaybackBufferBytes:    128 * 1024,
		ResultQueueDepth:       10,

		PlaybackChunkSamples: 480, // 30 ms at 16 kHz

		Pins: PinConfig{
			PDMClockPin:     32,
			PDMDataPin:      33,
			TXBitClockPin:   26,
			TXWordSelectPin: 25,
			TXDataOutPin:    22,
			PulseChip:       "gpiochip0",
			PulseLine:       4,
		},
	}
}

// DelaySamples returns DelayMS converted to samples at SampleRate.
func (c Config) DelaySamples() int {
	return c.DelayMS * c.SampleRate / 1000
}
