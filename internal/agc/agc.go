// Package agc implements a software Automatic Gain Control processor for
// mono int16 PCM audio, run after the noise gate and before VAD gating.
//
// It continuously monitors the short-term RMS of each frame and adjusts a
// multiplicative gain toward a desired target level using independent
// attack/release time constants. Gain is clamped to [MinGain, MaxGain].
//
// Disabled by default: the acoustic front-end this pipeline targets runs
// with AGC turned off, relying on AEC and the noise gate alone.
package agc

import (
	"math"

	"voicecore/internal/noisegate"
)

const (
	// DefaultTarget is the desired RMS level, linear int16 amplitude.
	DefaultTarget = 6500

	// MinGain limits attenuation of loud signals to 20 dB.
	MinGain = 0.1
	// MaxGain allows up to +20 dB of amplification.
	MaxGain = 10.0

	// AttackCoeff controls how quickly gain is reduced when level exceeds
	// target; higher is faster.
	AttackCoeff = 0.80
	// ReleaseCoeff controls how quickly gain recovers after a loud
	// transient; kept slower than attack to avoid pumping artefacts.
	ReleaseCoeff = 0.02

	// minRMS suppresses gain updates on near-silent frames.
	minRMS = 30
)

// AGC is a single-channel automatic gain control processor.
type AGC struct {
	enabled bool
	target  float64
	gain    float64
}

// New returns an AGC with DefaultTarget and unity gain, disabled by default.
func New() *AGC {
	return &AGC{target: DefaultTarget, gain: 1.0}
}

// SetEnabled enables or disables gain adjustment. Process is a no-op while
// disabled.
func (a *AGC) SetEnabled(enabled bool) {
	a.enabled = enabled
}

// Enabled reports whether AGC is currently applying gain.
func (a *AGC) Enabled() bool {
	return a.enabled
}

// SetTarget sets the desired RMS level. level is in [0, 100] and is mapped
// linearly to [650, 16000] (linear int16 amplitude).
func (a *AGC) SetTarget(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	a.target = 650 + float64(level)/100.0*15350
}

// Process applies gain to frame in-place and updates the gain estimate.
// When disabled, frame is returned unchanged.
func (a *AGC) Process(frame []int16) []int16 {
	if !a.enabled || len(frame) == 0 {
		return frame
	}

	rms := float64(noisegate.RMS(frame))

	for i, s := range frame {
		v := float64(s) * a.gain
		frame[i] = clampInt16(v)
	}

	if rms < minRMS {
		return frame
	}

	desired := a.target / rms
	if desired < MinGain {
		desired = MinGain
	} else if desired > MaxGain {
		desired = MaxGain
	}

	var coeff float64
	if desired < a.gain {
		coeff = AttackCoeff
	} else {
		coeff = ReleaseCoeff
	}
	a.gain = a.gain + coeff*(desired-a.gain)

	return frame
}

// Gain returns the current linear gain multiplier.
func (a *AGC) Gain() float64 { return a.gain }

// Reset resets the gain to unity without changing the target.
func (a *AGC) Reset() { a.gain = 1.0 }

func clampInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
