// Package noisegate implements a hard noise gate for mono int16 PCM audio,
// standing in for the acoustic front-end's noise-suppression stage.
//
// Frames with RMS below the configured threshold are zeroed out entirely. A
// short hold period prevents the gate from chopping speech during brief
// pauses.
package noisegate

import "math"

const (
	// DefaultThreshold is the RMS level below which audio is gated.
	DefaultThreshold = 300

	// DefaultHold is the number of frames to keep the gate open after the
	// signal drops below threshold.
	DefaultHold = 10
)

// Gate is a hard noise gate that zeroes frames below a threshold.
type Gate struct {
	threshold int32
	hold      int
	remaining int
	enabled   bool
	open      bool
}

// New returns a Gate with DefaultThreshold and DefaultHold, enabled by default.
func New() *Gate {
	return &Gate{
		threshold: DefaultThreshold,
		hold:      DefaultHold,
		enabled:   true,
	}
}

// SetEnabled enables or disables the gate. When disabled, Process is a no-op.
func (g *Gate) SetEnabled(enabled bool) {
	g.enabled = enabled
	if !enabled {
		g.remaining = 0
		g.open = false
	}
}

// Enabled reports whether the gate is currently enabled.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// SetThreshold sets the RMS gate threshold. level is in [0, 100] and maps
// to an RMS range of [30, 2730] (linear int16 amplitude).
func (g *Gate) SetThreshold(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	g.threshold = 30 + int32(level)*27
}

// Threshold returns the current RMS threshold.
func (g *Gate) Threshold() int32 {
	return g.threshold
}

// IsOpen reports whether the gate is currently passing audio.
func (g *Gate) IsOpen() bool {
	return g.open
}

// RMS returns the root-mean-square of an int16 PCM frame.
func RMS(frame []int16) int32 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return int32(math.Sqrt(sum / float64(len(frame))))
}

// Process applies the gate to frame in-place. If the frame's RMS is below
// threshold and the hold period has expired, the frame is zeroed. Returns
// the frame RMS computed before gating.
func (g *Gate) Process(frame []int16) int32 {
	rms := RMS(frame)

	if !g.enabled {
		g.open = true
		return rms
	}

	if rms >= g.threshold {
		g.remaining = g.hold
		g.open = true
		return rms
	}

	if g.remaining > 0 {
		g.remaining--
		g.open = true
		return rms
	}

	for i := range frame {
		frame[i] = 0
	}
	g.open = false
	return rms
}

// Reset clears the hold counter without changing settings.
func (g *Gate) Reset() {
	g.remaining = 0
	g.open = false
}
