// Package aec provides a Normalized Least Mean Squares (NLMS) acoustic echo
// canceller for the int16 mono pipeline driven by the capture loop.
//
// Unlike a canceller that keeps its own far-end ring and bulk delay, this
// one is fed reference samples that the Reference Manager has already
// delay-aligned and gain-matched; Process only has to adapt to the short
// residual room response within a small tap window.
package aec

import "math"

const (
	// DefaultTaps is the NLMS filter length in samples, covering residual
	// delay and room response left after the Reference Manager's bulk
	// alignment.
	DefaultTaps = 64

	// DefaultStep is the NLMS step size mu (0 < mu < 2); smaller values
	// converge more slowly but are more stable.
	DefaultStep = 0.1
)

// AEC is an NLMS-based acoustic echo canceller operating on int16 PCM.
type AEC struct {
	enabled bool

	weights []float64
	tapLen  int
	step    float64

	// history holds the last tapLen-1 reference samples from the previous
	// frame so the filter has taps available at the start of a new frame.
	history []float64
}

// New creates an AEC with DefaultTaps and DefaultStep.
func New() *AEC {
	return &AEC{
		enabled: true,
		weights: make([]float64, DefaultTaps),
		tapLen:  DefaultTaps,
		step:    DefaultStep,
		history: make([]float64, DefaultTaps-1),
	}
}

// SetEnabled enables or disables echo cancellation. Enabling resets the
// filter weights so it adapts cleanly from scratch.
func (a *AEC) SetEnabled(enabled bool) {
	a.enabled = enabled
	if enabled {
		for i := range a.weights {
			a.weights[i] = 0
		}
	}
}

// Enabled reports whether cancellation is active.
func (a *AEC) Enabled() bool {
	return a.enabled
}

// Process returns a copy of mic with echo removed, using ref as the
// delay-aligned far-end signal for the same frame. mic and ref must be the
// same length. If disabled, Process returns mic unchanged.
//
// Output sample = mic[i] − Σ w[k]*ref_window[i+tapLen−1−k]. The NLMS update
// adapts weights toward the estimated echo path after each sample.
func (a *AEC) Process(mic, ref []int16) []int16 {
	out := make([]int16, len(mic))
	if !a.enabled || len(mic) == 0 {
		copy(out, mic)
		return out
	}

	extended := make([]float64, len(a.history)+len(ref))
	copy(extended, a.history)
	for i, s := range ref {
		extended[len(a.history)+i] = float64(s)
	}

	for i := range mic {
		refBase := i + a.tapLen - 1
		var y, powerSum float64
		for k := 0; k < a.tapLen; k++ {
			x := extended[refBase-k]
			y += a.weights[k] * x
			powerSum += x * x
		}

		e := float64(mic[i]) - y

		if powerSum > 1e-6 {
			step := a.step * e / powerSum
			for k := 0; k < a.tapLen; k++ {
				a.weights[k] += step * extended[refBase-k]
			}
		}

		out[i] = clampInt16(e)
	}

	// Carry the trailing tapLen-1 reference samples forward as history.
	if len(extended) >= len(a.history) {
		copy(a.history, extended[len(extended)-len(a.history):])
	}

	return out
}

func clampInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
