// Package frontend provides the default concrete acoustic front-end
// (AEC + noise suppression + VAD) that the capture and detect loops drive.
// It is one of the pieces of the pipeline spec.md treats as an external
// collaborator; this implementation exists so the module runs end to end,
// but callers may substitute their own behind the same interface.
package frontend

import (
	"voicecore/internal/agc"
	"voicecore/internal/aec"
	"voicecore/internal/noisegate"
)

// Result is what the front-end hands back for one interleaved frame.
type Result struct {
	// Clean is the cleaned mono mic signal, same length as the input mic
	// frame.
	Clean []int16
	// VAD is the front-end's own raw voice-activity signal for this frame.
	VAD bool
}

// Frontend is the interface the capture and detect loops depend on.
// Process consumes one interleaved (mic, ref) pair and returns the cleaned
// frame plus a raw VAD decision.
type Frontend interface {
	Process(mic, ref []int16) Result
}

// Pipeline is the default Frontend: AEC followed by a noise gate, an
// optional AGC stage, and a raw hangover-based VAD.
type Pipeline struct {
	aec  *aec.AEC
	gate *noisegate.Gate
	agc  *agc.AGC
	vad  *hangoverVAD
}

// New returns a Pipeline with AEC and the noise gate enabled and AGC
// disabled, matching the acoustic front-end configuration this system is
// modelled on.
func New() *Pipeline {
	return &Pipeline{
		aec:  aec.New(),
		gate: noisegate.New(),
		agc:  agc.New(),
		vad:  newHangoverVAD(),
	}
}

// SetAGC enables or disables the post-gate gain-normalization stage.
func (p *Pipeline) SetAGC(enabled bool) {
	p.agc.SetEnabled(enabled)
}

// SetAEC enables or disables echo cancellation.
func (p *Pipeline) SetAEC(enabled bool) {
	p.aec.SetEnabled(enabled)
}

// Process runs mic/ref through AEC, the noise gate, optional AGC, and the
// raw VAD signal.
func (p *Pipeline) Process(mic, ref []int16) Result {
	clean := p.aec.Process(mic, ref)
	p.gate.Process(clean)
	if p.agc.Enabled() {
		clean = p.agc.Process(clean)
	}
	speaking := p.vad.update(clean)
	return Result{Clean: clean, VAD: speaking}
}
