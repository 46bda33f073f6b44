// Package command defines the compile-time command vocabulary and the
// recognition-model interface the detect loop drives. The concrete model
// behind Model is an external collaborator by design (spec.md treats the
// recognition model as a black box); this package ships one minimal default
// implementation so the pipeline runs end to end.
package command

import "voicecore/internal/noisegate"

// Vocabulary is a compile-time ordered list of phrases. Index 0 is always
// the wake phrase.
type Vocabulary struct {
	phrases []string
}

// NewVocabulary builds a Vocabulary from an ordered phrase list. phrases[0]
// must be the wake phrase.
func NewVocabulary(phrases []string) Vocabulary {
	cp := make([]string, len(phrases))
	copy(cp, phrases)
	return Vocabulary{phrases: cp}
}

// DefaultVocabulary returns the built-in 21-phrase command set used when no
// vocabulary is supplied.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary([]string{
		"hey assistant", // id 0: wake phrase
		"turn on the light",
		"turn off the light",
		"increase volume",
		"decrease volume",
		"mute",
		"unmute",
		"play music",
		"pause music",
		"next track",
		"previous track",
		"set a timer",
		"cancel timer",
		"what time is it",
		"what is the weather",
		"turn on the fan",
		"turn off the fan",
		"open the door",
		"close the door",
		"good morning",
		"good night",
	})
}

// Phrase returns the phrase for id and whether id is valid.
func (v Vocabulary) Phrase(id int) (string, bool) {
	if id < 0 || id >= len(v.phrases) {
		return "", false
	}
	return v.phrases[id], true
}

// Len returns the number of phrases in the vocabulary.
func (v Vocabulary) Len() int {
	return len(v.phrases)
}

// Commands returns the full id → phrase mapping.
func (v Vocabulary) Commands() map[int]string {
	out := make(map[int]string, len(v.phrases))
	for i, p := range v.phrases {
		out[i] = p
	}
	return out
}

// State is the per-frame state a Model reports back to the detect loop.
type State int

const (
	// Detecting means the model is still accumulating frames toward a
	// decision; the detect loop keeps feeding it frames.
	Detecting State = iota
	// Timeout means the model gave up without a match; swallowed by the
	// detect loop so a host can poll at any cadence.
	Timeout
	// Detected means the model has a top-1 command id ready.
	Detected
)

// Model is the recognition-model interface the detect loop drives with
// cleaned audio frames.
type Model interface {
	// Feed processes one cleaned mono frame and returns the current state.
	// commandID and probabilities are only meaningful when state == Detected.
	Feed(frame []int16) (state State, commandID int, probabilities []float32)
	// Reset clears any accumulated recognition state, called after a
	// Detected or Timeout result has been consumed.
	Reset()
}

// ResultKind tags a Recognition Result's variant.
type ResultKind int

const (
	// ResultWake means command id 0 (the designated wake phrase) matched.
	ResultWake ResultKind = iota
	// ResultCommand means a non-wake command id matched.
	ResultCommand
	// ResultTimeout means listen's caller-supplied timeout elapsed with no
	// result enqueued.
	ResultTimeout
)

// Result is a Recognition Result: the tagged record the detect loop
// enqueues and listen dequeues.
type Result struct {
	Kind      ResultKind
	CommandID int
	Phrase    string
}

const (
	energyThreshold = 500
	windowFrames    = 50
	voicedRatio     = 0.3
)

// EnergyMatcher is a minimal default Model: it accumulates frames into a
// fixed window and reports Detected (wake, id 0) if enough of the window
// was voiced, else Timeout. It stands in for a real phrase classifier
// (MultiNet/WakeNet-class model), which is out of scope for this package.
type EnergyMatcher struct {
	vocab        Vocabulary
	framesSeen   int
	voicedFrames int
}

// NewEnergyMatcher returns an EnergyMatcher bound to vocab.
func NewEnergyMatcher(vocab Vocabulary) *EnergyMatcher {
	return &EnergyMatcher{vocab: vocab}
}

// Feed implements Model.
func (m *EnergyMatcher) Feed(frame []int16) (State, int, []float32) {
	if noisegate.RMS(frame) > energyThreshold {
		m.voicedFrames++
	}
	m.framesSeen++

	if m.framesSeen < windowFrames {
		return Detecting, 0, nil
	}

	ratio := float32(m.voicedFrames) / float32(m.framesSeen)
	m.framesSeen = 0
	m.voicedFrames = 0

	if ratio >= voicedRatio {
		probs := make([]float32, m.vocab.Len())
		probs[0] = ratio
		return Detected, 0, probs
	}
	return Timeout, 0, nil
}

// Reset implements Model.
func (m *EnergyMatcher) Reset() {
	m.framesSeen = 0
	m.voicedFrames = 0
}
