package command

import "testing"

func TestDefaultVocabularyWakeIsIndexZero(t *testing.T) {
	v := DefaultVocabulary()
	phrase, ok := v.Phrase(0)
	if !ok {
		t.Fatal("expected id 0 to be valid")
	}
	if phrase == "" {
		t.Fatal("expected non-empty wake phrase")
	}
}

func TestPhraseOutOfRange(t *testing.T) {
	v := DefaultVocabulary()
	if _, ok := v.Phrase(-1); ok {
		t.Fatal("expected id -1 invalid")
	}
	if _, ok := v.Phrase(v.Len()); ok {
		t.Fatal("expected id == Len() invalid")
	}
}

func TestCommandsMapMatchesLen(t *testing.T) {
	v := DefaultVocabulary()
	m := v.Commands()
	if len(m) != v.Len() {
		t.Fatalf("Commands() len = %d, want %d", len(m), v.Len())
	}
}

func TestEnergyMatcherTimesOutOnSilence(t *testing.T) {
	m := NewEnergyMatcher(DefaultVocabulary())
	frame := make([]int16, 10)
	var lastState State
	for i := 0; i < windowFrames; i++ {
		s, _, _ := m.Feed(frame)
		lastState = s
	}
	if lastState != Timeout {
		t.Fatalf("state = %v, want Timeout", lastState)
	}
}

func TestEnergyMatcherDetectsOnSustainedVoicedFrames(t *testing.T) {
	m := NewEnergyMatcher(DefaultVocabulary())
	loud := make([]int16, 10)
	for i := range loud {
		loud[i] = 5000
	}
	var lastState State
	for i := 0; i < windowFrames; i++ {
		s, id, _ := m.Feed(loud)
		lastState = s
		if s == Detected && id != 0 {
			t.Fatalf("expected detected id 0, got %d", id)
		}
	}
	if lastState != Detected {
		t.Fatalf("state = %v, want Detected", lastState)
	}
}
