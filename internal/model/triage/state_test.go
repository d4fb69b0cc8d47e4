package triage

import (
	"fmt"
	"testing"
)

func TestAdvanceActivatesOnFirstMessage(t *testing.T) {
	state := NewState()
	state.Advance("I have a headache", DefaultCompletionThreshold)

	if !state.IsActive {
		t.Fatal("expected triage to activate")
	}
	if state.CurrentStep != 1 {
		t.Fatalf("expected step 1, got %d", state.CurrentStep)
	}
	if state.SymptomsGathered[MainSymptomKey] != "I have a headache" {
		t.Fatalf("main symptom not recorded: %v", state.SymptomsGathered)
	}
	if state.IsComplete {
		t.Fatal("first step must not complete triage")
	}
	if !state.NeedsOptions() {
		t.Fatal("active triage should request options")
	}
}

func TestAdvanceRecordsStepKeys(t *testing.T) {
	state := NewState()
	state.Advance("headache", DefaultCompletionThreshold)
	state.Advance("since yesterday", DefaultCompletionThreshold)
	state.Advance("severity 7", DefaultCompletionThreshold)

	if state.CurrentStep != 3 {
		t.Fatalf("expected step 3, got %d", state.CurrentStep)
	}
	if state.SymptomsGathered["step_1"] != "since yesterday" {
		t.Fatalf("step_1 = %q", state.SymptomsGathered["step_1"])
	}
	if state.SymptomsGathered["step_2"] != "severity 7" {
		t.Fatalf("step_2 = %q", state.SymptomsGathered["step_2"])
	}
}

func TestCompletionAtThreshold(t *testing.T) {
	state := NewState()
	for i := 0; i < 4; i++ {
		state.Advance(fmt.Sprintf("answer %d", i), DefaultCompletionThreshold)
		if state.IsComplete {
			t.Fatalf("complete too early at step %d", state.CurrentStep)
		}
	}

	state.Advance("fifth answer", DefaultCompletionThreshold)
	if state.CurrentStep != 5 {
		t.Fatalf("expected step 5, got %d", state.CurrentStep)
	}
	if !state.IsComplete {
		t.Fatal("expected completion at threshold")
	}
	if state.NeedsOptions() {
		t.Fatal("complete triage must not request options")
	}

	// Completion is sticky.
	state.Advance("sixth answer", DefaultCompletionThreshold)
	if !state.IsComplete {
		t.Fatal("completion must persist")
	}
	if state.CurrentStep != 6 {
		t.Fatalf("step counter must stay monotonic, got %d", state.CurrentStep)
	}
}

func TestConfigurableThreshold(t *testing.T) {
	state := NewState()
	state.Advance("a", 3)
	state.Advance("b", 3)
	if state.IsComplete {
		t.Fatal("complete too early with threshold 3")
	}
	state.Advance("c", 3)
	if !state.IsComplete {
		t.Fatal("expected completion at custom threshold")
	}
}

func TestRecordQuestion(t *testing.T) {
	state := NewState()
	state.RecordQuestion("When did it start?")
	state.RecordQuestion("")
	if len(state.QuestionsAsked) != 1 {
		t.Fatalf("expected 1 recorded question, got %d", len(state.QuestionsAsked))
	}
}

func TestCloneIsolatesState(t *testing.T) {
	state := NewState()
	state.Advance("I have a headache", DefaultCompletionThreshold)
	state.RecordQuestion("When did it start?")

	clone := state.Clone()
	clone.Advance("since yesterday", DefaultCompletionThreshold)
	clone.RecordQuestion("Where does it hurt?")

	if _, ok := state.SymptomsGathered["step_1"]; ok {
		t.Fatalf("advancing the clone wrote into the source map: %v", state.SymptomsGathered)
	}
	if state.CurrentStep != 1 {
		t.Fatalf("source step changed, got %d", state.CurrentStep)
	}
	if len(state.QuestionsAsked) != 1 {
		t.Fatalf("source questions changed: %v", state.QuestionsAsked)
	}
	if clone.CurrentStep != 2 || clone.SymptomsGathered["step_1"] != "since yesterday" {
		t.Fatalf("clone did not advance independently: %+v", clone)
	}
}
