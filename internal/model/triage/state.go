// Package triage models the multi-turn symptom-gathering phase that runs
// ahead of the final assessment.
package triage

import "fmt"

// DefaultCompletionThreshold is the step count at which the consultation
// moves to the final assessment.
const DefaultCompletionThreshold = 5

// MainSymptomKey stores the user's opening complaint in SymptomsGathered.
const MainSymptomKey = "mainSymptom"

// State tracks triage progress for one session. CurrentStep only ever moves
// forward; the whole state is replaced when a session restarts.
type State struct {
	IsActive         bool              `json:"isActive"`
	CurrentStep      int               `json:"currentStep"`
	QuestionsAsked   []string          `json:"questionsAsked"`
	SymptomsGathered map[string]string `json:"symptomsGathered"`
	IsComplete       bool              `json:"isComplete"`
}

// NewState returns the NOT_STARTED state for a fresh session.
func NewState() State {
	return State{SymptomsGathered: make(map[string]string)}
}

// Advance applies one user message to the state: the first message activates
// triage and becomes the main symptom, each later message is recorded under
// its step key before the step counter moves on. Once CurrentStep reaches the
// threshold the state is complete and stays complete.
func (s *State) Advance(message string, threshold int) {
	if threshold <= 0 {
		threshold = DefaultCompletionThreshold
	}
	if s.SymptomsGathered == nil {
		s.SymptomsGathered = make(map[string]string)
	}

	if !s.IsActive {
		s.IsActive = true
		s.CurrentStep = 1
		s.SymptomsGathered[MainSymptomKey] = message
	} else {
		s.SymptomsGathered[fmt.Sprintf("step_%d", s.CurrentStep)] = message
		s.CurrentStep++
	}

	if s.CurrentStep >= threshold {
		s.IsComplete = true
	}
}

// Clone returns a deep copy. A struct copy alone would share the
// SymptomsGathered map, letting a speculative Advance leak into the source
// state.
func (s State) Clone() State {
	copied := s
	if s.SymptomsGathered != nil {
		copied.SymptomsGathered = make(map[string]string, len(s.SymptomsGathered))
		for k, v := range s.SymptomsGathered {
			copied.SymptomsGathered[k] = v
		}
	}
	copied.QuestionsAsked = append([]string(nil), s.QuestionsAsked...)
	return copied
}

// RecordQuestion remembers an assistant question for later steps.
func (s *State) RecordQuestion(question string) {
	if question == "" {
		return
	}
	s.QuestionsAsked = append(s.QuestionsAsked, question)
}

// NeedsOptions reports whether the next assistant reply should carry
// multiple-choice options, i.e. triage is active but not yet complete.
func (s State) NeedsOptions() bool {
	return s.IsActive && !s.IsComplete
}
