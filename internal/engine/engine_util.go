package engine

import (
	"strings"

	"golang.org/x/text/cases"
)

func NewState(script Script) State {
	return State{
		Scene:  SceneGate,
		Phase:  PhaseAsking,
		Script: script,
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// CurrentPrompt returns the question being asked, if any.
func CurrentPrompt(s State) (Prompt, bool) {
	return currentPrompt(s)
}

// IsLastQuestion reports whether advancing from s leaves the question scene.
func IsLastQuestion(s State) bool {
	return s.Scene == SceneQuestion && s.QuestionIndex >= len(s.Script.Questions)-1
}

// credentialMatches compares trimmed input to a configured phrase using
// Unicode case folding.
func credentialMatches(input, want string) bool {
	if want == "" {
		return false
	}
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(input)) == fold.String(want)
}

func enterQuestion(s State, index int) State {
	s.QuestionIndex = index
	s.Phase = PhaseAsking
	s.Selected = ""
	s.NextReady = false
	return s
}

func leaveQuestion(s State) State {
	s.Phase = PhaseAsking
	s.Selected = ""
	s.NextReady = false
	return s
}
