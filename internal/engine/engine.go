package engine

import (
	"errors"
	"slices"

	"github.com/DoyleJ11/scene-quest/internal/ledger"
)

var ErrWrongScene = errors.New("command not valid in current scene")
var ErrPasswordRejected = errors.New("password rejected")
var ErrUnknownOption = errors.New("unknown answer option")
var ErrUnknownReplayItem = errors.New("unknown replay item")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Scene string

const (
	SceneGate     Scene = "gate"
	SceneHook     Scene = "hook"
	SceneQuestion Scene = "question"
	SceneProposal Scene = "proposal"
	SceneRecap    Scene = "recap"
)

// Phase is the sub-step of a single question visit.
type Phase string

const (
	PhaseAsking   Phase = "asking"
	PhaseFeedback Phase = "feedback"
	PhaseMemories Phase = "memories"
)

type ReplayKind string

const (
	ReplayIntro    ReplayKind = "intro"
	ReplayQuestion ReplayKind = "question"
	ReplayProposal ReplayKind = "proposal"
)

type ReplayItem struct {
	Kind       ReplayKind `json:"kind"`
	QuestionID int        `json:"question_id,omitempty"`
}

// Prompt is the engine's view of a question: enough to judge an answer.
type Prompt struct {
	ID      int
	Options []string
	Correct string
}

// Script is the read-only session configuration the reducer consults.
type Script struct {
	Password     string
	BypassPhrase string
	Questions    []Prompt
}

type State struct {
	Scene         Scene
	QuestionIndex int
	Phase         Phase
	Selected      string
	NextReady     bool
	Answers       ledger.Ledger
	BypassUsed    bool
	Replay        *ReplayItem
	Script        Script
}

type CommandType string

const (
	CmdSubmitPassword  CommandType = "SubmitPassword"
	CmdGateInput       CommandType = "GateInput"
	CmdContinue        CommandType = "Continue"
	CmdSelectAnswer    CommandType = "SelectAnswer"
	CmdRevealMemories  CommandType = "RevealMemories"
	CmdShowNext        CommandType = "ShowNext"
	CmdAdvanceQuestion CommandType = "AdvanceQuestion"
	CmdAcceptProposal  CommandType = "AcceptProposal"
	CmdOpenReplay      CommandType = "OpenReplay"
	CmdCloseReplay     CommandType = "CloseReplay"
)

/*
	CmdSubmitPassword  -> EvtUnlocked -> EvtSceneChanged(hook)
	                   or EvtBypassUsed -> EvtSceneChanged(recap)
	CmdGateInput       -> EvtBypassUsed -> EvtSceneChanged(recap), otherwise nothing
	CmdContinue        -> EvtSceneChanged(question) -> EvtQuestionChanged(0)
	CmdSelectAnswer    -> EvtAnswerRecorded -> EvtPhaseChanged(feedback)
	CmdRevealMemories  -> EvtPhaseChanged(memories)
	CmdShowNext        -> EvtNextReady
	CmdAdvanceQuestion -> EvtQuestionChanged(i+1) or EvtSceneChanged(proposal)
	CmdAcceptProposal  -> EvtSceneChanged(recap)
	CmdOpenReplay      -> EvtReplayOpened
	CmdCloseReplay     -> EvtReplayClosed
*/

type Command struct {
	Type   CommandType
	Input  string
	Option string
	Item   ReplayItem
}

type EventType string

const (
	EvtUnlocked        EventType = "Unlocked"
	EvtBypassUsed      EventType = "BypassUsed"
	EvtSceneChanged    EventType = "SceneChanged"
	EvtQuestionChanged EventType = "QuestionChanged"
	EvtAnswerRecorded  EventType = "AnswerRecorded"
	EvtPhaseChanged    EventType = "PhaseChanged"
	EvtNextReady       EventType = "NextReady"
	EvtReplayOpened    EventType = "ReplayOpened"
	EvtReplayClosed    EventType = "ReplayClosed"
)

type Event struct {
	Type       EventType
	Scene      Scene
	Index      int
	QuestionID int
	Option     string
	Correct    bool
	Phase      Phase
	Item       ReplayItem
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	newState := s

	switch cmd.Type {
	case CmdSubmitPassword:
		if s.Scene != SceneGate {
			return nil, s, ErrWrongScene
		}
		if events, next, ok := tryBypass(s, cmd.Input); ok {
			return events, next, nil
		}
		if !credentialMatches(cmd.Input, s.Script.Password) {
			return nil, s, ErrPasswordRejected
		}

		newState.Scene = SceneHook
		return []Event{
			{Type: EvtUnlocked},
			{Type: EvtSceneChanged, Scene: SceneHook},
		}, newState, nil

	case CmdGateInput:
		if s.Scene != SceneGate {
			return nil, s, ErrWrongScene
		}
		if events, next, ok := tryBypass(s, cmd.Input); ok {
			return events, next, nil
		}
		return nil, s, nil

	case CmdContinue:
		if s.Scene != SceneHook {
			return nil, s, ErrWrongScene
		}
		if len(s.Script.Questions) == 0 {
			newState.Scene = SceneProposal
			return []Event{{Type: EvtSceneChanged, Scene: SceneProposal}}, newState, nil
		}

		newState.Scene = SceneQuestion
		newState = enterQuestion(newState, 0)
		return []Event{
			{Type: EvtSceneChanged, Scene: SceneQuestion},
			{Type: EvtQuestionChanged, Index: 0},
		}, newState, nil

	case CmdSelectAnswer:
		prompt, ok := currentPrompt(s)
		if !ok {
			return nil, s, ErrWrongScene
		}
		if len(prompt.Options) > 0 && !slices.Contains(prompt.Options, cmd.Option) {
			return nil, s, ErrUnknownOption
		}

		correct := cmd.Option == prompt.Correct
		newState.Answers = s.Answers.Record(prompt.ID, cmd.Option, correct)
		newState.Selected = cmd.Option
		newState.Phase = PhaseFeedback

		return []Event{
			{Type: EvtAnswerRecorded, QuestionID: prompt.ID, Option: cmd.Option, Correct: correct},
			{Type: EvtPhaseChanged, Phase: PhaseFeedback},
		}, newState, nil

	case CmdRevealMemories:
		if s.Scene != SceneQuestion || s.Phase != PhaseFeedback {
			return nil, s, ErrWrongScene
		}
		newState.Phase = PhaseMemories
		return []Event{{Type: EvtPhaseChanged, Phase: PhaseMemories}}, newState, nil

	case CmdShowNext:
		if s.Scene != SceneQuestion || s.Phase != PhaseMemories || s.NextReady {
			return nil, s, ErrWrongScene
		}
		newState.NextReady = true
		return []Event{{Type: EvtNextReady}}, newState, nil

	case CmdAdvanceQuestion:
		if s.Scene != SceneQuestion {
			return nil, s, ErrWrongScene
		}
		if s.QuestionIndex < len(s.Script.Questions)-1 {
			next := s.QuestionIndex + 1
			newState = enterQuestion(newState, next)
			return []Event{{Type: EvtQuestionChanged, Index: next}}, newState, nil
		}

		newState.Scene = SceneProposal
		newState = leaveQuestion(newState)
		return []Event{{Type: EvtSceneChanged, Scene: SceneProposal}}, newState, nil

	case CmdAcceptProposal:
		if s.Scene != SceneProposal {
			return nil, s, ErrWrongScene
		}
		newState.Scene = SceneRecap
		return []Event{{Type: EvtSceneChanged, Scene: SceneRecap}}, newState, nil

	case CmdOpenReplay:
		if s.Scene != SceneRecap {
			return nil, s, ErrWrongScene
		}
		if !replayable(s, cmd.Item) {
			return nil, s, ErrUnknownReplayItem
		}
		item := cmd.Item
		newState.Replay = &item
		return []Event{{Type: EvtReplayOpened, Item: item}}, newState, nil

	case CmdCloseReplay:
		if s.Scene != SceneRecap || s.Replay == nil {
			return nil, s, ErrWrongScene
		}
		newState.Replay = nil
		return []Event{{Type: EvtReplayClosed, Item: *s.Replay}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func Reduce(script Script, events []Event) State {
	return Fold(NewState(script), events)
}

// Fold applies already-validated events on top of s. Events carry absolute
// targets (scene, index, answer), so folding a stale batch onto a newer
// state moves it to that batch's target without discarding unrelated
// progress such as recorded answers.
func Fold(s State, events []Event) State {
	for _, event := range events {
		switch event.Type {
		case EvtBypassUsed:
			s.BypassUsed = true
		case EvtSceneChanged:
			s.Scene = event.Scene
			if event.Scene != SceneQuestion {
				s = leaveQuestion(s)
			}
		case EvtQuestionChanged:
			s = enterQuestion(s, event.Index)
		case EvtAnswerRecorded:
			s.Answers = s.Answers.Record(event.QuestionID, event.Option, event.Correct)
			s.Selected = event.Option
		case EvtPhaseChanged:
			s.Phase = event.Phase
		case EvtNextReady:
			s.NextReady = true
		case EvtReplayOpened:
			item := event.Item
			s.Replay = &item
		case EvtReplayClosed:
			s.Replay = nil
		}
	}
	return s
}

func tryBypass(s State, input string) ([]Event, State, bool) {
	if s.BypassUsed || s.Script.BypassPhrase == "" {
		return nil, s, false
	}
	if !credentialMatches(input, s.Script.BypassPhrase) {
		return nil, s, false
	}

	newState := s
	newState.BypassUsed = true
	newState.Scene = SceneRecap
	return []Event{
		{Type: EvtBypassUsed},
		{Type: EvtSceneChanged, Scene: SceneRecap},
	}, newState, true
}

func currentPrompt(s State) (Prompt, bool) {
	if s.Scene != SceneQuestion {
		return Prompt{}, false
	}
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.Script.Questions) {
		return Prompt{}, false
	}
	return s.Script.Questions[s.QuestionIndex], true
}

func replayable(s State, item ReplayItem) bool {
	switch item.Kind {
	case ReplayIntro, ReplayProposal:
		return true
	case ReplayQuestion:
		return slices.ContainsFunc(s.Script.Questions, func(p Prompt) bool { return p.ID == item.QuestionID })
	default:
		return false
	}
}
