// Package effects turns scene-machine events into declarative requests for
// the client: which background to show, whether music plays, which short
// cue to sound. The engine never calls these directly.
package effects

import "github.com/DoyleJ11/scene-quest/internal/engine"

// Context names a background slot.
type Context string

const (
	ContextPassword Context = "password"
	ContextIntro    Context = "intro"
	ContextQuestion Context = "question"
	ContextProposal Context = "proposal"
	ContextSnapshot Context = "snapshot"
	ContextDefault  Context = "default"
)

type Cue string

const (
	CueClick      Cue = "click"
	CueCorrect    Cue = "correct"
	CueIncorrect  Cue = "incorrect"
	CueTransition Cue = "transition"
	CueSuccess    Cue = "success"
)

// Requirement is what a scene asks of its surroundings on entry.
type Requirement struct {
	Background Context
	EntryCue   Cue
}

var sceneEffects = map[engine.Scene]Requirement{
	engine.SceneGate:     {Background: ContextPassword, EntryCue: CueTransition},
	engine.SceneHook:     {Background: ContextIntro, EntryCue: CueTransition},
	engine.SceneQuestion: {Background: ContextQuestion, EntryCue: CueTransition},
	engine.SceneProposal: {Background: ContextProposal, EntryCue: CueTransition},
	engine.SceneRecap:    {Background: ContextSnapshot, EntryCue: CueTransition},
}

// For returns the requirement of scene; unknown scenes get the default
// background and no cue.
func For(scene engine.Scene) Requirement {
	if r, ok := sceneEffects[scene]; ok {
		return r
	}
	return Requirement{Background: ContextDefault}
}

type DirectiveKind string

const (
	KindBackground DirectiveKind = "background"
	KindMusic      DirectiveKind = "music"
	KindCue        DirectiveKind = "cue"
)

// Directive is one instruction for the client to execute.
type Directive struct {
	Kind   DirectiveKind `json:"kind"`
	Action string        `json:"action,omitempty"`
	Name   string        `json:"name,omitempty"`
	URL    string        `json:"url,omitempty"`
	Volume float64       `json:"volume,omitempty"`
	Loop   bool          `json:"loop,omitempty"`
}

type Sink func(Directive)

type Background interface {
	SetScene(ctx Context)
	SetOverride(url string)
}

type Music interface {
	Play()
	Pause()
	Toggle()
}

type Cues interface {
	Play(cue Cue)
}

// Applier is the single place scene events become side effects.
type Applier struct {
	bg       Background
	music    Music
	cues     Cues
	backdrop func(questionIndex int) string
}

// NewApplier wires the collaborators. backdrop returns the per-question
// background override, or "" for none.
func NewApplier(bg Background, music Music, cues Cues, backdrop func(questionIndex int) string) *Applier {
	if backdrop == nil {
		backdrop = func(int) string { return "" }
	}
	return &Applier{bg: bg, music: music, cues: cues, backdrop: backdrop}
}

func (a *Applier) Apply(events []engine.Event, s engine.State) {
	sceneChanged := engine.ContainsEvent(events, engine.EvtSceneChanged)

	for _, e := range events {
		switch e.Type {
		case engine.EvtUnlocked:
			a.music.Play()
			a.cues.Play(CueSuccess)

		case engine.EvtSceneChanged:
			req := For(e.Scene)
			a.bg.SetScene(req.Background)
			if req.EntryCue != "" {
				a.cues.Play(req.EntryCue)
			}

		case engine.EvtQuestionChanged:
			a.bg.SetOverride(a.backdrop(e.Index))
			if !sceneChanged {
				a.cues.Play(CueTransition)
			}

		case engine.EvtAnswerRecorded:
			a.cues.Play(CueClick)
			if e.Correct {
				a.cues.Play(CueCorrect)
			} else {
				a.cues.Play(CueIncorrect)
			}
		}
	}
}

// Rejected signals a refused gate credential.
func (a *Applier) Rejected() {
	a.cues.Play(CueIncorrect)
}

func (a *Applier) Music() Music { return a.music }
