package types

import (
	"github.com/DoyleJ11/scene-quest/internal/effects"
	"github.com/DoyleJ11/scene-quest/internal/engine"
	"github.com/DoyleJ11/scene-quest/internal/session"
)

type ClientMessage struct {
	Type       string `json:"type"`
	Input      string `json:"input,omitempty"`
	Option     string `json:"option,omitempty"`
	ReplayKind string `json:"replay_kind,omitempty"`
	QuestionID int    `json:"question_id,omitempty"`
}

type ServerMessage struct {
	Type       string              `json:"type"` // "StateSnapshot" | "Error"
	Version    int                 `json:"version,omitempty"`
	View       *session.View       `json:"view,omitempty"`
	Directives []effects.Directive `json:"directives,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Replay returns the replay target named by m.
func (m ClientMessage) Replay() engine.ReplayItem {
	return engine.ReplayItem{Kind: engine.ReplayKind(m.ReplayKind), QuestionID: m.QuestionID}
}
