package session

import (
	"fmt"

	"github.com/DoyleJ11/scene-quest/internal/content"
	"github.com/DoyleJ11/scene-quest/internal/effects"
	"github.com/DoyleJ11/scene-quest/internal/engine"
	"github.com/DoyleJ11/scene-quest/internal/ledger"
	"github.com/DoyleJ11/scene-quest/internal/packing"
)

const completedStatus = "Your answers are saved in your heart."

// View is everything a client needs to render the current screen.
type View struct {
	Code       string             `json:"code"`
	Scene      engine.Scene       `json:"scene"`
	Gate       *content.GateCopy  `json:"gate,omitempty"`
	Intro      *content.Intro     `json:"intro,omitempty"`
	Question   *QuestionView      `json:"question,omitempty"`
	Proposal   *content.Proposal  `json:"proposal,omitempty"`
	Recap      *RecapView         `json:"recap,omitempty"`
	Summary    ledger.Summary     `json:"summary"`
	Status     string             `json:"status,omitempty"`
	Background string             `json:"background"`
	Music      effects.MusicState `json:"music"`
	Cover      CoverView          `json:"cover"`
}

type QuestionView struct {
	ID        int                  `json:"id"`
	Index     int                  `json:"index"`
	Total     int                  `json:"total"`
	Text      string               `json:"text"`
	Options   []string             `json:"options"`
	Phase     engine.Phase         `json:"phase"`
	Selected  string               `json:"selected,omitempty"`
	Correct   *bool                `json:"correct,omitempty"`
	Feedback  string               `json:"feedback,omitempty"`
	Copy      content.QuestionCopy `json:"copy"`
	Memories  []content.MemoryItem `json:"memories"`
	Bubbles   []packing.Item       `json:"bubbles,omitempty"`
	NextReady bool                 `json:"next_ready"`
	NextLabel string               `json:"next_label,omitempty"`
}

type RecapView struct {
	Title    string                `json:"title"`
	Subtitle string                `json:"subtitle"`
	Rows     [][]content.RecapCard `json:"rows"`
	Replay   *ReplayView           `json:"replay,omitempty"`
}

// ReplayView is the read-only re-render of one earlier scene.
type ReplayView struct {
	Item     engine.ReplayItem `json:"item"`
	Intro    *content.Intro    `json:"intro,omitempty"`
	Question *QuestionView     `json:"question,omitempty"`
	Proposal *content.Proposal `json:"proposal,omitempty"`
}

type CoverView struct {
	Active     bool   `json:"active"`
	Transition uint64 `json:"transition,omitempty"`
	SwapInMS   int64  `json:"swap_in_ms,omitempty"`
	ClearInMS  int64  `json:"clear_in_ms,omitempty"`
}

func (s *Session) view() View {
	st := s.state
	v := View{
		Code:       s.code,
		Scene:      st.Scene,
		Summary:    st.Answers.Summary(),
		Background: s.backdrop.URL(),
		Music:      s.music.State(),
		Cover:      s.coverView(),
	}
	v.Status = statusLine(st, v.Summary, len(s.content.Questions))

	switch st.Scene {
	case engine.SceneGate:
		gate := s.content.Gate
		v.Gate = &gate
	case engine.SceneHook:
		intro := s.content.Intro
		v.Intro = &intro
	case engine.SceneQuestion:
		if q, ok := s.content.Question(st.QuestionIndex); ok {
			v.Question = s.liveQuestion(q, st)
		}
	case engine.SceneProposal:
		proposal := s.content.Proposal
		v.Proposal = &proposal
	case engine.SceneRecap:
		v.Recap = &RecapView{
			Title:    s.content.Recap.Title,
			Subtitle: s.content.Recap.Subtitle,
			Rows:     s.content.RecapRows(),
			Replay:   s.replayView(st.Replay),
		}
	}
	return v
}

func (s *Session) liveQuestion(q content.Question, st engine.State) *QuestionView {
	qv := s.questionView(q, st.QuestionIndex, s.gallery)
	qv.Phase = st.Phase
	qv.NextReady = st.NextReady
	qv.Selected = st.Selected
	if engine.IsLastQuestion(st) {
		qv.NextLabel = "Final Moment"
	} else {
		qv.NextLabel = "Next Question"
	}

	if st.Selected != "" {
		correct := st.Selected == q.Answer
		qv.Correct = &correct
		if correct {
			qv.Feedback = qv.Copy.CorrectText
		} else {
			qv.Feedback = qv.Copy.IncorrectText
		}
	}
	if st.Phase != engine.PhaseMemories {
		qv.Bubbles = nil
	}
	return qv
}

func (s *Session) questionView(q content.Question, index int, memo *packing.Memo) *QuestionView {
	return &QuestionView{
		ID:       q.ID,
		Index:    index,
		Total:    len(s.content.Questions),
		Text:     q.Text,
		Options:  q.Options,
		Phase:    engine.PhaseAsking,
		Copy:     s.content.CopyFor(q),
		Memories: q.Memories,
		Bubbles:  memo.Layout(q.MemoryKeys()),
	}
}

func (s *Session) replayView(item *engine.ReplayItem) *ReplayView {
	if item == nil {
		return nil
	}
	rv := &ReplayView{Item: *item}
	switch item.Kind {
	case engine.ReplayIntro:
		intro := s.content.Intro
		rv.Intro = &intro
	case engine.ReplayProposal:
		proposal := s.content.Proposal
		rv.Proposal = &proposal
	case engine.ReplayQuestion:
		for i, q := range s.content.Questions {
			if q.ID == item.QuestionID {
				rv.Question = s.questionView(q, i, s.replayGallery)
				rv.Question.NextLabel = "Back to Grid"
				break
			}
		}
	}
	return rv
}

func (s *Session) coverView() CoverView {
	tok, ok := s.coord.Current()
	if !ok || !s.coord.Covered() {
		return CoverView{}
	}
	now := s.clock.Now()
	return CoverView{
		Active:     true,
		Transition: tok.ID,
		SwapInMS:   max(tok.SwapAt.Sub(now).Milliseconds(), 0),
		ClearInMS:  max(tok.ClearAt.Sub(now).Milliseconds(), 0),
	}
}

// statusLine counts correct answers against every question, not just the
// ones answered so far.
func statusLine(st engine.State, sum ledger.Summary, total int) string {
	if st.Scene == engine.SceneRecap {
		return completedStatus
	}
	if sum.Answered == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d correct so far.", sum.Correct, total)
}
