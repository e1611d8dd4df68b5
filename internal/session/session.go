// Package session runs one experience per goroutine. Every client command,
// timer fire and transition phase is delivered through the session inbox,
// so the engine state is only ever touched by the loop.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/scene-quest/internal/content"
	"github.com/DoyleJ11/scene-quest/internal/effects"
	"github.com/DoyleJ11/scene-quest/internal/engine"
	"github.com/DoyleJ11/scene-quest/internal/packing"
	"github.com/DoyleJ11/scene-quest/internal/transition"
)

type Msg interface{ isSessionMsg() }

type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type MusicAction string

const (
	MusicPlay    MusicAction = "play"
	MusicPause   MusicAction = "pause"
	MusicToggle  MusicAction = "toggle"
	MusicBlocked MusicAction = "blocked"
)

// Music carries a user music control, or the client's report that autoplay
// was refused.
type Music struct{ Action MusicAction }

func (Music) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan Report
}

func (GetState) isSessionMsg() {}

type run struct{ fn func() }

func (run) isSessionMsg() {}

type timerFired struct {
	gen int
	cmd engine.Command
}

func (timerFired) isSessionMsg() {}

type Snapshot struct {
	Version    int                 `json:"version"`
	View       View                `json:"view"`
	Directives []effects.Directive `json:"directives,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Report reflects internal state without data races.
type Report struct {
	Version    int
	NumClients int
	State      engine.State
	View       View
}

type Options struct {
	Content   *content.Content
	Clock     transition.Clock
	Timing    transition.Timing
	Preloader transition.Preloader
	// CancelSuperseded drops an overlapped transition instead of letting it
	// finish.
	CancelSuperseded bool
	// FeedbackDelay is how long feedback shows before memories appear;
	// NextDelay is how long memories show before the next control does.
	FeedbackDelay time.Duration
	NextDelay     time.Duration
	Canvas        packing.Canvas
	Seed          uint64
	Logger        *zap.Logger
}

const (
	defaultFeedbackDelay = 900 * time.Millisecond
	defaultNextDelay     = 3 * time.Second
)

type Session struct {
	code    string
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger

	content       *content.Content
	clock         transition.Clock
	coord         *transition.Coordinator
	fx            *effects.Applier
	backdrop      *effects.Backdrop
	music         *effects.Player
	gallery       *packing.Memo
	replayGallery *packing.Memo

	feedbackDelay time.Duration
	nextDelay     time.Duration
	timerGen      int

	// advancing is set from Begin until the transition's events land.
	advancing bool

	pending []effects.Directive
	dirty   bool
}

func New(parent context.Context, code string, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)

	if opts.Content == nil {
		opts.Content = content.Default()
	}
	if opts.Clock == nil {
		opts.Clock = transition.RealClock()
	}
	if opts.FeedbackDelay <= 0 {
		opts.FeedbackDelay = defaultFeedbackDelay
	}
	if opts.NextDelay <= 0 {
		opts.NextDelay = defaultNextDelay
	}
	if opts.Canvas == (packing.Canvas{}) {
		opts.Canvas = packing.DefaultCanvas()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.With(zap.String("session", code))

	if opts.Seed == 0 {
		seed, err := packing.NewSeed()
		if err != nil {
			logger.Warn("falling back to clock seed", zap.Error(err))
			seed = uint64(time.Now().UnixNano())
		}
		opts.Seed = seed
	}
	rng := packing.NewRand(opts.Seed)

	s := &Session{
		code:          code,
		inbox:         make(chan Msg, 64),
		state:         engine.NewState(opts.Content.Script()),
		clients:       make(map[string]chan Snapshot),
		ctx:           ctx,
		cancel:        cancel,
		logger:        logger,
		content:       opts.Content,
		clock:         opts.Clock,
		gallery:       packing.NewMemo(opts.Canvas, rng),
		replayGallery: packing.NewMemo(opts.Canvas, rng),
		feedbackDelay: opts.FeedbackDelay,
		nextDelay:     opts.NextDelay,
	}

	s.backdrop = effects.NewBackdrop(opts.Content.Backgrounds.ByContext(), s.collect)
	s.music = effects.NewPlayer(opts.Content.Music.Settings(), s.collect)
	cues := effects.NewCueBoard(opts.Content.SFX.Settings(), s.collect)
	s.fx = effects.NewApplier(s.backdrop, s.music, cues, opts.Content.Backdrop)

	s.coord = transition.New(transition.Options{
		Clock:     opts.Clock,
		Timing:    opts.Timing,
		Preloader: opts.Preloader,
		Post:      s.post,
		Hooks: transition.Hooks{
			CoverShown:   func(transition.Token) { s.dirty = true },
			CoverCleared: func(transition.Token) { s.dirty = true },
		},
		CancelSuperseded: opts.CancelSuperseded,
		Logger:           logger,
	})
	s.coord.Warm(ctx, s.successorAssets())

	go s.loop()
	return s
}

func (s *Session) Code() string { return s.code }

// Expose the inbox so the hub and ws layer can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				s.clients[msg.ClientID] = msg.Outbox
				s.sendTo(msg.ClientID, Snapshot{Version: s.version, View: s.view()})

			case Leave:
				if ch, ok := s.clients[msg.ClientID]; ok {
					close(ch)
					delete(s.clients, msg.ClientID)
				}

			case FromClient:
				s.handle(msg.ClientID, msg.Cmd)

			case Music:
				s.handleMusic(msg.Action)

			case timerFired:
				if msg.gen != s.timerGen {
					break // superseded by a later selection or question change
				}
				s.handle("", msg.cmd)

			case run:
				msg.fn()

			case GetState:
				msg.Reply <- Report{
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state,
					View:       s.view(),
				}

			case Shutdown:
				s.shutdown()
				return
			}
			s.flush()
		}
	}
}

func (s *Session) handle(clientID string, cmd engine.Command) {
	// Until the swap the state still shows the screen being left, so
	// client input against it is refused.
	if s.advancing && clientID != "" {
		s.logger.Debug("command ignored during transition",
			zap.String("client", clientID),
			zap.String("cmd", string(cmd.Type)),
		)
		return
	}
	events, next, err := engine.Apply(s.state, cmd)
	switch {
	case errors.Is(err, engine.ErrPasswordRejected):
		s.fx.Rejected()
		directives := s.pending
		s.pending = nil
		s.sendTo(clientID, Snapshot{
			Version:    s.version,
			View:       s.view(),
			Directives: directives,
			Error:      s.content.Gate.ErrorText,
		})
		return
	case err != nil:
		s.logger.Debug("command ignored",
			zap.String("client", clientID),
			zap.String("cmd", string(cmd.Type)),
			zap.Error(err),
		)
		return
	}
	if len(events) == 0 {
		return
	}

	if !engine.ContainsEvent(events, engine.EvtSceneChanged) && !engine.ContainsEvent(events, engine.EvtQuestionChanged) {
		s.commit(events)
		return
	}

	// Music must start inside the user's gesture, not at the swap point.
	if engine.ContainsEvent(events, engine.EvtUnlocked) {
		s.music.Play()
		s.dirty = true
	}
	s.advancing = true
	id := s.coord.Begin(s.ctx, s.assetsFor(next), func() {
		s.advancing = false
		s.commit(events)
	})
	s.logger.Debug("transition scheduled",
		zap.Uint64("transition", id),
		zap.String("scene", string(next.Scene)),
		zap.Int("question", next.QuestionIndex),
	)
}

// commit folds a validated batch of events onto the live state. Events
// carry absolute targets, so a batch captured before an overlapping
// transition still lands on its own target.
func (s *Session) commit(events []engine.Event) {
	s.state = engine.Fold(s.state, events)
	s.version++
	s.dirty = true
	s.fx.Apply(events, s.state)

	for _, e := range events {
		switch e.Type {
		case engine.EvtSceneChanged, engine.EvtQuestionChanged:
			s.timerGen++
		case engine.EvtAnswerRecorded:
			s.timerGen++
			s.arm(s.feedbackDelay, engine.Command{Type: engine.CmdRevealMemories})
		case engine.EvtPhaseChanged:
			if e.Phase == engine.PhaseMemories {
				s.arm(s.nextDelay, engine.Command{Type: engine.CmdShowNext})
			}
		}
	}

	if engine.ContainsEvent(events, engine.EvtSceneChanged) || engine.ContainsEvent(events, engine.EvtQuestionChanged) {
		s.coord.Warm(s.ctx, s.successorAssets())
	}
}

func (s *Session) handleMusic(action MusicAction) {
	switch action {
	case MusicPlay:
		s.music.Play()
	case MusicPause:
		s.music.Pause()
	case MusicToggle:
		s.music.Toggle()
	case MusicBlocked:
		s.music.Blocked()
	default:
		s.logger.Debug("unknown music action", zap.String("action", string(action)))
		return
	}
	s.dirty = true
}

// arm schedules cmd after d. A fire whose generation is stale by then is
// dropped by the loop.
func (s *Session) arm(d time.Duration, cmd engine.Command) {
	gen := s.timerGen
	s.clock.AfterFunc(d, func() { s.send(timerFired{gen: gen, cmd: cmd}) })
}

func (s *Session) send(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

func (s *Session) post(f func()) { s.send(run{fn: f}) }

func (s *Session) collect(d effects.Directive) {
	s.pending = append(s.pending, d)
}

// flush broadcasts once per processed message if anything changed.
func (s *Session) flush() {
	if !s.dirty && len(s.pending) == 0 {
		return
	}
	snap := Snapshot{Version: s.version, View: s.view(), Directives: s.pending}
	s.pending = nil
	s.dirty = false
	s.broadcast(snap)
}

// assetsFor lists what must be loaded before the cover may show for a
// transition into st.
func (s *Session) assetsFor(st engine.State) []string {
	url := s.backgroundFor(st.Scene, st.QuestionIndex)
	if url == "" {
		return nil
	}
	return []string{url}
}

// successorAssets lists what the next step will need: the next question's
// background and memories, or the following scene's background.
func (s *Session) successorAssets() []string {
	st := s.state
	var urls []string
	if st.Scene == engine.SceneQuestion {
		if q, ok := s.content.Question(st.QuestionIndex + 1); ok {
			urls = append(urls, s.backgroundFor(engine.SceneQuestion, st.QuestionIndex+1))
			for _, m := range q.Memories {
				urls = append(urls, m.URL)
			}
			return compact(urls)
		}
		urls = append(urls, s.backgroundFor(engine.SceneProposal, 0))
		return compact(urls)
	}
	if st.Scene == engine.SceneHook {
		if q, ok := s.content.Question(0); ok {
			for _, m := range q.Memories {
				urls = append(urls, m.URL)
			}
		}
	}
	if next, ok := engine.Successor(st.Scene); ok {
		urls = append(urls, s.backgroundFor(next, 0))
	}
	return compact(urls)
}

func (s *Session) backgroundFor(scene engine.Scene, index int) string {
	override := ""
	if scene == engine.SceneQuestion {
		override = s.content.Backdrop(index)
	}
	return s.backdrop.Resolve(effects.For(scene).Background, override)
}

func (s *Session) sendTo(clientID string, snap Snapshot) {
	ch, ok := s.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- snap:
	default:
		close(ch)
		delete(s.clients, clientID)
	}
}

func (s *Session) shutdown() {
	for id, ch := range s.clients {
		close(ch) // Tell client no more snapshots
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(s.clients, id)
		}
	}
}

func compact(urls []string) []string {
	out := urls[:0]
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
