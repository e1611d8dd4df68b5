package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/scene-quest/internal/content"
	"github.com/DoyleJ11/scene-quest/internal/session"
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Code  string
	Reply chan *session.Session
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

type EnsureSession struct {
	Code  string
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

// SetContent swaps the content used for sessions created from now on.
// Running sessions keep the content they started with.
type SetContent struct {
	Content *content.Content
}

type CountSessions struct {
	Reply chan int
}

type ShutdownHub struct{}

// sessionDone is posted when a session stops on its own.
type sessionDone struct {
	Code    string
	Session *session.Session
}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	base     session.Options
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (SetContent) isHubMsg()    {}
func (CountSessions) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}
func (sessionDone) isHubMsg()   {}

// NewHub starts the hub loop. base is the template every new session is
// created from.
func NewHub(parent context.Context, base session.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if base.Content == nil {
		base.Content = content.Default()
	}
	if base.Logger == nil {
		base.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		base:     base,
		ctx:      ctx,
		cancel:   cancel,
		logger:   base.Logger,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession, EnsureSession:
				code, reply := sessionRequest(msg)
				if s := h.sessions[code]; s != nil {
					reply <- s
					break
				}
				reply <- h.start(code)

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case RemoveSession:
				if s := h.sessions[msg.Code]; s != nil {
					select {
					case s.Inbox() <- session.Shutdown{}:
					case <-s.Done():
					}
					delete(h.sessions, msg.Code)
				}

			case sessionDone:
				if h.sessions[msg.Code] == msg.Session {
					delete(h.sessions, msg.Code)
				}

			case SetContent:
				if msg.Content == nil {
					break
				}
				h.base.Content = msg.Content
				h.logger.Info("content updated for new sessions", zap.Int("questions", len(msg.Content.Questions)))

			case CountSessions:
				msg.Reply <- len(h.sessions)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func sessionRequest(m HubMsg) (string, chan *session.Session) {
	switch msg := m.(type) {
	case CreateSession:
		return msg.Code, msg.Reply
	case EnsureSession:
		return msg.Code, msg.Reply
	}
	return "", nil
}

func (h *Hub) start(code string) *session.Session {
	s := session.New(h.ctx, code, h.base)
	h.sessions[code] = s
	h.logger.Info("session created", zap.String("session", code))

	go func() {
		<-s.Done()
		select {
		case h.inbox <- sessionDone{Code: code, Session: s}:
		case <-h.ctx.Done():
		}
	}()
	return s
}

func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		select {
		case s.Inbox() <- session.Shutdown{}:
		default:
		}
	}
	clear(h.sessions)
	h.cancel()
}
