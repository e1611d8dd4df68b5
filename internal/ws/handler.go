package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/scene-quest/internal/engine"
	"github.com/DoyleJ11/scene-quest/internal/hub"
	"github.com/DoyleJ11/scene-quest/internal/session"
	"github.com/DoyleJ11/scene-quest/internal/types"
)

type Options struct {
	// ReadTimeout closes a connection that sends nothing for this long.
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	OriginPatterns []string
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Minute
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		s := <-reply
		if s == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		logger := opts.Logger.With(zap.String("session", code), zap.String("client", clientID))
		logger.Debug("client joined")

		out := make(chan session.Snapshot, 16)
		select {
		case s.Inbox() <- session.Join{ClientID: clientID, Outbox: out}:
		case <-s.Done():
			return
		}
		defer func() {
			select {
			case s.Inbox() <- session.Leave{ClientID: clientID}:
			case <-s.Done():
			}
			logger.Debug("client left")
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{
					Type:       "StateSnapshot",
					Version:    snap.Version,
					View:       &snap.View,
					Directives: snap.Directives,
					Error:      snap.Error,
				}
				if err := write(writeCtx, conn, opts.WriteTimeout, msg); err != nil {
					logger.Debug("snapshot write failed", zap.Error(err))
				}
			}
			// Outbox closed: the session dropped us or shut down.
			conn.Close(websocket.StatusGoingAway, "session closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), opts.ReadTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					logger.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(r.Context(), conn, opts.WriteTimeout, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			msg, ok := toSessionMsg(clientID, cm)
			if !ok {
				_ = write(r.Context(), conn, opts.WriteTimeout, types.ServerMessage{Type: "Error", Error: "unknown type"})
				continue
			}

			select {
			case s.Inbox() <- msg:
			case <-s.Done():
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, timeout time.Duration, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func toSessionMsg(clientID string, m types.ClientMessage) (session.Msg, bool) {
	if action, ok := musicActions[m.Type]; ok {
		return session.Music{Action: action}, true
	}
	cmd, ok := toEngineCommand(m)
	if !ok {
		return nil, false
	}
	return session.FromClient{ClientID: clientID, Cmd: cmd}, true
}

var musicActions = map[string]session.MusicAction{
	"ToggleMusic":     session.MusicToggle,
	"PlayMusic":       session.MusicPlay,
	"PauseMusic":      session.MusicPause,
	"AutoplayBlocked": session.MusicBlocked,
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case "SubmitPassword":
		return engine.Command{Type: engine.CmdSubmitPassword, Input: m.Input}, true
	case "GateInput":
		return engine.Command{Type: engine.CmdGateInput, Input: m.Input}, true
	case "Continue":
		return engine.Command{Type: engine.CmdContinue}, true
	case "SelectAnswer":
		return engine.Command{Type: engine.CmdSelectAnswer, Option: m.Option}, true
	case "NextQuestion":
		return engine.Command{Type: engine.CmdAdvanceQuestion}, true
	case "AcceptProposal":
		return engine.Command{Type: engine.CmdAcceptProposal}, true
	case "OpenReplay":
		return engine.Command{Type: engine.CmdOpenReplay, Item: m.Replay()}, true
	case "CloseReplay":
		return engine.Command{Type: engine.CmdCloseReplay}, true
	default:
		return engine.Command{}, false
	}
}
