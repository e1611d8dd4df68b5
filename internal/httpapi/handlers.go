package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/scene-quest/internal/hub"
	"github.com/DoyleJ11/scene-quest/internal/session"
)

const replyTimeout = 2 * time.Second

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateSession(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				logger.Error("generate session code", zap.Error(err))
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if lookup(r, h, c) == nil {
				code = c
				break
			}
			logger.Debug("collision on code, regenerating", zap.String("code", c))
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureSession{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// GetSession returns the current view of a session without joining it.
func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := lookup(r, h, chi.URLParam(r, "code"))
		if s == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		reply := make(chan session.Report, 1)
		select {
		case s.Inbox() <- session.GetState{Reply: reply}:
		case <-s.Done():
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		select {
		case rep := <-reply:
			writeJSON(w, http.StatusOK, struct {
				Version int          `json:"version"`
				Clients int          `json:"clients"`
				View    session.View `json:"view"`
			}{rep.Version, rep.NumClients, rep.View})
		case <-time.After(replyTimeout):
			http.Error(w, "session busy", http.StatusServiceUnavailable)
		case <-r.Context().Done():
		}
	}
}

func Healthz(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan int, 1)
		h.Inbox() <- hub.CountSessions{Reply: reply}
		select {
		case n := <-reply:
			writeJSON(w, http.StatusOK, struct {
				Status   string `json:"status"`
				Sessions int    `json:"sessions"`
			}{"ok", n})
		case <-time.After(replyTimeout):
			http.Error(w, "hub unresponsive", http.StatusServiceUnavailable)
		}
	}
}

func lookup(r *http.Request, h *hub.Hub, code string) *session.Session {
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
	select {
	case s := <-reply:
		return s
	case <-r.Context().Done():
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
