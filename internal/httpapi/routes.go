package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/scene-quest/internal/hub"
	"github.com/DoyleJ11/scene-quest/internal/ws"
)

// MediaPrefixes are the URL roots content refers to; all of them are
// served from the media handler.
var MediaPrefixes = []string{"/media", "/backgrounds", "/audio", "/sfx"}

func SetupRoutes(h *hub.Hub, media http.Handler, wsOpts ws.Options, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	wsOpts.Logger = logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	// Public routes
	r.Post("/sessions", CreateSession(h, logger))
	r.Get("/sessions/{code}", GetSession(h))
	r.Get("/healthz", Healthz(h))
	r.Get("/ws", ws.Handler(h, wsOpts))

	if media != nil {
		for _, prefix := range MediaPrefixes {
			r.Handle(prefix+"/*", media)
		}
	}
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
