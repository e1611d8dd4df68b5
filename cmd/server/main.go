package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/scene-quest/internal/config"
	"github.com/DoyleJ11/scene-quest/internal/content"
	"github.com/DoyleJ11/scene-quest/internal/httpapi"
	"github.com/DoyleJ11/scene-quest/internal/hub"
	"github.com/DoyleJ11/scene-quest/internal/logging"
	"github.com/DoyleJ11/scene-quest/internal/preload"
	"github.com/DoyleJ11/scene-quest/internal/session"
	"github.com/DoyleJ11/scene-quest/internal/transition"
	"github.com/DoyleJ11/scene-quest/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	c := content.Default()
	if cfg.ContentPath != "" {
		if c, err = content.Load(cfg.ContentPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	media := preload.NewCache(os.DirFS(cfg.MediaDir), cfg.PreloadWorkers, logger.Named("preload"))

	timing := transition.DefaultTiming()
	timing.Total = cfg.TransitionTotal
	timing.PreloadTimeout = cfg.PreloadTimeout

	h := hub.NewHub(ctx, session.Options{
		Content:          c,
		Timing:           timing,
		Preloader:        media,
		CancelSuperseded: cfg.CancelSuperseded,
		FeedbackDelay:    cfg.FeedbackDelay,
		NextDelay:        cfg.NextDelay,
		Logger:           logger.Named("session"),
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, media, ws.Options{
		ReadTimeout:    cfg.WSReadTimeout,
		OriginPatterns: cfg.AllowedOrigins,
	}, logger.Named("http"))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Int("questions", len(c.Questions)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	if cfg.WatchContent {
		w, err := content.NewWatcher(cfg.ContentPath, 0, func(c *content.Content) {
			select {
			case h.Inbox() <- hub.SetContent{Content: c}:
			case <-gctx.Done():
			}
		}, logger.Named("content"))
		if err != nil {
			return err
		}
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		default: // hub already stopped with ctx
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
