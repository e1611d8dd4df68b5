// Package config reads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string        `env:"QUEST_ADDR"             envDefault:":8080"`
	LogLevel        string        `env:"QUEST_LOG_LEVEL"        envDefault:"info"`
	LogDevelopment  bool          `env:"QUEST_LOG_DEV"          envDefault:"false"`
	ContentPath     string        `env:"QUEST_CONTENT_PATH"`
	WatchContent    bool          `env:"QUEST_WATCH_CONTENT"    envDefault:"false"`
	MediaDir        string        `env:"QUEST_MEDIA_DIR"        envDefault:"./public"`
	PreloadWorkers  int           `env:"QUEST_PRELOAD_WORKERS"  envDefault:"4"`
	PreloadTimeout  time.Duration `env:"QUEST_PRELOAD_TIMEOUT"  envDefault:"3s"`
	TransitionTotal time.Duration `env:"QUEST_TRANSITION_TOTAL" envDefault:"2400ms"`
	FeedbackDelay   time.Duration `env:"QUEST_FEEDBACK_DELAY"   envDefault:"900ms"`
	NextDelay       time.Duration `env:"QUEST_NEXT_DELAY"       envDefault:"3s"`
	// CancelSuperseded abandons an overlapped transition instead of letting
	// its mutation fire.
	CancelSuperseded bool          `env:"QUEST_CANCEL_SUPERSEDED" envDefault:"false"`
	WSReadTimeout    time.Duration `env:"QUEST_WS_READ_TIMEOUT"   envDefault:"10m"`
	AllowedOrigins   []string      `env:"QUEST_ALLOWED_ORIGINS"   envSeparator:","`
	ShutdownTimeout  time.Duration `env:"QUEST_SHUTDOWN_TIMEOUT"  envDefault:"10s"`
}

// Load reads the given .env files (missing files are skipped) and then
// parses the environment. Variables already set win over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PreloadWorkers <= 0 {
		return fmt.Errorf("QUEST_PRELOAD_WORKERS must be positive, got %d", c.PreloadWorkers)
	}
	if c.TransitionTotal <= 0 {
		return fmt.Errorf("QUEST_TRANSITION_TOTAL must be positive, got %s", c.TransitionTotal)
	}
	if c.WatchContent && c.ContentPath == "" {
		return errors.New("QUEST_WATCH_CONTENT requires QUEST_CONTENT_PATH")
	}
	return nil
}
