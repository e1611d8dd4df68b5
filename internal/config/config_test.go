package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.PreloadWorkers)
	assert.Equal(t, 2400*time.Millisecond, cfg.TransitionTotal)
	assert.Equal(t, 900*time.Millisecond, cfg.FeedbackDelay)
	assert.Equal(t, 3*time.Second, cfg.NextDelay)
	assert.False(t, cfg.CancelSuperseded)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUEST_ADDR", ":9999")
	t.Setenv("QUEST_FEEDBACK_DELAY", "250ms")
	t.Setenv("QUEST_ALLOWED_ORIGINS", "localhost:*,example.com")
	t.Setenv("QUEST_CANCEL_SUPERSEDED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.FeedbackDelay)
	assert.Equal(t, []string{"localhost:*", "example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.CancelSuperseded)
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QUEST_LOG_LEVEL=debug\nQUEST_ADDR=:7000\n"), 0o644))
	t.Setenv("QUEST_ADDR", ":7001")
	// Registered so t.Setenv restores the variable godotenv sets.
	t.Setenv("QUEST_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("QUEST_LOG_LEVEL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":7001", cfg.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "QUEST_NEXT_DELAY", "soon"},
		{"no workers", "QUEST_PRELOAD_WORKERS", "0"},
		{"watch without path", "QUEST_WATCH_CONTENT", "true"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
