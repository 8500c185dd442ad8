package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "./data/focusflow.db", cfg.DBPath)
	require.Equal(t, "./migrations", cfg.MigrationsDir)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 72*time.Hour, cfg.TokenTTL)
	require.Equal(t, 30*time.Second, cfg.LeaderboardCacheTTL)
	require.NotEmpty(t, cfg.CORSOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("TOKEN_TTL_HOURS", "24")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "9999", cfg.Port)
	require.Equal(t, "env-secret", cfg.JWTSecret)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"7070\"\ndb_path: /tmp/flow.db\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "7070", cfg.Port)
	require.Equal(t, "/tmp/flow.db", cfg.DBPath)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNonPositiveTTLFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL_HOURS", "-5")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 72*time.Hour, cfg.TokenTTL)
}
