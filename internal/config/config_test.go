package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_PORT", "PORT", "CORS_ORIGINS", "INVITE_BASE_URL",
	"DISCONNECT_HOLD_MS", "IDLE_ROOM_MS", "SWEEP_INTERVAL_MS",
	"MOVE_RATE_LIMIT", "MOVE_RATE_WINDOW_MS", "ROOM_RATE_LIMIT", "ROOM_RATE_WINDOW_SECONDS",
	"DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LOG_LEVEL", "LOG_JSON",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.AppPort)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:4173"}, cfg.CORSOrigins)
	assert.Equal(t, "http://localhost:5173", cfg.InviteBaseURL)
	assert.Equal(t, 600000*time.Millisecond, cfg.DisconnectGrace)
	assert.Equal(t, 1800000*time.Millisecond, cfg.IdleRoomTimeout)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 10, cfg.MoveRateLimit)
	assert.Equal(t, time.Second, cfg.MoveRateWindow)
	assert.Equal(t, 20, cfg.RoomRateLimit)
	assert.Equal(t, time.Minute, cfg.RoomRateWindow)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("INVITE_BASE_URL", "https://chess.example.com/play/")
	t.Setenv("DISCONNECT_HOLD_MS", "5000")
	t.Setenv("IDLE_ROOM_MS", "60000")
	t.Setenv("MOVE_RATE_LIMIT", "3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "0")
	t.Setenv("LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "https://chess.example.com/play/", cfg.InviteBaseURL)
	assert.Equal(t, 5*time.Second, cfg.DisconnectGrace)
	assert.Equal(t, time.Minute, cfg.IdleRoomTimeout)
	assert.Equal(t, 3, cfg.MoveRateLimit)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.True(t, cfg.LogJSON)
}

func TestLoad_AppPortWinsOverPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "8081")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.AppPort)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCONNECT_HOLD_MS", "soon")
	t.Setenv("MOVE_RATE_LIMIT", "-4")
	t.Setenv("ROOM_RATE_WINDOW_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.DisconnectGrace)
	assert.Equal(t, 10, cfg.MoveRateLimit)
	assert.Equal(t, time.Minute, cfg.RoomRateWindow)
}

func TestLoad_RejectsBadInviteURL(t *testing.T) {
	for _, raw := range []string{"localhost:5173", "ftp://files.test", "https://"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("INVITE_BASE_URL", raw)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
