package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	CORSOrigins   []string
	InviteBaseURL string

	DisconnectGrace time.Duration
	IdleRoomTimeout time.Duration
	SweepInterval   time.Duration

	// make_move throttle, per connection
	MoveRateLimit  int
	MoveRateWindow time.Duration

	// POST /api/rooms throttle, per IP
	RoomRateLimit  int
	RoomRateWindow time.Duration

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool
}

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:4173"}

// Load reads the environment (and a .env file when present). Invalid numbers
// fall back to their defaults; a malformed invite URL is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "3001"
	}

	inviteBase := envString("INVITE_BASE_URL", "http://localhost:5173")
	if err := validateBaseURL(inviteBase); err != nil {
		return nil, fmt.Errorf("INVITE_BASE_URL: %w", err)
	}

	cfg := &Config{
		AppPort:       port,
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS"), defaultCORSOrigins),
		InviteBaseURL: inviteBase,

		DisconnectGrace: envMillis("DISCONNECT_HOLD_MS", 10*time.Minute),
		IdleRoomTimeout: envMillis("IDLE_ROOM_MS", 30*time.Minute),
		SweepInterval:   envMillis("SWEEP_INTERVAL_MS", time.Minute),

		MoveRateLimit:  envInt("MOVE_RATE_LIMIT", 10),
		MoveRateWindow: envMillis("MOVE_RATE_WINDOW_MS", time.Second),

		RoomRateLimit:  envInt("ROOM_RATE_LIMIT", 20),
		RoomRateWindow: time.Duration(envInt("ROOM_RATE_WINDOW_SECONDS", 60)) * time.Second,

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envIntAllowZero("REDIS_DB", 0),

		LogLevel: envString("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envIntAllowZero(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

// splitList parses a comma separated list, ignoring blanks.
func splitList(raw string, def []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
