package middleware

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"chessroom/internal/limiter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	rdb, err := NewRedisClient(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NoError(t, err)
	defer rdb.Close()

	// unique name so reruns inside one window do not collide
	name := "test" + strconv.FormatInt(time.Now().UnixNano(), 36)
	r := newLimitedRouter(RateLimit(rdb, limiter.NewSlidingWindow(), name, 2, 2*time.Second))

	assert.Equal(t, http.StatusCreated, post(r, "10.1.0.1"))
	assert.Equal(t, http.StatusCreated, post(r, "10.1.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, post(r, "10.1.0.1"))
}
