package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chessroom/internal/limiter"
	"chessroom/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

const redisTimeout = 500 * time.Millisecond

// NewRedisClient connects and pings. Callers fall back to the in-process
// limiter when it returns an error.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// RateLimit picks the Redis fixed-window limiter when rdb is set and the local
// sliding window otherwise.
func RateLimit(rdb *redis.Client, local *limiter.SlidingWindow, name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := LocalRateLimit(local, name, maxRequests, window)
	if rdb == nil {
		return fallback
	}
	return RedisRateLimit(rdb, fallback, name, maxRequests, window)
}

// RedisRateLimit implements a fixed-window limiter using Redis INCR/EXPIRE,
// shared by every instance behind the same Redis.
// key format: rl:<name>:<window_seconds>:<ip>
func RedisRateLimit(rdb *redis.Client, fallback gin.HandlerFunc, name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		ctx, cancel := context.WithTimeout(c.Request.Context(), redisTimeout)
		defer cancel()

		val, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("redis rate limit unavailable, using local limiter", "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			fallback(c)
			return
		}

		if val == 1 {
			rdb.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(name, "redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(name, "redis").Inc()
		c.Next()
	}
}
