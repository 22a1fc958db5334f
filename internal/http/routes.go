package http

import (
	"context"
	"fmt"
	"time"

	"chessroom/internal/config"
	"chessroom/internal/http/handlers"
	"chessroom/internal/http/middleware"
	"chessroom/internal/limiter"
	"chessroom/internal/room"
	"chessroom/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

type Deps struct {
	Config   *config.Config
	Registry *room.Registry
	Hub      *ws.Hub
	DB       *pgxpool.Pool // optional
	Redis    *redis.Client // optional
	Matches  handlers.MatchStore
	// RoomLimiter backs the room-creation throttle when Redis is absent.
	RoomLimiter *limiter.SlidingWindow
	Version     string
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

func RegisterRoutes(r *gin.Engine, d Deps) error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := ws.RegisterValidations(v); err != nil {
			return fmt.Errorf("register validations: %w", err)
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Metrics())

	deps := map[string]handlers.Pinger{}
	if d.DB != nil {
		deps["database"] = d.DB
	}
	if d.Redis != nil {
		deps["redis"] = redisPinger{d.Redis}
	}
	healthHandler := handlers.NewHealthHandler(d.Registry, deps, d.Version)
	h := handlers.NewHandler(d.Registry, d.Matches)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.RoomLimiter == nil {
		d.RoomLimiter = limiter.NewSlidingWindow()
	}
	roomLimit := middleware.RateLimit(d.Redis, d.RoomLimiter, "rooms", d.Config.RoomRateLimit, d.Config.RoomRateWindow)

	api := r.Group("/api")
	api.POST("/rooms", roomLimit, h.CreateRoom)
	api.GET("/rooms/:code", h.GetRoom)
	api.GET("/matches", h.ListMatches)
	api.GET("/matches/stats", h.MatchStats)

	r.GET("/ws", ws.HandleWS(d.Hub, d.Config.CORSOrigins))
	return nil
}
