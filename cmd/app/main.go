package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chessroom/internal/config"
	"chessroom/internal/db"
	httpServer "chessroom/internal/http"
	"chessroom/internal/http/handlers"
	"chessroom/internal/http/middleware"
	"chessroom/internal/limiter"
	"chessroom/internal/logger"
	"chessroom/internal/repository"
	"chessroom/internal/room"
	"chessroom/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pool     *pgxpool.Pool
		matches  handlers.MatchStore
		archiver ws.Archiver
	)
	if cfg.DatabaseURL != "" {
		pool, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database unavailable", "error", err)
		}
		defer pool.Close()

		repo := repository.NewMatchRepository(pool)
		matches, archiver = repo, repo
	} else {
		logger.Warn("DATABASE_URL not set; match archive disabled")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = middleware.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable; using in-process rate limiting", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	registry := room.NewRegistry(room.Options{
		InviteBaseURL:   cfg.InviteBaseURL,
		DisconnectGrace: cfg.DisconnectGrace,
		IdleTimeout:     cfg.IdleRoomTimeout,
	})
	roomLimiter := limiter.NewSlidingWindow()
	hub := ws.NewHub(registry, ws.HubConfig{
		MoveLimit:     cfg.MoveRateLimit,
		MoveWindow:    cfg.MoveRateWindow,
		SweepInterval: cfg.SweepInterval,
		Archiver:      archiver,
		Limiters:      []*limiter.SlidingWindow{roomLimiter},
	})

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	err = httpServer.RegisterRoutes(r, httpServer.Deps{
		Config:      cfg,
		Registry:    registry,
		Hub:         hub,
		DB:          pool,
		Redis:       rdb,
		Matches:     matches,
		RoomLimiter: roomLimiter,
		Version:     version,
	})
	if err != nil {
		logger.Fatal("register routes", "error", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	stopHub()
	<-hubDone

	logger.Info("server exited")
}
