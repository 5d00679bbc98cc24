package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/config"
	"github.com/MmmDelicious/lovememory-sub007/internal/db"
	"github.com/MmmDelicious/lovememory-sub007/internal/game"
	httpServer "github.com/MmmDelicious/lovememory-sub007/internal/http"
	"github.com/MmmDelicious/lovememory-sub007/internal/http/handlers"
	"github.com/MmmDelicious/lovememory-sub007/internal/http/middleware"
	"github.com/MmmDelicious/lovememory-sub007/internal/logger"
	"github.com/MmmDelicious/lovememory-sub007/internal/migrations"
	"github.com/MmmDelicious/lovememory-sub007/internal/repository"
	"github.com/MmmDelicious/lovememory-sub007/internal/service"
	"github.com/MmmDelicious/lovememory-sub007/internal/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.PlayerTTL, cfg.ResumeTTL)
	if err != nil {
		logger.Fatal("token service", "error", err)
	}

	opts := ws.Options{
		GracePeriod:  cfg.GracePeriod,
		MessageRate:  rate.Limit(cfg.WSRateLimit),
		MessageBurst: cfg.WSRateBurst,
		Tokens:       tokens,
		PokerDefaults: game.Config{
			SmallBlind: cfg.PokerSmallBlind,
			BigBlind:   cfg.PokerBigBlind,
			MaxBuyIn:   cfg.PokerMaxBuyIn,
		},
	}
	checks := map[string]handlers.Pinger{}

	var results handlers.ResultLister
	if cfg.DatabaseURL != "" {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()

		repo := repository.NewMatchResultRepository(pool)
		opts.Results = repo
		results = repo
		checks["database"] = pool
	} else {
		logger.Warn("DATABASE_URL is not set, match results will not be recorded")
	}

	opts.Snapshots = repository.NewMemorySnapshotStore()
	if cfg.RedisAddr != "" {
		if rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
			defer rdb.Close()
			middleware.InitRedisRateLimiter(rdb)
			opts.Snapshots = repository.NewRedisSnapshotStore(rdb, repository.DefaultSnapshotTTL)
			checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
		}
	}

	hub := ws.NewHub(opts)
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 10*time.Second)
	n, err := hub.Restore(restoreCtx)
	cancelRestore()
	if err != nil {
		logger.Error("restore rooms failed", "error", err)
	} else if n > 0 {
		logger.Info("rooms restored", "count", n)
	}
	hub.StartCleanup()

	r := gin.New()
	r.Use(gin.Recovery())

	h := handlers.NewHandler(hub, tokens, results, cfg.AllowedOrigins)
	health := handlers.NewHealthHandler(hub, version, checks)
	httpServer.RegisterRoutes(r, h, health, httpServer.RouteOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		APIRateLimit:   cfg.APIRateLimit,
		APIRateWindow:  cfg.APIRateWindow,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := hub.Shutdown(ctx); err != nil {
		logger.Error("rooms did not shut down cleanly", "error", err)
	}

	logger.Info("server exited")
}
