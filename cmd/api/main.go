package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/api"
	"github.com/llm-duel/backend/internal/bootstrap"
	"github.com/llm-duel/backend/internal/cache/redis"
	"github.com/llm-duel/backend/internal/guard"
	"github.com/llm-duel/backend/internal/metrics"
	"github.com/llm-duel/backend/internal/middleware/ratelimit"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/pkg/config"
	appLogger "github.com/llm-duel/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting LLM Duel API Server",
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.String("generation_model", cfg.Generation.Model),
		zap.String("analysis_provider", cfg.Analysis.Provider),
		zap.String("analysis_model", cfg.Analysis.Model),
	)

	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	ctx := context.Background()

	orchestrator, err := bootstrap.Orchestrator(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create orchestrator", zap.Error(err))
	}

	var runGuard guard.Guard = guard.NewMemory()
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.LockTTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		runGuard = redisClient
	}

	store := session.NewStore(orchestrator, runGuard)

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		CleanupInterval:      5 * time.Minute,
		Logger:               appLogger.Named("ratelimit"),
	})
	defer limiter.Stop()

	app := api.New(api.Options{
		Config:    cfg,
		Store:     store,
		Limiter:   limiter,
		AccessLog: true,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
