package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"company_analyzer/internal/app/config"
	"company_analyzer/internal/app/di"
	"company_analyzer/internal/app/router"
	"company_analyzer/internal/feature/analysis/adapters/document"
	analysishandler "company_analyzer/internal/feature/analysis/transport/handler"
	"company_analyzer/internal/feature/analysis/usecase"
	infradb "company_analyzer/internal/platform/db"
	"company_analyzer/internal/platform/http/handler"
	"company_analyzer/internal/platform/logger"
	"company_analyzer/internal/platform/metrics"
	infraredis "company_analyzer/internal/platform/redis"
	"company_analyzer/internal/shared/ratelimiter"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthChecks := map[string]handler.Check{}

	// db
	var db *gorm.DB
	if cfg.DB.Driver != config.DriverMemory {
		db, err = infradb.OpenDB(cfg.DB)
		if err != nil {
			slog.Error("failed to open database", "driver", cfg.DB.Driver, "error", err)
			os.Exit(1)
		}
		sqlDB, err := db.DB()
		if err != nil {
			slog.Error("failed to get sql.DB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := sqlDB.Close(); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		}()
		healthChecks["db"] = sqlDB.PingContext
	} else {
		slog.Warn("using in-memory plan store; plans are lost on restart")
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(cfg.Redis); err != nil {
		if !errors.Is(err, infraredis.ErrNotConfigured) {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		}
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// Model client
	model, err := di.NewModelClient(ctx, cfg.LLM)
	if err != nil {
		slog.Error("failed to create model client", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}

	// Repository / Usecase / Handler
	m := metrics.New()
	plans := di.NewPlanRepository(db, rdb, cfg.Cache.PlanTTL)
	analysisUC := usecase.NewAnalysisUsecase(model, plans, document.NewMarkdownRenderer(), usecase.WithRecorder(m))
	analysisH := analysishandler.NewAnalysisHandler(analysisUC)

	// ルータ生成
	r := router.NewRouter(router.Deps{
		Analysis:     analysisH,
		Metrics:      m,
		Limiter:      ratelimiter.NewRateLimiter(cfg.Server.GenerationRPM, cfg.Server.GenerationBurst),
		HealthChecks: healthChecks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "provider", cfg.LLM.Provider, "db_driver", cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
