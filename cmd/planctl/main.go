// planctl は保存済みの事業計画書を一覧・表示・削除・出力するメンテナンス用CLIです。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"company_analyzer/internal/app/config"
	"company_analyzer/internal/app/di"
	"company_analyzer/internal/feature/analysis/adapters/document"
	"company_analyzer/internal/feature/analysis/usecase"
	infradb "company_analyzer/internal/platform/db"
	"company_analyzer/internal/platform/logger"
	infraredis "company_analyzer/internal/platform/redis"

	redisv9 "github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load(".env")

	svc, cleanup, err := openService()
	if err != nil {
		printError(os.Stderr, "Error: %v", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := newRootCmd(svc, os.Stdout).ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, "Error: %v", err)
		cleanup()
		os.Exit(1)
	}
}

// openService はサーバーと同じ設定で計画書ストアに接続します。
// モデル呼び出しは行わないため、モデルクライアントは設定しません。
func openService() (planService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Setup(logger.Config{Level: "warn", Format: cfg.Log.Format})

	if cfg.DB.Driver == config.DriverMemory {
		return nil, nil, errors.New("planctl requires a persistent database (DB_DRIVER=sqlite or postgres)")
	}
	db, err := infradb.OpenDB(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 削除時にサーバー側のキャッシュも無効化するため、Redisが使えれば経由する
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(cfg.Redis); err == nil {
		rdb = tmp
	}

	cleanup := func() {
		_ = sqlDB.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	plans := di.NewPlanRepository(db, rdb, cfg.Cache.PlanTTL)
	return usecase.NewAnalysisUsecase(nil, plans, document.NewMarkdownRenderer()), cleanup, nil
}
