// Package db はGORMによるデータベース接続を提供します。SQLiteとPostgreSQLに対応します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	analysisadapters "company_analyzer/internal/feature/analysis/adapters"
)

// サポートするドライバ名です。
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	// DefaultSQLitePath はSQLiteファイルのデフォルトパスです。
	DefaultSQLitePath = "company_analyzer.db"
	// DefaultConnectTimeout は接続リトライを打ち切るまでの時間です。
	DefaultConnectTimeout = 60 * time.Second

	retryInterval = 3 * time.Second
)

// Config はデータベース接続設定です。
type Config struct {
	Driver        string        `yaml:"driver"`
	Path          string        `yaml:"path"`
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Name          string        `yaml:"name"`
	SSLMode       string        `yaml:"sslmode"`
	RunMigrations bool          `yaml:"run_migrations"`
	Timeout       time.Duration `yaml:"connect_timeout"`
}

// BuildDSN はドライバに応じた接続文字列を組み立てます。
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverPostgres {
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
	}

	path := cfg.Path
	if path == "" {
		path = DefaultSQLitePath
	}
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	// 書き込みロック待ちでエラーにならないよう busy_timeout を設定
	return path + "?_busy_timeout=5000"
}

// Dialector はドライバ名に対応するGORMのダイアレクタを返します。
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ConnectWithRetry は timeout に達するまで一定間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従って接続し、必要ならマイグレーションを実行します。
// SQLiteでは書き込みを直列化するため接続数を1に制限します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	dsn := BuildDSN(cfg)
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, timeout, func(string) (*gorm.DB, error) {
		return gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	})
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.RunMigrations {
		if err := db.AutoMigrate(&analysisadapters.PlanModel{}); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}
