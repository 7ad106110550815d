// Package config はアプリケーション設定を読み込みます。
// 優先順位は「デフォルト値 < YAMLファイル（CONFIG_FILE） < 環境変数」です。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"company_analyzer/internal/platform/db"
	"company_analyzer/internal/platform/logger"
	"company_analyzer/internal/platform/redis"
)

// LLMプロバイダ名です。
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DriverMemory はプロセス内メモリに計画書を保存するドライバ名です。
const DriverMemory = "memory"

// Config はアプリケーション全体の設定です。
type Config struct {
	Server ServerConfig  `yaml:"server"`
	LLM    LLMConfig     `yaml:"llm"`
	DB     db.Config     `yaml:"db"`
	Redis  redis.Config  `yaml:"redis"`
	Cache  CacheConfig   `yaml:"cache"`
	Log    logger.Config `yaml:"log"`
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Port string `yaml:"port"`
	// GenerationRPM は生成系エンドポイントの1分あたりの上限です。0で無制限です。
	GenerationRPM   int `yaml:"generation_rpm"`
	GenerationBurst int `yaml:"generation_burst"`
}

// LLMConfig は言語モデルプロバイダの設定です。
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	OpenAIAPIKey string        `yaml:"openai_api_key"`
	Model        string        `yaml:"model"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// APIKey は選択中のプロバイダのAPIキーを返します。
func (c LLMConfig) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// CacheConfig はRedisキャッシュの設定です。
type CacheConfig struct {
	PlanTTL time.Duration `yaml:"plan_ttl"`
}

// Default はデフォルト値の設定を返します。
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			GenerationRPM:   10,
			GenerationBurst: 3,
		},
		LLM: LLMConfig{
			Provider: ProviderGemini,
			Timeout:  120 * time.Second,
		},
		DB: db.Config{
			Driver:        db.DriverSQLite,
			Path:          db.DefaultSQLitePath,
			Port:          "5432",
			RunMigrations: true,
			Timeout:       db.DefaultConnectTimeout,
		},
		Cache: CacheConfig{PlanTTL: 24 * time.Hour},
		Log:   logger.Config{Level: "info", Format: "text"},
	}
}

// Load は CONFIG_FILE と環境変数から設定を読み込みます。
func Load() (*Config, error) {
	return LoadWith(os.Getenv("CONFIG_FILE"), os.Getenv)
}

// LoadWith は指定されたYAMLファイル（空なら省略）と環境変数取得関数から設定を読み込みます。
func LoadWith(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は列挙値の設定が正しいかを確認します。
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unsupported llm provider %q", c.LLM.Provider))
	}
	switch c.DB.Driver {
	case db.DriverSQLite, db.DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DB.Driver))
	}
	if c.Server.GenerationRPM < 0 {
		errs = append(errs, errors.New("generation rpm must not be negative"))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	env := envReader{getenv: getenv}

	env.strVar("PORT", &cfg.Server.Port)
	env.intVar("GENERATION_RPM", &cfg.Server.GenerationRPM)
	env.intVar("GENERATION_BURST", &cfg.Server.GenerationBurst)

	env.strVar("LLM_PROVIDER", &cfg.LLM.Provider)
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	// GEMINI_API_KEY を GOOGLE_API_KEY より優先します。
	env.strVar("GOOGLE_API_KEY", &cfg.LLM.GeminiAPIKey)
	env.strVar("GEMINI_API_KEY", &cfg.LLM.GeminiAPIKey)
	env.strVar("OPENAI_API_KEY", &cfg.LLM.OpenAIAPIKey)
	env.strVar("LLM_MODEL", &cfg.LLM.Model)
	env.strVar("LLM_BASE_URL", &cfg.LLM.BaseURL)
	env.durationVar("LLM_TIMEOUT", &cfg.LLM.Timeout)

	env.strVar("DB_DRIVER", &cfg.DB.Driver)
	cfg.DB.Driver = strings.ToLower(cfg.DB.Driver)
	env.strVar("DB_PATH", &cfg.DB.Path)
	env.strVar("DB_HOST", &cfg.DB.Host)
	env.strVar("DB_PORT", &cfg.DB.Port)
	env.strVar("DB_USER", &cfg.DB.User)
	env.strVar("DB_PASSWORD", &cfg.DB.Password)
	env.strVar("DB_NAME", &cfg.DB.Name)
	env.strVar("DB_SSLMODE", &cfg.DB.SSLMode)
	env.boolVar("RUN_MIGRATIONS", &cfg.DB.RunMigrations)

	env.strVar("REDIS_HOST", &cfg.Redis.Host)
	env.strVar("REDIS_PORT", &cfg.Redis.Port)
	env.strVar("REDIS_PASSWORD", &cfg.Redis.Password)
	env.durationVar("PLAN_CACHE_TTL", &cfg.Cache.PlanTTL)

	env.strVar("LOG_LEVEL", &cfg.Log.Level)
	env.strVar("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(env.errs...)
}

// envReader は設定済みの環境変数だけを上書きし、変換エラーを蓄積します。
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(r.getenv(key))
	return v, v != ""
}

func (r *envReader) strVar(key string, dst *string) {
	if v, ok := r.lookup(key); ok {
		*dst = v
	}
}

func (r *envReader) intVar(key string, dst *int) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return
	}
	*dst = n
}

func (r *envReader) boolVar(key string, dst *bool) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return
	}
	*dst = b
}

func (r *envReader) durationVar(key string, dst *time.Duration) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return
	}
	*dst = d
}
