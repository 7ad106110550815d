package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_analyzer/internal/platform/db"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadWith_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadWith("", envOf(nil))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.GenerationRPM)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, db.DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, db.DefaultSQLitePath, cfg.DB.Path)
	assert.True(t, cfg.DB.RunMigrations)
	assert.Equal(t, 24*time.Hour, cfg.Cache.PlanTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.LLM.APIKey())
}

func TestLoadWith_Env(t *testing.T) {
	t.Parallel()

	cfg, err := LoadWith("", envOf(map[string]string{
		"PORT":           "9090",
		"GENERATION_RPM": "0",
		"LLM_PROVIDER":   "OpenAI",
		"OPENAI_API_KEY": "sk-test",
		"LLM_MODEL":      "gpt-4o-mini",
		"LLM_TIMEOUT":    "45s",
		"DB_DRIVER":      "postgres",
		"DB_HOST":        "db",
		"DB_USER":        "app",
		"DB_NAME":        "plans",
		"RUN_MIGRATIONS": "false",
		"REDIS_HOST":     "cache",
		"PLAN_CACHE_TTL": "10m",
		"LOG_FORMAT":     "json",
	}))

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0, cfg.Server.GenerationRPM)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey())
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, db.DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "db", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.False(t, cfg.DB.RunMigrations)
	assert.Equal(t, "cache", cfg.Redis.Host)
	assert.Equal(t, 10*time.Minute, cfg.Cache.PlanTTL)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadWith_GeminiKeyPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "google key only", env: map[string]string{"GOOGLE_API_KEY": "g"}, want: "g"},
		{name: "gemini key wins", env: map[string]string{"GOOGLE_API_KEY": "g", "GEMINI_API_KEY": "gem"}, want: "gem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := LoadWith("", envOf(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LLM.APIKey())
		})
	}
}

func TestLoadWith_YAMLThenEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
  generation_rpm: 5
llm:
  provider: openai
  openai_api_key: from-file
  timeout: 30s
db:
  driver: memory
cache:
  plan_ttl: 1h
log:
  level: debug
`), 0o600))

	cfg, err := LoadWith(path, envOf(map[string]string{"PORT": "7001"}))

	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.GenerationRPM)
	assert.Equal(t, 3, cfg.Server.GenerationBurst)
	assert.Equal(t, "from-file", cfg.LLM.APIKey())
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.PlanTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadWith_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		env  map[string]string
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope.yaml")},
		{name: "invalid integer", env: map[string]string{"GENERATION_RPM": "ten"}},
		{name: "invalid duration", env: map[string]string{"LLM_TIMEOUT": "soon"}},
		{name: "invalid boolean", env: map[string]string{"RUN_MIGRATIONS": "maybe"}},
		{name: "unknown provider", env: map[string]string{"LLM_PROVIDER": "llama"}},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "mysql"}},
		{name: "negative rpm", env: map[string]string{"GENERATION_RPM": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadWith(tt.path, envOf(tt.env))
			assert.Error(t, err)
		})
	}
}
