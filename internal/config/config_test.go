package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/gazette/internal/config"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOllama, cfg.Backend.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Backend.Ollama.BaseURL)
	assert.Equal(t, "llama3:8b", cfg.Backend.Ollama.Model)
	assert.Equal(t, "pipeline_log.csv", cfg.Log.CSV)
	assert.Equal(t, domain.DefaultParameters(), cfg.Parameters)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazette.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  provider: mock
parameters:
  news_type: 科技
  max_retries: 4
store:
  kind: memory
  ttl: 1h
batch:
  concurrency: 3
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderMock, cfg.Backend.Provider)
	assert.Equal(t, "科技", cfg.Parameters.NewsType)
	assert.Equal(t, 4, cfg.Parameters.MaxRetries)
	assert.Equal(t, domain.DefaultTargetStyle, cfg.Parameters.TargetStyle, "unset keys keep defaults")
	assert.Equal(t, config.StoreMemory, cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv(config.EnvOllamaBaseURL, "http://gpu:11434")
	t.Setenv(config.EnvOllamaModel, "qwen2:7b")
	t.Setenv(config.EnvOllamaMock, "true")
	t.Setenv(config.EnvLogCSV, "out.csv")
	t.Setenv(config.EnvRedisAddr, "127.0.0.1:6379")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu:11434", cfg.Backend.Ollama.BaseURL)
	assert.Equal(t, "qwen2:7b", cfg.Backend.Ollama.Model)
	assert.Equal(t, config.ProviderMock, cfg.Backend.Provider)
	assert.Equal(t, "out.csv", cfg.Log.CSV)
	assert.Equal(t, config.StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "127.0.0.1:6379", cfg.Store.RedisAddr)
}

func TestApplyEnv_BadMockFlag(t *testing.T) {
	cfg := config.DefaultConfig()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == config.EnvOllamaMock {
			return "maybe", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend.Provider = config.ProviderGemini
	assert.ErrorIs(t, cfg.Validate(), domain.ErrValidation)

	cfg.Backend.Gemini.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Parameters.MaxRetries = -1
	assert.ErrorIs(t, cfg.Validate(), domain.ErrValidation)

	cfg = config.DefaultConfig()
	cfg.Store.Kind = "etcd"
	assert.ErrorIs(t, cfg.Validate(), domain.ErrValidation)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))
	_, err := config.Load(path)
	assert.Error(t, err)
}
