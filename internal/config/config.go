// Package config loads gazette settings from a YAML file and the environment.
//
// Precedence, lowest first: DefaultConfig, the file, environment variables,
// command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/gazette/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "gazette.yaml"

// Backend providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Environment variables read by Load.
const (
	EnvOllamaBaseURL = "OLLAMA_BASE_URL"
	EnvOllamaModel   = "OLLAMA_MODEL_NAME"
	EnvOllamaMock    = "OLLAMA_MOCK"
	EnvLogCSV        = "PIPELINE_LOG_CSV"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvRedisAddr     = "GAZETTE_REDIS_ADDR"
	EnvStoreKey      = "GAZETTE_STORE_KEY"
)

type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// BackendConfig selects and configures the generative backend.
type BackendConfig struct {
	Provider string       `yaml:"provider"`
	Ollama   OllamaConfig `yaml:"ollama"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

// LogConfig names the decision log destinations. Empty paths are disabled,
// except CSV which always has a destination.
type LogConfig struct {
	CSV    string `yaml:"csv"`
	JSONL  string `yaml:"jsonl"`
	SQLite string `yaml:"sqlite"`
	Level  string `yaml:"level"`
}

// StoreConfig configures where session details are kept. EncryptionKey is a
// base64 AES-256 key that seals records at rest; MaskKeys are regular
// expressions naming answer and event keys whose values are masked.
type StoreConfig struct {
	Kind          string        `yaml:"kind"`
	Dir           string        `yaml:"dir"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl"`
	EncryptionKey string        `yaml:"encryption_key"`
	FallbackKeys  []string      `yaml:"fallback_keys"`
	MaskKeys      []string      `yaml:"mask_keys"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Config is the complete runtime configuration.
type Config struct {
	Backend    BackendConfig     `yaml:"backend"`
	Parameters domain.Parameters `yaml:"parameters"`
	Log        LogConfig         `yaml:"log"`
	Store      StoreConfig       `yaml:"store"`
	Server     ServerConfig      `yaml:"server"`
	Batch      BatchConfig       `yaml:"batch"`
	PromptsDir string            `yaml:"prompts_dir"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Provider: ProviderOllama,
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3:8b",
			},
			Gemini: GeminiConfig{Model: "gemini-2.5-flash"},
		},
		Parameters: domain.DefaultParameters(),
		Log: LogConfig{
			CSV:   "pipeline_log.csv",
			Level: "warn",
		},
		Store: StoreConfig{
			Kind:        StoreFile,
			Dir:         ".gazette/sessions",
			RedisPrefix: "gazette:session:",
		},
		Server: ServerConfig{Addr: ":8080"},
		Batch:  BatchConfig{Concurrency: 1},
	}
}

// Load reads path over the defaults and applies the environment. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides values from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOllamaBaseURL); ok && v != "" {
		c.Backend.Ollama.BaseURL = v
	}
	if v, ok := lookup(EnvOllamaModel); ok && v != "" {
		c.Backend.Ollama.Model = v
	}
	if v, ok := lookup(EnvOllamaMock); ok && v != "" {
		mock, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOllamaMock, err)
		}
		if mock {
			c.Backend.Provider = ProviderMock
		}
	}
	if v, ok := lookup(EnvLogCSV); ok && v != "" {
		c.Log.CSV = v
	}
	if v, ok := lookup(EnvGeminiAPIKey); ok && v != "" {
		c.Backend.Gemini.APIKey = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.RedisAddr = v
		c.Store.Kind = StoreRedis
	}
	if v, ok := lookup(EnvStoreKey); ok && v != "" {
		c.Store.EncryptionKey = v
	}
	return nil
}

// Validate checks provider and store selections and the parameters.
func (c Config) Validate() error {
	switch c.Backend.Provider {
	case ProviderOllama, ProviderMock:
	case ProviderGemini:
		if c.Backend.Gemini.APIKey == "" {
			return fmt.Errorf("%w: gemini provider requires %s", domain.ErrValidation, EnvGeminiAPIKey)
		}
	default:
		return fmt.Errorf("%w: unknown backend provider %q", domain.ErrValidation, c.Backend.Provider)
	}
	switch c.Store.Kind {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("%w: redis store requires an address", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown store kind %q", domain.ErrValidation, c.Store.Kind)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("%w: batch concurrency must be >= 1", domain.ErrValidation)
	}
	return c.Parameters.Validate()
}
