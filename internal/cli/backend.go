package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/gazette/internal/config"
	"github.com/aretw0/gazette/pkg/adapters/gemini"
	"github.com/aretw0/gazette/pkg/adapters/mock"
	"github.com/aretw0/gazette/pkg/adapters/ollama"
	"github.com/aretw0/gazette/pkg/ports"
)

// Backend is what the commands need from a generative backend.
type Backend interface {
	ports.Backend
	ports.HealthChecker
	ports.ModelLister
}

var (
	_ Backend = (*ollama.Client)(nil)
	_ Backend = (*gemini.Client)(nil)
	_ Backend = (*mock.Backend)(nil)
)

// NewBackend builds the provider selected in cfg.
func NewBackend(ctx context.Context, cfg config.BackendConfig) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderMock:
		return mock.New(), nil
	case config.ProviderOllama:
		var opts []ollama.Option
		if cfg.Ollama.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Ollama.Model))
		}
		return ollama.New(cfg.Ollama.BaseURL, opts...), nil
	case config.ProviderGemini:
		var opts []gemini.Option
		if cfg.Gemini.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Gemini.Model))
		}
		return gemini.New(ctx, cfg.Gemini.APIKey, opts...)
	}
	return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
}
