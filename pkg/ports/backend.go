package ports

import (
	"context"

	"github.com/aretw0/gazette/pkg/domain"
)

// Backend is the generative model behind every stage.
//
// Invoke must either return the raw response text or an error. A transport or
// model error is reported as an error; a response that is received but does not
// match the stage schema is returned as text and rejected by the executor.
type Backend interface {
	Invoke(ctx context.Context, stage domain.StageName, prompt domain.Prompt) (string, error)
}

// HealthChecker is implemented by backends that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ModelLister is implemented by backends that can enumerate their models.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}
