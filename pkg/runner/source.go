package runner

import (
	"context"

	"github.com/aretw0/gazette/pkg/domain"
)

// DecisionSource is the strategy that answers the pipeline's decision points.
// This allows switching between Text (CLI), JSON (structured) and scripted modes.
type DecisionSource interface {
	// Present shows the result of a stage attempt.
	Present(ctx context.Context, view domain.StageView) error

	// Choose asks for a token from menu and returns it unnormalized.
	Choose(ctx context.Context, menu domain.Menu) (string, error)

	// Prompt asks for free text (revision note, custom headline, parameter value).
	Prompt(ctx context.Context, q domain.Question) (string, error)

	// SystemOutput presents a meta-message to the user (status, warnings).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer turns markdown into terminal output.
type ContentRenderer func(markdown string) (string, error)
