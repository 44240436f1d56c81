package ports

import (
	"context"

	"github.com/aretw0/gazette/pkg/domain"
)

// DocumentLoader produces the documents of a batch run.
type DocumentLoader interface {
	Load(ctx context.Context) ([]domain.Document, error)
}
