package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/pkg/adapters/fs"
	"github.com/aretw0/gazette/pkg/adapters/loam"
	"github.com/aretw0/gazette/pkg/domain"
)

// Inputs names where documents come from.
type Inputs struct {
	RawData string
	Files   []string
	Corpus  string
}

// Empty reports whether no input was given.
func (in Inputs) Empty() bool {
	return in.RawData == "" && len(in.Files) == 0 && in.Corpus == ""
}

// LoadDocuments collects the documents of every configured input: inline
// text first, then files, then the corpus.
func LoadDocuments(ctx context.Context, in Inputs, logger *slog.Logger) ([]domain.Document, error) {
	if in.Empty() {
		return nil, fmt.Errorf("%w: pass --raw-data, --files or --corpus", domain.ErrNoInput)
	}

	if logger == nil {
		logger = logging.NewNop()
	}

	var docs []domain.Document
	if in.RawData != "" || len(in.Files) > 0 {
		loaded, err := fs.New(in.Files, fs.WithRawData(in.RawData), fs.WithLogger(logger)).Load(ctx)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	if in.Corpus != "" {
		corpus, err := loam.Open(in.Corpus)
		if err != nil {
			return nil, fmt.Errorf("open corpus %s: %w", in.Corpus, err)
		}
		loaded, err := corpus.Load(ctx)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}
