// Package loam loads a markdown corpus for batch runs.
//
// Each document body is one raw input. Frontmatter keys news_type,
// target_style, word_limit, tone and constraints override the batch
// parameters for that document only; documents with `skip: true` are ignored.
package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Metadata is the raw frontmatter of a corpus document.
type Metadata map[string]any

var _ ports.DocumentLoader = (*Corpus)(nil)

// Corpus adapts a Loam repository to ports.DocumentLoader.
type Corpus struct {
	Repo *loam.TypedRepository[Metadata]
}

// New creates a corpus over repo.
func New(repo *loam.TypedRepository[Metadata]) *Corpus {
	return &Corpus{Repo: repo}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Corpus, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus path: %w", err)
	}
	repo, err := loam.Init(abs,
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Metadata](repo)), nil
}

// Load returns every non-empty, non-skipped document ordered by ID.
func (c *Corpus) Load(ctx context.Context) ([]domain.Document, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, prev, doc.ID)
		}
		seen[id] = doc.ID

		text := strings.TrimSpace(doc.Content)
		if text == "" || skipped(doc.Data) {
			continue
		}
		overrides, err := DecodeOverrides(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		out = append(out, domain.Document{Source: id, Text: text, Overrides: overrides})
	}
	if len(out) == 0 {
		return nil, domain.ErrNoInput
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

// DecodeOverrides maps frontmatter onto parameter overrides. Numbers may
// arrive as strings, floats or json.Number.
func DecodeOverrides(meta Metadata) (domain.ParameterOverrides, error) {
	var o domain.ParameterOverrides
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &o,
		WeaklyTypedInput: true,
		DecodeHook:       jsonNumberHook,
	})
	if err != nil {
		return o, err
	}
	if err := dec.Decode(map[string]any(meta)); err != nil {
		return o, fmt.Errorf("invalid frontmatter: %w", err)
	}
	return o, nil
}

func jsonNumberHook(from, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		return n.Int64()
	case reflect.String:
		return n.String(), nil
	}
	return n.Float64()
}

func skipped(meta Metadata) bool {
	v, ok := meta["skip"]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

func trimExtension(id string) string {
	if ext := filepath.Ext(id); ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
