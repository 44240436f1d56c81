// Package fs collects batch documents from plain-text files.
//
// Each path may be a file, a directory (walked recursively for .txt files)
// or a doublestar glob pattern such as "news/**/*.txt".
package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/bmatcuk/doublestar/v4"
)

// Extension is the only file type collected.
const Extension = ".txt"

var _ ports.DocumentLoader = (*Loader)(nil)

// Loader reads documents from paths and an optional inline text.
type Loader struct {
	paths  []string
	raw    string
	logger *slog.Logger

	// Skipped lists the paths that were ignored, with the reason.
	Skipped []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithRawData adds text passed directly, recorded with source domain.SourceCLI.
func WithRawData(text string) Option {
	return func(l *Loader) { l.raw = text }
}

// WithLogger sets the logger used for skipped paths.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a loader for paths.
func New(paths []string, opts ...Option) *Loader {
	l := &Loader{paths: paths, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the inline text first, then every collected file in path order.
// Missing paths, non-.txt files and unreadable files are skipped.
// ErrNoInput is returned when nothing remains.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	if strings.TrimSpace(l.raw) != "" {
		docs = append(docs, domain.Document{Source: domain.SourceCLI, Text: l.raw})
	}

	seen := make(map[string]bool)
	for _, p := range l.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := l.expand(p)
		if err != nil {
			l.skip(p, err.Error())
			continue
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			data, err := os.ReadFile(f)
			if err != nil {
				l.skip(f, fmt.Sprintf("read failed: %v", err))
				continue
			}
			docs = append(docs, domain.Document{Source: f, Text: string(data)})
		}
	}

	if len(docs) == 0 {
		return nil, domain.ErrNoInput
	}
	return docs, nil
}

// expand resolves one argument to a sorted list of .txt files.
func (l *Loader) expand(p string) ([]string, error) {
	if hasMeta(p) {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern: %w", err)
		}
		var files []string
		for _, m := range matches {
			if isText(m) {
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no %s files match", Extension)
		}
		return files, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("path does not exist")
	}
	if !info.IsDir() {
		if !isText(p) {
			return nil, fmt.Errorf("not a %s file", Extension)
		}
		return []string{p}, nil
	}

	var files []string
	err = doublestar.GlobWalk(os.DirFS(p), "**/*", func(rel string, d fs.DirEntry) error {
		if !d.IsDir() && isText(rel) {
			files = append(files, filepath.Join(p, filepath.FromSlash(rel)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) skip(path, reason string) {
	l.Skipped = append(l.Skipped, path+": "+reason)
	l.logger.Warn("input skipped", "path", path, "reason", reason)
}

func isText(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
