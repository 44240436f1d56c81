package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/gazette/pkg/adapters/fs"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sources(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Source
	}
	return out
}

func TestLoader_RawDataFirst(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	write(t, a, "檔案內容")

	docs, err := fs.New([]string{a}, fs.WithRawData("台積電營收")).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{domain.SourceCLI, a}, sources(docs))
	assert.Equal(t, "台積電營收", docs[0].Text)
	assert.Equal(t, "檔案內容", docs[1].Text)
}

func TestLoader_WalksDirectories(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b.txt"), "b")
	write(t, filepath.Join(dir, "sub", "a.TXT"), "a")
	write(t, filepath.Join(dir, "notes.md"), "skip me")

	docs, err := fs.New([]string{dir}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "a.TXT"),
	}, sources(docs))
}

func TestLoader_Glob(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "x", "one.txt"), "1")
	write(t, filepath.Join(dir, "y", "two.txt"), "2")
	write(t, filepath.Join(dir, "y", "three.csv"), "3")

	docs, err := fs.New([]string{filepath.Join(dir, "**", "*.txt")}).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestLoader_SkipsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	write(t, a, "a")
	md := filepath.Join(dir, "readme.md")
	write(t, md, "x")

	l := fs.New([]string{a, dir, md, filepath.Join(dir, "missing.txt")})
	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{a}, sources(docs))
	assert.Len(t, l.Skipped, 2)
}

func TestLoader_NoInput(t *testing.T) {
	_, err := fs.New([]string{filepath.Join(t.TempDir(), "nope")}).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoInput)
}
