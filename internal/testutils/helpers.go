// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SampleNews is a short raw input used across tests.
const SampleNews = "台積電今日公布第三季財報，營收新台幣七千五百億元，年增三成，毛利率五成七。"

// SetupCorpus creates a Loam repository in a temporary directory and writes
// files (name -> markdown with optional frontmatter) into it. It returns the
// absolute path and the repository.
func SetupCorpus(t *testing.T, files map[string]string, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, append([]loam.Option{loam.WithVersioning(false)}, opts...)...)
	require.NoError(t, err, "Failed to init loam repo")

	WriteFiles(t, absPath, files)
	return absPath, repo
}

// WriteFiles writes each name -> content pair under dir, creating
// subdirectories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
