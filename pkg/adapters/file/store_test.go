package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/gazette/pkg/adapters/file"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_SidecarLayout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	err := store.WriteDetail(ctx, domain.SessionDetail{
		SessionID: "session_20250101_000000_abcd1234",
		Events:    []domain.DecisionEvent{{Seq: 1, Stage: domain.StageInitial, Kind: domain.EventConfig}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "session_20250101_000000_abcd1234.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"log_entries"`)
	assert.Contains(t, string(data), `"action": "config"`)

	// Leftover temp files are not sessions.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-x-1.json"), []byte("{}"), 0644))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session_20250101_000000_abcd1234"}, ids)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	_, err := store.Load(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
