package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/gazette/pkg/adapters/sqlite"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memDB(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memDB(t))
}

func TestSQLiteStore_Rows(t *testing.T) {
	s := memDB(t)
	ctx := context.Background()

	first := domain.LogRow{SessionID: "b", StartTime: "2025-01-01T00:00:01.000000Z", FinalBody: "[FAILED] stage=Gamma message=user_abort"}
	second := domain.LogRow{SessionID: "a", StartTime: "2025-01-01T00:00:02.000000Z", FinalHeadline: "標題"}
	require.NoError(t, s.WriteRow(ctx, second))
	require.NoError(t, s.WriteRow(ctx, first))

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first, rows[0])
	assert.Equal(t, second, rows[1])
}

func TestSQLiteStore_Events(t *testing.T) {
	s := memDB(t)
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 123456000, time.UTC)

	require.NoError(t, s.Append(ctx, "s1", domain.DecisionEvent{Seq: 2, Stage: domain.StageAlpha, Kind: domain.EventFinalized, Timestamp: at.Add(time.Microsecond)}))
	require.NoError(t, s.Append(ctx, "s1", domain.DecisionEvent{Seq: 1, Stage: domain.StageAlpha, Kind: domain.EventAIResult, Payload: map[string]any{"attempt": 1}, Timestamp: at}))

	// Sequence numbers are unique per session.
	assert.Error(t, s.Append(ctx, "s1", domain.DecisionEvent{Seq: 1, Stage: domain.StageAlpha, Kind: domain.EventAIResult, Timestamp: at}))

	events, err := s.Events(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventAIResult, events[0].Kind)
	assert.Equal(t, float64(1), events[0].Payload["attempt"])
	assert.True(t, at.Equal(events[0].Timestamp))
	assert.Nil(t, events[1].Payload)
}

func TestSQLiteStore_ConcurrentFileWrites(t *testing.T) {
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			for seq := 1; seq <= 50; seq++ {
				assert.NoError(t, s.Append(ctx, id, domain.DecisionEvent{Seq: seq, Stage: domain.StageBeta, Kind: domain.EventAIResult, Timestamp: time.Now()}))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		events, err := s.Events(ctx, string(rune('a'+i)))
		require.NoError(t, err)
		assert.Len(t, events, 50)
	}
}
