package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		detail := contractDetail(sessionID)

		err := store.Save(ctx, detail)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, detail.SessionID, loaded.SessionID)
		assert.Equal(t, detail.Outcome, loaded.Outcome)
		assert.Equal(t, detail.Parameters.NewsType, loaded.Parameters.NewsType)
		require.Len(t, loaded.Events, 2)
		assert.Equal(t, domain.EventFinalizedDefault, loaded.Events[1].Kind)
		require.Len(t, loaded.Stages, 1)
		alpha, ok := loaded.Stages[0].Accepted.(*domain.AlphaOutput)
		require.True(t, ok, "accepted output should decode to its stage variant")
		assert.Equal(t, "draft", alpha.DraftContent)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, contractDetail(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, contractDetail(id1))
		_ = store.Save(ctx, contractDetail(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

func contractDetail(id string) *domain.SessionDetail {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	result := domain.NewStageResult(domain.StageAlpha)
	result.Attempts = 1
	result.Finalize(&domain.AlphaOutput{DraftContent: "draft", QualityScore: 7}, domain.EventFinalizedDefault)
	result.Events = []domain.DecisionEvent{
		{Seq: 1, Stage: domain.StageAlpha, Kind: domain.EventAIResult, Payload: map[string]any{"attempt": 1}, Timestamp: start},
		{Seq: 2, Stage: domain.StageAlpha, Kind: domain.EventFinalizedDefault, Payload: map[string]any{"attempt": 1}, Timestamp: start.Add(time.Millisecond)},
	}
	return &domain.SessionDetail{
		SessionID:  id,
		Source:     "CLI_INPUT",
		StartTime:  start,
		EndTime:    start.Add(time.Second),
		Parameters: domain.DefaultParameters(),
		Outcome:    domain.Outcome{Status: domain.OutcomeFailed, SessionID: id, Stage: domain.StageBeta, Message: domain.MessageUserAbort},
		Stages:     []*domain.StageResult{result},
		Events:     result.Events,
	}
}
