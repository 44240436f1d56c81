package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/aretw0/gazette/pkg/adapters/memory"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleDetail(id string) *domain.SessionDetail {
	params := domain.DefaultParameters()
	params.AdditionalAnswers = map[string]any{"reporter_phone": "0912-345-678", "audience": "投資人"}
	return &domain.SessionDetail{
		SessionID:  id,
		Source:     "CLI_INPUT",
		StartTime:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC),
		Parameters: params,
		Outcome:    domain.Outcome{Status: domain.OutcomeSucceeded, SessionID: id, Headline: "機密標題"},
		Events: []domain.DecisionEvent{
			{Seq: 1, Stage: domain.StageInitial, Kind: domain.EventSource, Payload: map[string]any{"source": "CLI_INPUT", "length": 12}},
		},
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, sampleDetail("s1")))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Outcome.Headline)
	assert.Empty(t, stored.Events)
	assert.Equal(t, domain.OutcomeSucceeded, stored.Outcome.Status)

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "機密標題", loaded.Outcome.Headline)
	assert.Equal(t, "0912-345-678", loaded.Parameters.AdditionalAnswers["reporter_phone"])
	assert.Empty(t, loaded.Sealed)

	ids, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldMW, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, oldMW(underlying).Save(ctx, sampleDetail("s1")))

	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	loaded, err := rotated(underlying).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.SessionID)

	noFallback, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = noFallback(underlying).Load(ctx, "s1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, sampleDetail("plain")))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(underlying).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionConfig_Validate(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	decoded, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = middleware.DecodeKey("not base64!")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
