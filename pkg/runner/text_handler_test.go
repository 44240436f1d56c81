package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Present(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	err := handler.Present(context.Background(), domain.StageView{
		Stage:   domain.StageAlpha,
		Attempt: 1,
		Ceiling: 3,
		Output:  &domain.AlphaOutput{DraftContent: "草稿內容", QualityScore: 8},
		Hints:   []string{"draft_content has a high English ratio"},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Rendered: ## Alpha (attempt 1/3)")
	assert.Contains(t, text, "草稿內容")
	assert.Contains(t, text, "! draft_content has a high English ratio")
}

func TestTextHandler_Choose(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("２\n"), out)

	raw, err := handler.Choose(context.Background(), domain.StageMenu(domain.StageBeta))
	require.NoError(t, err)
	assert.Equal(t, "２", raw)

	text := out.String()
	assert.Contains(t, text, "1) accept (a)")
	assert.Contains(t, text, "[default: 1]")
	assert.True(t, strings.HasSuffix(text, "> "))
}

func TestTextHandler_InputRejectsOversized(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "8")
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("way too long answer\nok\n"), out)

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Contains(t, out.String(), "Please try again.")
}

func TestTextHandler_EOF(t *testing.T) {
	handler := NewTextHandler(strings.NewReader(""), io.Discard)
	_, err := handler.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_CanceledContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextHandler_PromptTruncatesWideOptions(t *testing.T) {
	out := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("1\n"), out, WithTextHandlerWidth(12))

	_, err := handler.Prompt(context.Background(), domain.Question{
		Label:   "tone",
		Options: []domain.Option{{Value: "客觀中性", Summary: "以事實為主的中性語氣"}},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "…")
	assert.Contains(t, out.String(), "0) custom")
}
