package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []domain.ActionRequest {
	t.Helper()
	var out []domain.ActionRequest
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var req domain.ActionRequest
		require.NoError(t, json.Unmarshal([]byte(line), &req))
		out = append(out, req)
	}
	return out
}

func TestJSONHandler_Choose(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader("\"2\"\n"), buf)

	raw, err := handler.Choose(context.Background(), domain.StageMenu(domain.StageAlpha))
	require.NoError(t, err)
	assert.Equal(t, "2", raw)

	reqs := decodeLines(t, buf)
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ActionRequestDecision, reqs[0].Type)

	payload, ok := reqs[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alpha", payload["stage"])
	assert.Len(t, payload["actions"], 3)
}

func TestJSONHandler_PlainTextAnswer(t *testing.T) {
	handler := NewJSONHandler(strings.NewReader("just plain text\n"), &bytes.Buffer{})

	val, err := handler.Prompt(context.Background(), domain.Question{Stage: domain.StageDelta, Field: "revision_notes"})
	require.NoError(t, err)
	assert.Equal(t, "just plain text", val)
}

func TestJSONHandler_PresentAndSystemOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	require.NoError(t, handler.Present(context.Background(), domain.StageView{
		Stage:   domain.StageBeta,
		Attempt: 2,
		Ceiling: 3,
		Output:  &domain.BetaOutput{StyledContent: "body"},
	}))
	require.NoError(t, handler.SystemOutput(context.Background(), "System Status"))

	reqs := decodeLines(t, buf)
	require.Len(t, reqs, 2)
	assert.Equal(t, domain.ActionRenderStage, reqs[0].Type)
	view := reqs[0].Payload.(map[string]any)
	assert.EqualValues(t, 2, view["attempt"])
	assert.Equal(t, "body", view["output"].(map[string]any)["styled_content"])

	assert.Equal(t, domain.ActionSystemMessage, reqs[1].Type)
	assert.Equal(t, "System Status", reqs[1].Payload)
}
