package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# 標題\n\n內文")
	require.NoError(t, err)
	assert.Contains(t, out, "標題")
	assert.Contains(t, out, "內文")
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	PrintOutcome(&buf, "a.txt", domain.Outcome{Status: domain.OutcomeSucceeded, SessionID: "s1", Headline: "頭條"})
	assert.Contains(t, buf.String(), "頭條")

	buf.Reset()
	PrintOutcome(&buf, "b.txt", domain.Outcome{Status: domain.OutcomeFailed, SessionID: "s2", Stage: domain.StageGamma, Message: "user_abort"})
	assert.Contains(t, buf.String(), "stage=Gamma message=user_abort")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
