package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
)

// Display limits of the exported row.
const (
	TruncateRunes = 250
	TimeLayout    = "2006-01-02T15:04:05.000000Z07:00"
)

// Entry is one element of a decision column.
type Entry struct {
	Action  domain.EventKind `json:"action"`
	Details map[string]any   `json:"details"`
}

// Export projects a session into its flattened audit row. Failed sessions
// carry the failure descriptor in place of the body.
func Export(s *domain.Session) (domain.LogRow, error) {
	row := domain.LogRow{
		SessionID:       s.ID,
		StartTime:       s.StartTime.Format(TimeLayout),
		DurationSeconds: fmt.Sprintf("%.2f", s.Duration().Seconds()),
		InitialRawData:  Truncate(s.Input),
	}
	if !s.EndTime.IsZero() {
		row.EndTime = s.EndTime.Format(TimeLayout)
	}

	cols := []*string{&row.AlphaDecisions, &row.BetaDecisions, &row.GammaDecisions, &row.DeltaDecisions}
	for i, stage := range domain.Stages {
		col, err := decisionColumn(s.Trail(stage))
		if err != nil {
			return domain.LogRow{}, fmt.Errorf("export %s decisions: %w", stage, err)
		}
		*cols[i] = col
	}

	if s.Outcome != nil {
		if s.Outcome.Succeeded() {
			row.FinalHeadline = s.Outcome.Headline
			row.FinalBody = Truncate(s.Outcome.Body)
		} else {
			row.FinalBody = s.Outcome.FailureDescriptor()
		}
	}
	return row, nil
}

func decisionColumn(events []domain.DecisionEvent) (string, error) {
	entries := make([]Entry, 0, len(events))
	for _, e := range events {
		entries = append(entries, Entry{Action: e.Kind, Details: e.Payload})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Truncate shortens s to TruncateRunes runes plus "..." and escapes newlines.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) > TruncateRunes {
		s = string(r[:TruncateRunes]) + "..."
	}
	return strings.ReplaceAll(s, "\n", `\n`)
}

// StageSummary is what a decision column says about one stage.
type StageSummary struct {
	Attempts       int
	FinalizeReason domain.EventKind
}

// ParseDecisions reads the decision columns of row back into per-stage summaries.
// Stages without events are omitted.
func ParseDecisions(row domain.LogRow) (map[domain.StageName]StageSummary, error) {
	out := make(map[domain.StageName]StageSummary, len(domain.Stages))
	for _, stage := range domain.Stages {
		col := row.Decisions(stage)
		if strings.TrimSpace(col) == "" {
			continue
		}
		var entries []Entry
		if err := json.Unmarshal([]byte(col), &entries); err != nil {
			return nil, fmt.Errorf("%s decisions: %w", stage, err)
		}
		if len(entries) == 0 {
			continue
		}

		var sum StageSummary
		for _, e := range entries {
			if n, ok := attemptOf(e.Details); ok && n > sum.Attempts {
				sum.Attempts = n
			}
			if e.Action.IsFinalize() {
				sum.FinalizeReason = e.Action
			}
		}
		out[stage] = sum
	}
	return out, nil
}

func attemptOf(details map[string]any) (int, bool) {
	switch v := details["attempt"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
