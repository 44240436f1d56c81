package domain

import (
	"fmt"
	"time"
)

// LogColumns is the fixed column order of an exported LogRow.
var LogColumns = []string{
	"session_id",
	"start_time",
	"end_time",
	"duration_seconds",
	"initial_raw_data",
	"alpha_decisions",
	"beta_decisions",
	"gamma_decisions",
	"delta_decisions",
	"final_headline",
	"final_body",
}

// LogRow is the flattened audit record of one session.
// Decision columns hold JSON arrays of {"action", "details"} objects.
type LogRow struct {
	SessionID       string `json:"session_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationSeconds string `json:"duration_seconds"`
	InitialRawData  string `json:"initial_raw_data"`
	AlphaDecisions  string `json:"alpha_decisions"`
	BetaDecisions   string `json:"beta_decisions"`
	GammaDecisions  string `json:"gamma_decisions"`
	DeltaDecisions  string `json:"delta_decisions"`
	FinalHeadline   string `json:"final_headline"`
	FinalBody       string `json:"final_body"`
}

// Values returns the row in LogColumns order.
func (r LogRow) Values() []string {
	return []string{
		r.SessionID,
		r.StartTime,
		r.EndTime,
		r.DurationSeconds,
		r.InitialRawData,
		r.AlphaDecisions,
		r.BetaDecisions,
		r.GammaDecisions,
		r.DeltaDecisions,
		r.FinalHeadline,
		r.FinalBody,
	}
}

// Decisions returns the decision column of stage.
func (r LogRow) Decisions(stage StageName) string {
	switch stage {
	case StageAlpha:
		return r.AlphaDecisions
	case StageBeta:
		return r.BetaDecisions
	case StageGamma:
		return r.GammaDecisions
	case StageDelta:
		return r.DeltaDecisions
	}
	return ""
}

// LogRowFromValues maps a record read with header back into a LogRow.
func LogRowFromValues(header, values []string) (LogRow, error) {
	if len(header) != len(values) {
		return LogRow{}, fmt.Errorf("%w: %d columns in header, %d in record", ErrValidation, len(header), len(values))
	}
	var r LogRow
	fields := map[string]*string{
		"session_id":       &r.SessionID,
		"start_time":       &r.StartTime,
		"end_time":         &r.EndTime,
		"duration_seconds": &r.DurationSeconds,
		"initial_raw_data": &r.InitialRawData,
		"alpha_decisions":  &r.AlphaDecisions,
		"beta_decisions":   &r.BetaDecisions,
		"gamma_decisions":  &r.GammaDecisions,
		"delta_decisions":  &r.DeltaDecisions,
		"final_headline":   &r.FinalHeadline,
		"final_body":       &r.FinalBody,
	}
	for i, col := range header {
		if dst, ok := fields[col]; ok {
			*dst = values[i]
		}
	}
	return r, nil
}

// SessionDetail is the full-detail record of a session: every event verbatim.
type SessionDetail struct {
	SessionID  string          `json:"session_id"`
	Source     string          `json:"source,omitempty"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Parameters Parameters      `json:"config"`
	Outcome    Outcome         `json:"outcome"`
	Stages     []*StageResult  `json:"stages,omitempty"`
	Events     []DecisionEvent `json:"log_entries"`
	// Sealed holds the encrypted record when the store encrypts at rest.
	Sealed string `json:"sealed,omitempty"`
}

// Detail builds the full-detail record of a closed session.
func (s *Session) Detail() SessionDetail {
	d := SessionDetail{
		SessionID:  s.ID,
		Source:     s.Source,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Parameters: s.Parameters,
		Stages:     s.Results,
		Events:     s.Events(),
	}
	if s.Active != nil {
		d.Stages = append(append([]*StageResult(nil), s.Results...), s.Active)
	}
	if s.Outcome != nil {
		d.Outcome = *s.Outcome
	}
	return d
}
