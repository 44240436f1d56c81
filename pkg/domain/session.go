package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutcomeStatus is the terminal status of a session.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is the terminal result of one session.
type Outcome struct {
	Status    OutcomeStatus `json:"status"`
	SessionID string        `json:"session_id"`
	Stage     StageName     `json:"stage,omitempty"`
	Message   string        `json:"message,omitempty"`
	Headline  string        `json:"headline,omitempty"`
	Body      string        `json:"body,omitempty"`
	Final     *DeltaOutput  `json:"final,omitempty"`
}

// Succeeded reports whether the session produced a final article.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSucceeded
}

// Reason renders the failure as "stage=<name> message=<reason>".
func (o Outcome) Reason() string {
	if o.Succeeded() {
		return ""
	}
	return fmt.Sprintf("stage=%s message=%s", o.Stage, o.Message)
}

// FailureDescriptor is the literal written in place of the body of a failed session.
func (o Outcome) FailureDescriptor() string {
	return "[FAILED] " + o.Reason()
}

// StageResult is the outcome of one stage's execution.
type StageResult struct {
	Stage          StageName       `json:"stage"`
	Attempts       int             `json:"attempt_count"`
	State          StageState      `json:"state"`
	Accepted       StageOutput     `json:"accepted_output,omitempty"`
	QualityScore   int             `json:"quality_score"`
	FinalizeReason EventKind       `json:"finalize_reason,omitempty"`
	Events         []DecisionEvent `json:"events"`
}

// NewStageResult creates a pending result for stage.
func NewStageResult(stage StageName) *StageResult {
	return &StageResult{Stage: stage, State: StatePending}
}

// Finalized reports whether an output has been locked in.
func (r *StageResult) Finalized() bool {
	return r.State == StateFinalized && r.Accepted != nil
}

// Finalize locks out as the accepted output.
func (r *StageResult) Finalize(out StageOutput, reason EventKind) {
	r.Accepted = out
	r.QualityScore = out.Quality()
	r.FinalizeReason = reason
	r.State = StateFinalized
}

func (r *StageResult) UnmarshalJSON(data []byte) error {
	type alias StageResult
	aux := struct {
		*alias
		Accepted json.RawMessage `json:"accepted_output,omitempty"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Accepted) > 0 && string(aux.Accepted) != "null" {
		out, err := DecodeOutput(r.Stage, aux.Accepted)
		if err != nil {
			return err
		}
		r.Accepted = out
	}
	return nil
}

// Session is one run of the pipeline over one document.
// Stage results are appended in the fixed Stages order and the session becomes
// immutable once Close sets its outcome.
type Session struct {
	ID         string
	Source     string
	StartTime  time.Time
	EndTime    time.Time
	Input      string
	Parameters Parameters

	// Initial holds the events recorded before the first stage.
	Initial []DecisionEvent
	// Results holds finalized stages in order.
	Results []*StageResult
	// Active is the stage currently executing, if any.
	Active *StageResult
	// Outcome is set exactly once by Close.
	Outcome *Outcome

	seq  int
	last time.Time
}

// NewSession creates a session that starts at start.
func NewSession(id, source, input string, params Parameters, start time.Time) *Session {
	return &Session{
		ID:         id,
		Source:     source,
		StartTime:  start,
		Input:      input,
		Parameters: params,
	}
}

// Closed reports whether the outcome is set.
func (s *Session) Closed() bool {
	return s.Outcome != nil
}

// Next returns the stage that must run next, or false when all are finalized.
func (s *Session) Next() (StageName, bool) {
	if len(s.Results) >= len(Stages) {
		return "", false
	}
	return Stages[len(s.Results)], true
}

// Begin opens the active result for stage. Only the next stage in order may begin.
func (s *Session) Begin(stage StageName) (*StageResult, error) {
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	next, ok := s.Next()
	if !ok || next != stage {
		return nil, fmt.Errorf("%w: cannot begin %s, expected %s", ErrStageOrder, stage, next)
	}
	if s.Active != nil && s.Active.Stage == stage {
		return s.Active, nil
	}
	s.Active = NewStageResult(stage)
	return s.Active, nil
}

// Advance appends a finalized result, making its output visible to the next stage.
func (s *Session) Advance(stage StageName, result *StageResult) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	next, ok := s.Next()
	if !ok || next != stage || result.Stage != stage {
		return fmt.Errorf("%w: cannot advance %s, expected %s", ErrStageOrder, stage, next)
	}
	if !result.Finalized() {
		return fmt.Errorf("%w: %s is not finalized", ErrStageOrder, stage)
	}
	s.Results = append(s.Results, result)
	if s.Active == result {
		s.Active = nil
	}
	return nil
}

// Close sets the outcome and end time. A closed session cannot be mutated.
func (s *Session) Close(outcome Outcome, end time.Time) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	outcome.SessionID = s.ID
	s.Outcome = &outcome
	s.EndTime = end
	return nil
}

// Duration is the wall-clock length of the session.
func (s *Session) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// NextSeq returns the next event sequence number.
func (s *Session) NextSeq() int {
	s.seq++
	return s.seq
}

// Append records an event on the trail of stage and returns it.
// StageInitial events go to Initial; any other stage must be the active one.
// Timestamps are forced to be strictly increasing across the session.
func (s *Session) Append(stage StageName, kind EventKind, payload map[string]any, at time.Time) (DecisionEvent, error) {
	if s.Closed() {
		return DecisionEvent{}, ErrSessionClosed
	}
	var trail *[]DecisionEvent
	switch {
	case stage == StageInitial:
		trail = &s.Initial
	case s.Active != nil && s.Active.Stage == stage:
		trail = &s.Active.Events
	default:
		return DecisionEvent{}, fmt.Errorf("%w: %s is not the active stage", ErrStageOrder, stage)
	}

	if !s.last.IsZero() && !at.After(s.last) {
		at = s.last.Add(time.Microsecond)
	}
	s.last = at
	evt := DecisionEvent{Seq: s.NextSeq(), Stage: stage, Kind: kind, Payload: payload, Timestamp: at}
	*trail = append(*trail, evt)
	return evt, nil
}

// Result returns the finalized result of stage.
func (s *Session) Result(stage StageName) (*StageResult, bool) {
	for _, r := range s.Results {
		if r.Stage == stage {
			return r, true
		}
	}
	return nil, false
}

// Trail returns every event recorded for stage, including an unfinished one.
func (s *Session) Trail(stage StageName) []DecisionEvent {
	if stage == StageInitial {
		return s.Initial
	}
	if r, ok := s.Result(stage); ok {
		return r.Events
	}
	if s.Active != nil && s.Active.Stage == stage {
		return s.Active.Events
	}
	return nil
}

// Events returns the full audit trail in recording order.
func (s *Session) Events() []DecisionEvent {
	out := make([]DecisionEvent, 0, s.seq)
	out = append(out, s.Initial...)
	for _, st := range Stages {
		out = append(out, s.Trail(st)...)
	}
	return out
}

// Alpha returns the accepted Alpha draft.
func (s *Session) Alpha() (*AlphaOutput, bool) {
	return accepted[*AlphaOutput](s, StageAlpha)
}

// Beta returns the accepted Beta body.
func (s *Session) Beta() (*BetaOutput, bool) {
	return accepted[*BetaOutput](s, StageBeta)
}

// Gamma returns the accepted Gamma headlines.
func (s *Session) Gamma() (*GammaOutput, bool) {
	return accepted[*GammaOutput](s, StageGamma)
}

// Delta returns the accepted Delta article.
func (s *Session) Delta() (*DeltaOutput, bool) {
	return accepted[*DeltaOutput](s, StageDelta)
}

func accepted[T StageOutput](s *Session, stage StageName) (T, bool) {
	var zero T
	r, ok := s.Result(stage)
	if !ok {
		return zero, false
	}
	out, ok := r.Accepted.(T)
	return out, ok
}
