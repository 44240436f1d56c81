package domain

import (
	"context"
	"time"
)

// EventKind is the kind of a DecisionEvent.
type EventKind string

const (
	EventRawOutput           EventKind = "raw_output"
	EventAIResult            EventKind = "ai_result"
	EventUserChoice          EventKind = "user_choice"
	EventParseError          EventKind = "parse_error"
	EventBackendError        EventKind = "backend_error"
	EventFinalized           EventKind = "finalized"
	EventFinalizedMaxRetries EventKind = "finalized_max_retries"
	EventFinalizedDefault    EventKind = "finalized_default"
	EventLangCheck           EventKind = "lang_check"
	EventConfig              EventKind = "config"
	EventSource              EventKind = "source"
)

// IsFinalize reports whether the kind closes a stage.
func (k EventKind) IsFinalize() bool {
	switch k {
	case EventFinalized, EventFinalizedMaxRetries, EventFinalizedDefault:
		return true
	}
	return false
}

// DecisionEvent is one immutable entry of the session audit trail.
type DecisionEvent struct {
	Seq       int            `json:"seq"`
	Stage     StageName      `json:"stage"`
	Kind      EventKind      `json:"action"`
	Payload   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventStageEnter    EventType = "stage_enter"
	EventStageLeave    EventType = "stage_leave"
	EventStateChange   EventType = "state_change"
	EventBackendCall   EventType = "backend_call"
	EventBackendReturn EventType = "backend_return"
	EventSessionFinish EventType = "session_finish"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StageEvent reports a Retry Controller transition.
type StageEvent struct {
	EventBase
	Stage   StageName  `json:"stage"`
	Attempt int        `json:"attempt"`
	From    StageState `json:"from,omitempty"`
	To      StageState `json:"to,omitempty"`
	Reason  EventKind  `json:"reason,omitempty"`
}

// BackendEvent reports one backend round-trip.
type BackendEvent struct {
	EventBase
	Stage    StageName     `json:"stage"`
	Attempt  int           `json:"attempt"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// SessionEvent reports the end of a session.
type SessionEvent struct {
	EventBase
	Outcome Outcome `json:"outcome"`
}

// LifecycleHooks defines callbacks for pipeline observability.
type LifecycleHooks struct {
	OnStageEnter    func(context.Context, *StageEvent)
	OnStageLeave    func(context.Context, *StageEvent)
	OnStateChange   func(context.Context, *StageEvent)
	OnBackendCall   func(context.Context, *BackendEvent)
	OnBackendReturn func(context.Context, *BackendEvent)
	OnSessionFinish func(context.Context, *SessionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageEnter:    chain(h.OnStageEnter, other.OnStageEnter),
		OnStageLeave:    chain(h.OnStageLeave, other.OnStageLeave),
		OnStateChange:   chain(h.OnStateChange, other.OnStateChange),
		OnBackendCall:   chain(h.OnBackendCall, other.OnBackendCall),
		OnBackendReturn: chain(h.OnBackendReturn, other.OnBackendReturn),
		OnSessionFinish: chain(h.OnSessionFinish, other.OnSessionFinish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
