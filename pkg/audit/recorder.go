package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

// Recorder appends decision events to sessions.
type Recorder struct {
	sink   ports.EventSink
	logger *slog.Logger
	now    func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithEventSink forwards every recorded event to sink.
func WithEventSink(sink ports.EventSink) RecorderOption {
	return func(r *Recorder) {
		r.sink = sink
	}
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends an event to the trail of stage. Recording never fails the
// session: an event that cannot be appended or forwarded is logged and dropped.
func (r *Recorder) Record(ctx context.Context, s *domain.Session, stage domain.StageName, kind domain.EventKind, payload map[string]any) domain.DecisionEvent {
	evt, err := s.Append(stage, kind, payload, r.now())
	if err != nil {
		r.logger.Error("decision event dropped", "session_id", s.ID, "stage", stage, "action", kind, "error", err)
		return evt
	}
	if r.sink != nil {
		if err := r.sink.Append(ctx, s.ID, evt); err != nil {
			r.logger.Warn("event sink append failed", "session_id", s.ID, "seq", evt.Seq, "error", err)
		}
	}
	return evt
}

// For binds the recorder to one stage of s.
func (r *Recorder) For(s *domain.Session, stage domain.StageName) *StageTrail {
	return &StageTrail{recorder: r, session: s, stage: stage}
}

// StageTrail records events for a single stage.
type StageTrail struct {
	recorder *Recorder
	session  *domain.Session
	stage    domain.StageName
}

// Log appends an event to the bound stage.
func (t *StageTrail) Log(ctx context.Context, kind domain.EventKind, payload map[string]any) {
	t.recorder.Record(ctx, t.session, t.stage, kind, payload)
}
