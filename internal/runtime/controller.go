package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/pkg/audit"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/prompt"
	"github.com/aretw0/gazette/pkg/runner"
	"github.com/aretw0/gazette/pkg/stage"
)

// StageRunner executes one attempt of a stage.
type StageRunner interface {
	Run(ctx context.Context, name domain.StageName, req stage.Request) (*stage.Result, error)
}

var _ StageRunner = (*stage.Executor)(nil)

// Controller is the per-stage retry state machine:
//
//	Pending -> Executing -> AwaitingDecision -> {Retrying, Revising, Finalized}
//
// Every attempt, parse failures included, counts against one ceiling of
// MaxRetries+1. Once the ceiling is reached the latest parsed output is
// finalized, never the best-scoring one.
type Controller struct {
	runner   StageRunner
	recorder *audit.Recorder
	source   runner.DecisionSource
	prompts  *prompt.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithDecisionSource sets the source of interactive decisions. Without one,
// every stage is finalized with the default decision.
func WithDecisionSource(src runner.DecisionSource) Option {
	return func(c *Controller) {
		c.source = src
	}
}

// WithPrompts provides the option lists offered when Beta re-collects parameters.
func WithPrompts(m *prompt.Manager) Option {
	return func(c *Controller) {
		c.prompts = m
	}
}

// WithLifecycleHooks registers callbacks for state transitions.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller running attempts through r and
// recording events with rec.
func NewController(r StageRunner, rec *audit.Recorder, opts ...Option) *Controller {
	c := &Controller{
		runner:   r,
		recorder: rec,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run is the state of one stage execution.
type run struct {
	s        *domain.Session
	name     domain.StageName
	res      *domain.StageResult
	trail    *audit.StageTrail
	last     domain.StageOutput
	hints    []string
	revision string
}

// Run drives name to Finalized and advances the session. A session-level
// failure is returned as a *domain.StageError; the stage is left active on
// the session so its events remain on the trail.
func (c *Controller) Run(ctx context.Context, s *domain.Session, name domain.StageName) (*domain.StageResult, error) {
	res, err := s.Begin(name)
	if err != nil {
		return nil, domain.NewStageError(name, err)
	}
	r := &run{s: s, name: name, res: res, trail: c.recorder.For(s, name)}
	logger := c.logger.With("session_id", s.ID, "stage", name)
	c.emitStageEnter(ctx, r)

	ceiling := s.Parameters.Ceiling()
	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		c.transition(ctx, r, domain.StateExecuting, "")

		out, err := c.runner.Run(ctx, name, stage.Request{
			Session:    s,
			Parameters: s.Parameters,
			Attempt:    attempt,
			Revision:   r.revision,
			Trail:      r.trail,
		})
		if err != nil {
			if !stage.IsParseFailure(err) {
				if errors.Is(err, domain.ErrBackendFailure) {
					r.trail.Log(ctx, domain.EventBackendError, map[string]any{"error": err.Error(), "attempt": attempt})
				}
				return nil, c.fail(ctx, r, err)
			}
			logger.Debug("parse failure", "attempt", attempt, "ceiling", ceiling)
			if attempt < ceiling {
				c.transition(ctx, r, domain.StateRetrying, domain.EventParseError)
				continue
			}
			if r.last == nil {
				return nil, c.fail(ctx, r, err)
			}
			return c.finalize(ctx, r, domain.EventFinalizedMaxRetries)
		}
		r.last = out.Output
		r.hints = out.Hints

		if c.nonInteractive(s) {
			return c.finalize(ctx, r, domain.EventFinalizedDefault)
		}

		c.transition(ctx, r, domain.StateAwaitingDecision, "")
		d, err := c.decide(ctx, r, ceiling)
		if err != nil {
			return nil, c.fail(ctx, r, err)
		}

		switch d.Token {
		case domain.DecisionQuit:
			return nil, c.fail(ctx, r, domain.ErrUserAbort)

		case domain.DecisionAccept:
			if g, ok := r.last.(*domain.GammaOutput); ok {
				if text, ok := g.Choose(d.Choice); ok {
					g.Selected = text
				}
			}
			return c.finalize(ctx, r, domain.EventFinalized)

		case domain.DecisionModify, domain.DecisionRetry:
			if g, ok := r.last.(*domain.GammaOutput); ok && d.Token == domain.DecisionModify {
				if err := c.customHeadline(ctx, r, g); err != nil {
					return nil, c.fail(ctx, r, err)
				}
				return c.finalize(ctx, r, domain.EventFinalized)
			}
			if attempt >= ceiling {
				logger.Info("retry ceiling reached", "attempt", attempt)
				return c.finalize(ctx, r, domain.EventFinalizedMaxRetries)
			}
			if err := c.prepareRetry(ctx, r); err != nil {
				return nil, c.fail(ctx, r, err)
			}
		}
	}
}

func (c *Controller) nonInteractive(s *domain.Session) bool {
	return s.Parameters.NonInteractive || c.source == nil
}

// finalize locks in the latest parsed output and advances the session.
func (c *Controller) finalize(ctx context.Context, r *run, reason domain.EventKind) (*domain.StageResult, error) {
	if g, ok := r.last.(*domain.GammaOutput); ok && g.Selected == "" {
		g.Selected = g.Headline()
	}
	r.trail.Log(ctx, reason, finalizePayload(r.last, r.res.Attempts))
	from := r.res.State
	r.res.Finalize(r.last, reason)
	c.emitStateChange(ctx, r, from, reason)
	if err := r.s.Advance(r.name, r.res); err != nil {
		return nil, domain.NewStageError(r.name, err)
	}
	c.emitStageLeave(ctx, r, reason)
	return r.res, nil
}

// fail marks the stage failed and classifies err for the session outcome.
func (c *Controller) fail(ctx context.Context, r *run, err error) error {
	c.transition(ctx, r, domain.StateFailed, "")
	c.emitStageLeave(ctx, r, "")
	c.logger.Warn("stage failed", "session_id", r.s.ID, "stage", r.name, "attempt", r.res.Attempts, "error", err)
	return domain.NewStageError(r.name, err)
}

func (c *Controller) transition(ctx context.Context, r *run, to domain.StageState, reason domain.EventKind) {
	from := r.res.State
	r.res.State = to
	c.emitStateChange(ctx, r, from, reason)
}

func finalizePayload(out domain.StageOutput, attempt int) map[string]any {
	p := map[string]any{"attempt": attempt, "quality_score": out.Quality()}
	switch o := out.(type) {
	case *domain.GammaOutput:
		p["headline"] = o.Selected
	case *domain.DeltaOutput:
		p["best_title"] = o.BestTitle
		p["final_body_len"] = len([]rune(o.FinalBody))
	}
	return p
}

// abortCause turns a decision-source error into a user abort that keeps the cause.
func abortCause(err error) error {
	if errors.Is(err, domain.ErrUserAbort) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUserAbort, err)
}
