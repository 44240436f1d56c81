package gazette

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/internal/runtime"
	"github.com/aretw0/gazette/pkg/audit"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/aretw0/gazette/pkg/prompt"
	"github.com/aretw0/gazette/pkg/runner"
	"github.com/aretw0/gazette/pkg/session"
	"github.com/aretw0/gazette/pkg/stage"
	"golang.org/x/sync/errgroup"
)

// Pipeline is the high-level entry point: it drives one document through
// Alpha, Beta, Gamma and Delta and exports the audit row.
type Pipeline struct {
	backend     ports.Backend
	prompts     *prompt.Manager
	source      runner.DecisionSource
	rows        ports.RowSink
	details     ports.DetailSink
	events      ports.EventSink
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
}

// Option defines a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithPrompts sets the prompt template manager.
func WithPrompts(m *prompt.Manager) Option {
	return func(p *Pipeline) {
		p.prompts = m
	}
}

// WithDecisionSource sets who answers the decision points. Without one every
// stage is finalized with the default decision.
func WithDecisionSource(src runner.DecisionSource) Option {
	return func(p *Pipeline) {
		p.source = src
	}
}

// WithRowSink sets the destination of exported LogRows.
func WithRowSink(sink ports.RowSink) Option {
	return func(p *Pipeline) {
		p.rows = sink
	}
}

// WithDetailSink sets the destination of full-detail session records.
func WithDetailSink(sink ports.DetailSink) Option {
	return func(p *Pipeline) {
		p.details = sink
	}
}

// WithEventSink streams every decision event as it is recorded.
func WithEventSink(sink ports.EventSink) Option {
	return func(p *Pipeline) {
		p.events = sink
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pipeline) {
		p.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithConcurrency bounds how many documents Batch runs at once. Batches with
// an interactive decision source always run one document at a time.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

// New creates a pipeline over backend.
func New(backend ports.Backend, opts ...Option) (*Pipeline, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", domain.ErrValidation)
	}
	p := &Pipeline{backend: backend, concurrency: 1}
	for _, opt := range opts {
		opt(p)
	}

	if p.prompts == nil {
		m, err := prompt.New()
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt templates: %w", err)
		}
		p.prompts = m
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	return p, nil
}

// With returns a copy of p with opts applied on top.
func (p *Pipeline) With(opts ...Option) *Pipeline {
	c := *p
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Prompts returns the template manager in use.
func (p *Pipeline) Prompts() *prompt.Manager { return p.prompts }

// Result is the outcome of one document.
type Result struct {
	Session *domain.Session
	Outcome domain.Outcome
	Row     domain.LogRow
}

// Execute runs one document to a terminal outcome.
//
// A stage failure is not an error: it is reported in Result.Outcome and the
// row is still exported. The error is non-nil only when the parameters are
// invalid or a sink rejects the record; in the latter case the result is
// still returned.
func (p *Pipeline) Execute(ctx context.Context, doc domain.Document, params domain.Parameters) (*Result, error) {
	params = params.Apply(doc.Overrides)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if doc.Source == "" {
		doc.Source = domain.SourceCLI
	}

	start := p.now()
	s := domain.NewSession(session.NewID(start), doc.Source, doc.Text, params, start)
	logger := p.logger.With("session_id", s.ID)
	logger.Info("session started", "source", doc.Source)

	rec := audit.NewRecorder(
		audit.WithEventSink(p.events),
		audit.WithLogger(logger),
		audit.WithClock(p.now),
	)
	cfg := params.Summary()
	if len(params.AdditionalAnswers) > 0 {
		cfg["additional_answers"] = params.AdditionalAnswers
	}
	rec.Record(ctx, s, domain.StageInitial, domain.EventConfig, cfg)
	rec.Record(ctx, s, domain.StageInitial, domain.EventSource, map[string]any{
		"source": doc.Source,
		"length": len([]rune(doc.Text)),
	})

	exec := stage.NewExecutor(p.backend, p.prompts,
		stage.WithLogger(logger),
		stage.WithHooks(p.hooks),
	)
	ctrl := runtime.NewController(exec, rec,
		runtime.WithDecisionSource(p.source),
		runtime.WithPrompts(p.prompts),
		runtime.WithLifecycleHooks(p.hooks),
		runtime.WithLogger(logger),
	)

	outcome := p.drive(ctx, s, ctrl)
	if err := s.Close(outcome, p.now()); err != nil {
		return nil, err
	}
	outcome = *s.Outcome
	if outcome.Succeeded() {
		logger.Info("session succeeded", "headline", outcome.Headline, "duration", s.Duration())
	} else {
		logger.Warn("session failed", "reason", outcome.Reason())
	}
	if p.hooks.OnSessionFinish != nil {
		p.hooks.OnSessionFinish(ctx, &domain.SessionEvent{
			EventBase: domain.EventBase{Timestamp: s.EndTime, Type: domain.EventSessionFinish, SessionID: s.ID},
			Outcome:   outcome,
		})
	}

	row, err := audit.Export(s)
	if err != nil {
		return nil, err
	}
	res := &Result{Session: s, Outcome: outcome, Row: row}
	return res, p.publish(ctx, s, row)
}

// drive runs the stages in order and stops at the first failure.
func (p *Pipeline) drive(ctx context.Context, s *domain.Session, ctrl *runtime.Controller) domain.Outcome {
	for _, name := range domain.Stages {
		if _, err := ctrl.Run(ctx, s, name); err != nil {
			se := domain.NewStageError(name, err)
			return domain.Outcome{Status: domain.OutcomeFailed, Stage: se.Stage, Message: se.Message}
		}
	}

	delta, ok := s.Delta()
	if !ok {
		return domain.Outcome{Status: domain.OutcomeFailed, Stage: domain.StageDelta, Message: "no accepted output"}
	}
	headline := delta.BestTitle
	if headline == "" {
		if g, ok := s.Gamma(); ok {
			headline = g.Headline()
		}
	}
	return domain.Outcome{
		Status:   domain.OutcomeSucceeded,
		Stage:    domain.StageDelta,
		Headline: headline,
		Body:     delta.FinalBody,
		Final:    delta,
	}
}

// publish writes the row and the detail record. Both are attempted.
func (p *Pipeline) publish(ctx context.Context, s *domain.Session, row domain.LogRow) error {
	var errs []error
	if p.rows != nil {
		if err := p.rows.WriteRow(ctx, row); err != nil {
			errs = append(errs, fmt.Errorf("write row: %w", err))
		}
	}
	if p.details != nil {
		if err := p.details.WriteDetail(ctx, s.Detail()); err != nil {
			errs = append(errs, fmt.Errorf("write detail: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Batch runs Execute once per document. A failed document never stops the
// others; results keep the order of docs. The returned error joins sink
// failures and is nil when every record was written.
func (p *Pipeline) Batch(ctx context.Context, docs []domain.Document, params domain.Parameters) ([]*Result, error) {
	results := make([]*Result, len(docs))
	errs := make([]error, len(docs))

	limit := p.concurrency
	if p.source != nil && !params.NonInteractive {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := p.Execute(gctx, doc, params)
			results[i] = res
			if err != nil {
				p.logger.Error("document failed", "source", doc.Source, "error", err)
				errs[i] = fmt.Errorf("%s: %w", doc.Source, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// Rows returns the rows of the non-nil results.
func Rows(results []*Result) []domain.LogRow {
	rows := make([]domain.LogRow, 0, len(results))
	for _, r := range results {
		if r != nil {
			rows = append(rows, r.Row)
		}
	}
	return rows
}
