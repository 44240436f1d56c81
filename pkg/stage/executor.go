package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/aretw0/gazette/pkg/prompt"
)

// excerptLen bounds the raw response kept in parse_error events.
const excerptLen = 500

// Trail appends events to the audit trail of the stage being executed.
type Trail interface {
	Log(ctx context.Context, kind domain.EventKind, payload map[string]any)
}

// Request is the input of one stage attempt.
type Request struct {
	Session *domain.Session
	// Parameters are the current values; Beta may have re-collected them.
	Parameters domain.Parameters
	Attempt    int
	// Revision is the free-form Delta revision instruction, if any.
	Revision string
	Trail    Trail
}

// Result is a successfully parsed attempt.
type Result struct {
	Output domain.StageOutput
	Prompt domain.Prompt
	Raw    string
	// Hints are advisory notes for the decision source.
	Hints []string
}

// ParseError is a response that arrived but did not fit the stage schema.
type ParseError struct {
	Stage   domain.StageName
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s response: %v", domain.ErrParseFailure, e.Stage, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == domain.ErrParseFailure }

func (e *ParseError) Unwrap() error { return e.Err }

// Executor runs single stage attempts against a backend.
type Executor struct {
	backend ports.Backend
	prompts *prompt.Manager
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	now     func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithHooks registers backend call hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// NewExecutor creates an executor over backend.
func NewExecutor(backend ports.Backend, prompts *prompt.Manager, opts ...Option) *Executor {
	e := &Executor{
		backend: backend,
		prompts: prompts,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compose builds the prompt for an attempt without invoking the backend.
func (e *Executor) Compose(stage domain.StageName, req Request) (domain.Prompt, error) {
	vars, err := templateVars(stage, req.Session, req.Parameters)
	if err != nil {
		return domain.Prompt{}, err
	}
	var appendix string
	if stage == domain.StageDelta {
		appendix = e.prompts.RevisionAppend(stage, req.Revision)
	}
	return e.prompts.Compose(stage, vars, req.Parameters, appendix)
}

// Run executes one attempt of stage.
//
// A backend error is returned wrapped in domain.ErrBackendFailure. A response
// that cannot be decoded is returned as a *ParseError. In both cases the
// events already logged to req.Trail stay in place.
func (e *Executor) Run(ctx context.Context, stage domain.StageName, req Request) (*Result, error) {
	p, err := e.Compose(stage, req)
	if err != nil {
		return nil, err
	}

	raw, err := e.invoke(ctx, stage, req, p)
	if err != nil {
		e.logger.Warn("backend call failed", "stage", stage, "attempt", req.Attempt, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	req.log(ctx, domain.EventRawOutput, map[string]any{
		"prompt":   p,
		"response": raw,
		"attempt":  req.Attempt,
	})

	out, ignored, err := e.parse(stage, req.Session, raw)
	if err != nil {
		perr := &ParseError{Stage: stage, Excerpt: excerpt(raw, excerptLen), Err: err}
		req.log(ctx, domain.EventParseError, map[string]any{
			"response": perr.Excerpt,
			"error":    err.Error(),
			"attempt":  req.Attempt,
		})
		e.logger.Debug("stage response rejected", "stage", stage, "attempt", req.Attempt, "error", err)
		return nil, perr
	}

	result := summary(out, req.Attempt)
	if len(ignored) > 0 {
		result["ignored_fields"] = ignored
	}
	req.log(ctx, domain.EventAIResult, result)
	lang, hints := checkLanguage(out)
	if len(ignored) > 0 {
		hints = append(hints, "unreadable values ignored: "+strings.Join(ignored, ", "))
	}
	if len(lang) > 0 {
		lang["attempt"] = req.Attempt
		req.log(ctx, domain.EventLangCheck, lang)
	}
	if !out.ContinueRecommended() {
		hints = append(hints, fmt.Sprintf("model suggests another pass (quality %d)", out.Quality()))
	}
	return &Result{Output: out, Prompt: p, Raw: raw, Hints: hints}, nil
}

func (e *Executor) invoke(ctx context.Context, stage domain.StageName, req Request, p domain.Prompt) (string, error) {
	evt := &domain.BackendEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventBackendCall, SessionID: req.sessionID()},
		Stage:     stage,
		Attempt:   req.Attempt,
	}
	if e.hooks.OnBackendCall != nil {
		e.hooks.OnBackendCall(ctx, evt)
	}

	start := e.now()
	raw, err := e.backend.Invoke(ctx, stage, p)

	if e.hooks.OnBackendReturn != nil {
		ret := *evt
		ret.Timestamp = e.now()
		ret.Type = domain.EventBackendReturn
		ret.Duration = ret.Timestamp.Sub(start)
		ret.Err = err
		e.hooks.OnBackendReturn(ctx, &ret)
	}
	return raw, err
}

func (e *Executor) parse(stage domain.StageName, s *domain.Session, raw string) (domain.StageOutput, []string, error) {
	obj, err := ParseObject(raw)
	if err != nil {
		return nil, nil, err
	}
	var gamma *domain.GammaOutput
	if stage == domain.StageDelta && s != nil {
		gamma, _ = s.Gamma()
	}
	return decode(stage, obj, gamma)
}

// summary is the ai_result payload: the scores and flags of an attempt.
func summary(out domain.StageOutput, attempt int) map[string]any {
	p := map[string]any{"attempt": attempt, "quality_score": out.Quality()}
	switch o := out.(type) {
	case *domain.AlphaOutput:
		p["word_count"] = o.WordCount
		p["key_points"] = o.KeyPoints
		p["needs_retry"] = o.NeedsRetry
	case *domain.BetaOutput:
		p["word_count"] = o.WordCount
		p["tone_score"] = o.ToneScore
		p["readability_score"] = o.ReadabilityScore
		p["needs_retry"] = o.NeedsRetry
	case *domain.GammaOutput:
		kinds := make([]string, 0, len(o.HeadlineOptions))
		for _, h := range o.HeadlineOptions {
			kinds = append(kinds, h.Kind)
		}
		p["headline_types"] = kinds
		p["recommended"] = o.Recommended
	case *domain.DeltaOutput:
		p["publishable"] = o.Publishable
		p["seo_keywords"] = o.SEOKeywords
		p["best_title"] = o.BestTitle
	}
	return p
}

func (r Request) log(ctx context.Context, kind domain.EventKind, payload map[string]any) {
	if r.Trail != nil {
		r.Trail.Log(ctx, kind, payload)
	}
}

func (r Request) sessionID() string {
	if r.Session == nil {
		return ""
	}
	return r.Session.ID
}

// IsParseFailure reports whether err is a recoverable parse failure.
func IsParseFailure(err error) bool {
	return errors.Is(err, domain.ErrParseFailure)
}
