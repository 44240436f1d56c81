// Package http exposes the pipeline over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/gazette"
	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/aretw0/gazette/pkg/runner"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// MaxBodyBytes bounds the generate request body.
const MaxBodyBytes = 1 << 20

// SessionReader is the read side of the session store.
type SessionReader interface {
	Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error)
	List(ctx context.Context) ([]string, error)
}

// Server serves the pipeline API.
type Server struct {
	Pipeline *gazette.Pipeline
	Sessions SessionReader
	Health   ports.HealthChecker
	Metrics  http.Handler
	Defaults domain.Parameters
	Logger   *slog.Logger

	doc *openapi3.T
}

// Option configures a Server.
type Option func(*Server)

// WithSessions enables the session endpoints.
func WithSessions(r SessionReader) Option {
	return func(s *Server) { s.Sessions = r }
}

// WithHealthChecker reports backend reachability on /health.
func WithHealthChecker(h ports.HealthChecker) Option {
	return func(s *Server) { s.Health = h }
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithDefaults sets the parameters requests start from.
func WithDefaults(p domain.Parameters) Option {
	return func(s *Server) { s.Defaults = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// NewHandler creates the HTTP handler for p.
func NewHandler(ctx context.Context, p *gazette.Pipeline, opts ...Option) (http.Handler, error) {
	doc, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Pipeline: p,
		Defaults: domain.DefaultParameters(),
		Logger:   logging.NewNop(),
		doc:      doc,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(Spec())
	})
	r.Get("/health", s.handleHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
	})
	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health is the /health response.
type Health struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		if err := s.Health.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, Health{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	RawData    string           `json:"raw_data"`
	Source     string           `json:"source,omitempty"`
	Parameters *ParameterFields `json:"parameters,omitempty"`
	Decisions  []string         `json:"decisions,omitempty"`
}

// ParameterFields carries the optional per-request parameter changes.
type ParameterFields struct {
	domain.ParameterOverrides
	MaxRetries        *int           `json:"max_retries,omitempty"`
	AdditionalAnswers map[string]any `json:"additional_answers,omitempty"`
}

// GenerateResponse is the result of one session.
type GenerateResponse struct {
	SessionID string         `json:"session_id"`
	Outcome   domain.Outcome `json:"outcome"`
	Row       domain.LogRow  `json:"row"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if err := validateBody(s.doc, "GenerateRequest", raw); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req GenerateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	params, p, err := s.prepare(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := p.Execute(r.Context(), domain.Document{Source: req.Source, Text: req.RawData}, params)
	if res == nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrValidation) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	if err != nil {
		s.Logger.Error("generate: sink write failed", "session_id", res.Session.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, GenerateResponse{
		SessionID: res.Session.ID,
		Outcome:   res.Outcome,
		Row:       res.Row,
	})
}

// prepare builds the parameters and the per-request pipeline. Requests run
// non-interactively unless decisions are supplied.
func (s *Server) prepare(req GenerateRequest) (domain.Parameters, *gazette.Pipeline, error) {
	params := s.Defaults
	params.NonInteractive = true
	if f := req.Parameters; f != nil {
		params = params.Apply(f.ParameterOverrides)
		if f.MaxRetries != nil {
			params.MaxRetries = *f.MaxRetries
		}
		if f.AdditionalAnswers != nil {
			params.AdditionalAnswers = f.AdditionalAnswers
		}
	}
	if len(req.Decisions) == 0 {
		return params, s.Pipeline.With(gazette.WithDecisionSource(nil)), nil
	}

	answers := make([]string, len(req.Decisions))
	for i, d := range req.Decisions {
		clean, err := runner.SanitizeInput(d)
		if err != nil {
			return params, nil, fmt.Errorf("decisions[%d]: %w", i, err)
		}
		answers[i] = clean
	}
	params.NonInteractive = false
	return params, s.Pipeline.With(gazette.WithDecisionSource(runner.NewScriptedHandler(answers...))), nil
}

// SessionList is the response of GET /api/v1/sessions.
type SessionList struct {
	Sessions []string `json:"sessions"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.Sessions == nil {
		writeError(w, http.StatusNotImplemented, errors.New("session store not configured"))
		return
	}
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, SessionList{Sessions: ids})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.Sessions == nil {
		writeError(w, http.StatusNotImplemented, errors.New("session store not configured"))
		return
	}
	var id string
	if err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath, chi.URLParam(r, "id"), &id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	detail, err := s.Sessions.Load(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
