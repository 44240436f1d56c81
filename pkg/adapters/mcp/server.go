// Package mcp exposes the pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/gazette"
	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName identifies the server during the MCP handshake.
const ServerName = "gazette-mcp"

// SessionReader is the read side of the session store.
type SessionReader interface {
	Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error)
	List(ctx context.Context) ([]string, error)
}

// GenerateArgs are the arguments of the generate_article tool.
type GenerateArgs struct {
	RawData     string `json:"raw_data"`
	Source      string `json:"source,omitempty"`
	NewsType    string `json:"news_type,omitempty"`
	TargetStyle string `json:"target_style,omitempty"`
	Tone        string `json:"tone,omitempty"`
	Constraints string `json:"constraints,omitempty"`
	WordLimit   int    `json:"word_limit,omitempty"`
	MaxRetries  *int   `json:"max_retries,omitempty"`
}

// GenerateResponse aligns with the HTTP API's generate response.
type GenerateResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"Identifier of the recorded session"`
	Outcome   domain.Outcome `json:"outcome" jsonschema_description:"Terminal outcome of the session"`
	Row       domain.LogRow  `json:"row" jsonschema_description:"Exported log row"`
}

// ListArgs are the arguments of the list_sessions tool.
type ListArgs struct {
	Limit int `json:"limit,omitempty"`
}

// SessionList is the result of list_sessions.
type SessionList struct {
	Sessions []string `json:"sessions" jsonschema_description:"Stored session identifiers, oldest first"`
}

// Server wraps a pipeline and exposes it as an MCP server.
type Server struct {
	pipeline  *gazette.Pipeline
	sessions  SessionReader
	defaults  domain.Parameters
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithSessions enables list_sessions and get_session.
func WithSessions(r SessionReader) Option {
	return func(s *Server) { s.sessions = r }
}

// WithDefaults sets the base parameters tool calls override.
func WithDefaults(p domain.Parameters) Option {
	return func(s *Server) { s.defaults = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP server. Tool calls always run non-interactively.
func NewServer(p *gazette.Pipeline, version string, opts ...Option) *Server {
	s := &Server{
		pipeline:  p.With(gazette.WithDecisionSource(nil)),
		defaults:  domain.DefaultParameters(),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer(ServerName, version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin and stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	generate := mcp.NewTool("generate_article",
		mcp.WithDescription("Run the news generation pipeline on raw source text and return the outcome."),
		mcp.WithString("raw_data", mcp.Required(), mcp.Description("Source text of the news event")),
		mcp.WithString("source", mcp.Description("Label recorded as the session source")),
		mcp.WithString("news_type", mcp.Description("News category")),
		mcp.WithString("target_style", mcp.Description("Publication style to imitate")),
		mcp.WithString("tone", mcp.Description("Tone of the article")),
		mcp.WithString("constraints", mcp.Description("Extra writing constraints")),
		mcp.WithNumber("word_limit", mcp.Description("Target article length")),
		mcp.WithNumber("max_retries", mcp.Description("Retries allowed per stage")),
		mcp.WithOutputSchema[GenerateResponse](),
	)
	s.mcpServer.AddTool(generate, mcp.NewStructuredToolHandler(s.handleGenerate))

	if s.sessions == nil {
		return
	}

	list := mcp.NewTool("list_sessions",
		mcp.WithDescription("List stored session identifiers."),
		mcp.WithNumber("limit", mcp.Description("Return only the most recent sessions")),
		mcp.WithOutputSchema[SessionList](),
	)
	s.mcpServer.AddTool(list, mcp.NewStructuredToolHandler(s.handleListSessions))

	get := mcp.NewTool("get_session",
		mcp.WithDescription("Fetch the recorded detail of one session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	)
	s.mcpServer.AddTool(get, s.handleGetSession)
}

func (s *Server) handleGenerate(ctx context.Context, _ mcp.CallToolRequest, args GenerateArgs) (GenerateResponse, error) {
	if args.RawData == "" {
		return GenerateResponse{}, fmt.Errorf("%w: raw_data is required", domain.ErrValidation)
	}
	params := s.defaults.Apply(domain.ParameterOverrides{
		NewsType:    args.NewsType,
		TargetStyle: args.TargetStyle,
		WordLimit:   args.WordLimit,
		Tone:        args.Tone,
		Constraints: args.Constraints,
	})
	if args.MaxRetries != nil {
		params.MaxRetries = *args.MaxRetries
	}
	params.NonInteractive = true

	res, err := s.pipeline.Execute(ctx, domain.Document{Source: args.Source, Text: args.RawData}, params)
	if res == nil {
		return GenerateResponse{}, err
	}
	if err != nil {
		s.logger.Error("generate_article: sink write failed", "session_id", res.Session.ID, "error", err)
	}
	return GenerateResponse{SessionID: res.Session.ID, Outcome: res.Outcome, Row: res.Row}, nil
}

func (s *Server) handleListSessions(ctx context.Context, _ mcp.CallToolRequest, args ListArgs) (SessionList, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return SessionList{}, fmt.Errorf("list sessions: %w", err)
	}
	if args.Limit > 0 && len(ids) > args.Limit {
		ids = ids[len(ids)-args.Limit:]
	}
	if ids == nil {
		ids = []string{}
	}
	return SessionList{Sessions: ids}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.sessions.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load session: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(detail)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
