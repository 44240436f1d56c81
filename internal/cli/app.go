// Package cli wires configuration, backends, sinks and decision sources into
// pipelines for the gazette commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/gazette"
	"github.com/aretw0/gazette/internal/config"
	"github.com/aretw0/gazette/internal/logging"
	"github.com/aretw0/gazette/internal/metrics"
	"github.com/aretw0/gazette/internal/presentation/tui"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/prompt"
	"github.com/aretw0/gazette/pkg/runner"
	"golang.org/x/term"
)

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath  string
	Debug       bool
	Mock        bool
	JSON        bool
	ShowPrompts bool
	LogCSV      string
	LogJSONL    string
	LogSQLite   string
	PromptsDir  string
	StoreDir    string
}

// IO are the streams a command talks to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// App is everything one invocation needs. Close must be called on every exit
// path.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Backend Backend
	Prompts *prompt.Manager
	Sinks   *Sinks
	Metrics *metrics.Collectors
	IO      IO

	opts Options
}

// LoadConfig reads the configuration and applies the global flags.
func LoadConfig(opts Options) (config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if opts.Mock {
		cfg.Backend.Provider = config.ProviderMock
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	if opts.LogCSV != "" {
		cfg.Log.CSV = opts.LogCSV
	}
	if opts.LogJSONL != "" {
		cfg.Log.JSONL = opts.LogJSONL
	}
	if opts.LogSQLite != "" {
		cfg.Log.SQLite = opts.LogSQLite
	}
	if opts.PromptsDir != "" {
		cfg.PromptsDir = opts.PromptsDir
	}
	if opts.StoreDir != "" {
		cfg.Store.Dir = opts.StoreDir
	}
	return cfg, cfg.Validate()
}

// NewLogger builds the stderr logger for cfg.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(w, level, false), nil
}

// Setup loads the configuration and opens the backend and every sink.
func Setup(ctx context.Context, opts Options, stdio IO) (*App, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg, stdio.Err)
	if err != nil {
		return nil, err
	}

	backend, err := NewBackend(ctx, cfg.Backend)
	if err != nil {
		return nil, err
	}
	var promptOpts []prompt.Option
	if cfg.PromptsDir != "" {
		promptOpts = append(promptOpts, prompt.WithOverridesDir(cfg.PromptsDir))
	}
	prompts, err := prompt.New(promptOpts...)
	if err != nil {
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}

	sinks, err := OpenSinks(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		"provider", cfg.Backend.Provider,
		"store", cfg.Store.Kind,
		"csv", cfg.Log.CSV,
	)
	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: backend,
		Prompts: prompts,
		Sinks:   sinks,
		Metrics: metrics.New(),
		IO:      stdio,
		opts:    opts,
	}, nil
}

// Close flushes and closes every sink.
func (a *App) Close() error {
	if a.Sinks == nil {
		return nil
	}
	return a.Sinks.Close()
}

// Pipeline builds a pipeline writing to every sink. A nil source runs
// without asking.
func (a *App) Pipeline(source runner.DecisionSource) (*gazette.Pipeline, error) {
	var backend Backend = a.Backend
	if a.opts.ShowPrompts {
		backend = &promptEcho{Backend: backend, w: a.IO.Err}
	}
	hooks := a.Metrics.Hooks()
	if a.opts.Debug {
		hooks = hooks.Merge(debugHooks(a.Logger))
	}
	return gazette.New(backend,
		gazette.WithPrompts(a.Prompts),
		gazette.WithDecisionSource(source),
		gazette.WithRowSink(a.Sinks.MultiSink),
		gazette.WithDetailSink(a.Sinks.MultiSink),
		gazette.WithEventSink(a.Sinks.MultiSink),
		gazette.WithLifecycleHooks(hooks),
		gazette.WithLogger(a.Logger),
		gazette.WithConcurrency(a.Config.Batch.Concurrency),
	)
}

// DecisionSource picks how decisions are answered. It returns nil when the
// session runs non-interactively, and forces non-interactive mode when text
// mode has no terminal to ask.
func (a *App) DecisionSource(params *domain.Parameters) runner.DecisionSource {
	if params.NonInteractive {
		return nil
	}
	if a.opts.JSON {
		return runner.NewJSONHandler(a.IO.In, a.IO.Out)
	}
	if !isTerminal(a.IO.In) {
		tui.Warn(a.IO.Err, "stdin is not a terminal; running non-interactively")
		params.NonInteractive = true
		return nil
	}
	width := runner.DefaultWidth
	if f, ok := a.IO.Out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return runner.NewTextHandler(a.IO.In, a.IO.Out,
		runner.WithTextHandlerRenderer(tui.NewRenderer()),
		runner.WithTextHandlerWidth(width),
	)
}

// Interactive reports whether text prompts and banners should be shown.
func (a *App) Interactive() bool {
	return !a.opts.JSON && isTerminal(a.IO.Out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// promptEcho prints every composed prompt before the call.
type promptEcho struct {
	Backend
	w io.Writer
}

func (p *promptEcho) Invoke(ctx context.Context, stage domain.StageName, pr domain.Prompt) (string, error) {
	fmt.Fprintf(p.w, "----- %s prompt -----\n%s\n", stage, prompt.Preview(pr))
	return p.Backend.Invoke(ctx, stage, pr)
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("enter stage", "session_id", e.SessionID, "stage", e.Stage)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("leave stage", "session_id", e.SessionID, "stage", e.Stage, "reason", e.Reason)
		},
		OnStateChange: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("state change", "stage", e.Stage, "attempt", e.Attempt, "from", e.From, "to", e.To)
		},
		OnBackendReturn: func(ctx context.Context, e *domain.BackendEvent) {
			if e.Err != nil {
				logger.Debug("backend return (error)", "stage", e.Stage, "attempt", e.Attempt, "error", e.Err)
				return
			}
			logger.Debug("backend return", "stage", e.Stage, "attempt", e.Attempt, "duration", e.Duration)
		},
	}
}
