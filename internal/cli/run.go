package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/gazette"
	"github.com/aretw0/gazette/internal/presentation/tui"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/runner"
)

// ErrSessionsFailed is returned when at least one session ended in failure.
// Commands map it to exit status 1 without printing it again.
var ErrSessionsFailed = errors.New("one or more sessions failed")

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
	stop   sync.Once
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() { signal.Stop(sc.sigCh) })
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// RunDocuments executes docs and reports every outcome. A single document
// runs on its own; several run as a batch.
func RunDocuments(ctx context.Context, app *App, docs []domain.Document, params domain.Parameters) error {
	source := app.DecisionSource(&params)
	p, err := app.Pipeline(source)
	if err != nil {
		return err
	}
	if app.Interactive() && source != nil {
		tui.PrintBanner(app.IO.Out, gazette.Version)
	}

	var results []*gazette.Result
	var sinkErr error
	if len(docs) == 1 {
		res, err := p.Execute(ctx, docs[0], params)
		if res == nil {
			return err
		}
		results, sinkErr = []*gazette.Result{res}, err
	} else {
		results, sinkErr = p.Batch(ctx, docs, params)
	}
	if sinkErr != nil {
		app.Logger.Error("log write failed", "error", sinkErr)
	}

	if err := Report(app, docs, results); err != nil {
		return err
	}
	for _, r := range results {
		if r == nil || !r.Outcome.Succeeded() {
			return ErrSessionsFailed
		}
	}
	return sinkErr
}

// Report writes one summary per result: JSON lines in JSON mode, the
// rendered article for a single document, a status line otherwise.
func Report(app *App, docs []domain.Document, results []*gazette.Result) error {
	if app.opts.JSON {
		enc := json.NewEncoder(app.IO.Out)
		for _, r := range results {
			if r == nil {
				continue
			}
			if err := enc.Encode(domain.ActionRequest{Type: domain.ActionSessionResult, Payload: r.Outcome}); err != nil {
				return err
			}
		}
		return nil
	}

	if len(results) == 1 && results[0] != nil {
		article := runner.Article(results[0].Outcome)
		rendered, err := tui.NewRenderer()(article)
		if err != nil || !app.Interactive() {
			rendered = article
		}
		fmt.Fprintln(app.IO.Out, rendered)
	}
	for i, r := range results {
		if r == nil {
			tui.Warn(app.IO.Err, fmt.Sprintf("%s: not executed", docs[i].Source))
			continue
		}
		tui.PrintOutcome(app.IO.Out, r.Session.Source, r.Outcome)
	}
	return nil
}
