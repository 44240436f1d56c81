package audit

import (
	"context"
	"errors"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

// MultiSink fans rows, details and events out to several sinks.
// Every sink is attempted; failures are joined.
type MultiSink struct {
	Rows    []ports.RowSink
	Details []ports.DetailSink
	Events  []ports.EventSink
}

var (
	_ ports.RowSink    = (*MultiSink)(nil)
	_ ports.DetailSink = (*MultiSink)(nil)
	_ ports.EventSink  = (*MultiSink)(nil)
)

func (m *MultiSink) WriteRow(ctx context.Context, row domain.LogRow) error {
	var errs []error
	for _, s := range m.Rows {
		errs = append(errs, s.WriteRow(ctx, row))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) WriteDetail(ctx context.Context, detail domain.SessionDetail) error {
	var errs []error
	for _, s := range m.Details {
		errs = append(errs, s.WriteDetail(ctx, detail))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Append(ctx context.Context, sessionID string, event domain.DecisionEvent) error {
	var errs []error
	for _, s := range m.Events {
		errs = append(errs, s.Append(ctx, sessionID, event))
	}
	return errors.Join(errs...)
}
