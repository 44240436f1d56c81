package memory

import (
	"context"
	"sync"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

var (
	_ ports.RowSink   = (*Sink)(nil)
	_ ports.EventSink = (*Sink)(nil)
)

// Sink collects rows and events in memory.
type Sink struct {
	mu     sync.Mutex
	rows   []domain.LogRow
	events map[string][]domain.DecisionEvent
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{events: make(map[string][]domain.DecisionEvent)}
}

func (s *Sink) WriteRow(_ context.Context, row domain.LogRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

func (s *Sink) Append(_ context.Context, sessionID string, event domain.DecisionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], event)
	return nil
}

// Rows returns the rows written so far.
func (s *Sink) Rows() []domain.LogRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LogRow(nil), s.rows...)
}

// Events returns the events appended for sessionID.
func (s *Sink) Events(sessionID string) []domain.DecisionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DecisionEvent(nil), s.events[sessionID]...)
}
