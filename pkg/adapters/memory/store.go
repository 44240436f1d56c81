package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
)

var (
	_ ports.SessionStore = (*Store)(nil)
	_ ports.DetailSink   = (*Store)(nil)
)

// Store implements ports.SessionStore in memory.
// Records are kept serialized so callers never share pointers with the store.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, detail *domain.SessionDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", detail.SessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[detail.SessionID] = data
	return nil
}

// WriteDetail implements ports.DetailSink.
func (s *Store) WriteDetail(ctx context.Context, detail domain.SessionDetail) error {
	return s.Save(ctx, &detail)
}

// Load retrieves a copy of the record.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	s.mu.RLock()
	data, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	var detail domain.SessionDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &detail, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored session IDs in lexical (and so chronological) order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
