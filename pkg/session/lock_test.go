package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/gazette/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, detail *domain.SessionDetail) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	return &domain.SessionDetail{SessionID: sessionID}, nil
}
func (m *MockStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, &domain.SessionDetail{SessionID: sid})
		_ = mgr.Delete(ctx, sid)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
