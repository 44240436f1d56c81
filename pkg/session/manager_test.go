package session_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/aretw0/gazette/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data   map[string]*domain.SessionDetail
	mu     sync.Mutex
	active int
	peak   int
}

func (s *SlowStore) enter() {
	s.mu.Lock()
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()
}

func (s *SlowStore) leave() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}

func (s *SlowStore) Save(ctx context.Context, detail *domain.SessionDetail) error {
	s.enter()
	defer s.leave()
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.SessionDetail)
	}
	s.data[detail.SessionID] = detail
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.data[sessionID]; ok {
		return d, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestManager_SerializesWritesPerSession(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.WriteDetail(ctx, domain.SessionDetail{SessionID: "race-test"}))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.peak, "writes to one session must not overlap")
}

func TestManager_SaveRequiresID(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	err := manager.Save(context.Background(), &domain.SessionDetail{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestManager_DeleteMissing(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	err := manager.Delete(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ok, err := manager.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

type fakeLocker struct {
	mu      sync.Mutex
	keys    []string
	ttl     time.Duration
	lockErr error
}

func (f *fakeLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.keys = append(f.keys, key)
	f.ttl = ttl
	return func(context.Context) error { return errors.New("already expired") }, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &fakeLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(time.Minute))
	ctx := context.Background()

	// A failing unlock is logged, not returned.
	require.NoError(t, manager.WriteDetail(ctx, domain.SessionDetail{SessionID: "s1"}))
	assert.Equal(t, []string{"s1"}, locker.keys)
	assert.Equal(t, time.Minute, locker.ttl)

	locker.lockErr = errors.New("redis down")
	err := manager.WriteDetail(ctx, domain.SessionDetail{SessionID: "s2"})
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

func TestNewID(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id := session.NewID(at)
	assert.Regexp(t, regexp.MustCompile(`^session_20250102_030405_[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, session.NewID(at))
}
