package ports

import (
	"context"
	"time"

	"github.com/aretw0/gazette/pkg/domain"
)

// SessionStore persists the full-detail record of finished sessions.
type SessionStore interface {
	// Save persists the record under detail.SessionID, replacing any previous one.
	Save(ctx context.Context, detail *domain.SessionDetail) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error)

	// Delete removes the record for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes access to one session record across processes
// sharing a store, e.g. several `gazette batch` or `gazette serve` instances
// on the same redis. The session Manager takes the lock around every load,
// save and delete of a record.
type DistributedLocker interface {
	// Lock blocks until the lock on key is held or ctx is done. The lock
	// expires after ttl if it is never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
