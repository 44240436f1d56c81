package ports

import (
	"context"

	"github.com/aretw0/gazette/pkg/domain"
)

// RowSink accepts one exported LogRow per completed or failed session.
// Implementations must be safe for concurrent use; a single row is written atomically.
type RowSink interface {
	WriteRow(ctx context.Context, row domain.LogRow) error
}

// DetailSink accepts the full-detail record of a session, keyed by session ID.
type DetailSink interface {
	WriteDetail(ctx context.Context, detail domain.SessionDetail) error
}

// EventSink receives decision events as they are appended to a session.
type EventSink interface {
	Append(ctx context.Context, sessionID string, event domain.DecisionEvent) error
}
