package outbox

import (
	"context"

	domain "skillcoach/internal/domain/outbox"
)

// Store persists queued side effects awaiting delivery.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an entry (insert or update).
	// PRE: entity has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still eligible for delivery.
	// PRE: limit > 0
	// POST: Returns up to limit entries ordered by created_at
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// List returns entries newest first; an empty status matches all.
	List(ctx context.Context, status string, limit int) ([]domain.Entry, error)

	// Delete removes an entry.
	// PRE: entry is in a terminal state
	Delete(ctx context.Context, id string) error
}
