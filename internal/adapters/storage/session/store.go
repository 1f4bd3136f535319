package session

import (
	"context"
	"time"

	domain "skillcoach/internal/domain/session"
)

// ListFilter narrows session listings. Zero values match everything;
// From is inclusive and To exclusive.
type ListFilter struct {
	CoachID   string
	StudentID string
	Status    string
	From      time.Time
	To        time.Time
}

// Store persists coaching sessions.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, value domain.Session) error
	List(ctx context.Context, filter ListFilter) ([]domain.Session, error)
}
