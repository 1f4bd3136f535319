package charting

import (
	"context"

	domain "skillcoach/internal/domain/charting"
)

// Store persists charting entries. Responses travel as one JSON document.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, value domain.Entry) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Entry, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Entry, error)
}
