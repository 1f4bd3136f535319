package invitation

import (
	"context"

	domain "skillcoach/internal/domain/invitation"
)

// Store persists coach invitations.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Invitation, error)
	Save(ctx context.Context, value domain.Invitation) error
	// List returns invitations newest first; an empty status matches all.
	List(ctx context.Context, status string) ([]domain.Invitation, error)
	// ListPendingByEmail returns pending invitations for a normalised email.
	ListPendingByEmail(ctx context.Context, email string) ([]domain.Invitation, error)
}
