package account

import (
	"context"

	domain "skillcoach/internal/domain/account"
)

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Account, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter narrows List and Count. Zero values mean "any".
type ListFilter struct {
	Role    string
	Status  string
	CoachID string
	Search  string // substring of email or display name
	Sort    string // email, display_name, role, created_at
	Dir     string // asc, desc
	Limit   int
	Offset  int
}

// SortColumns are the columns List accepts in ListFilter.Sort.
var SortColumns = []string{"email", "display_name", "role", "created_at"}
