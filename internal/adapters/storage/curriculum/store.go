package curriculum

import (
	"context"

	domain "skillcoach/internal/domain/curriculum"
)

// Store persists custom curricula with their items embedded.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Curriculum, error)
	Save(ctx context.Context, value domain.Curriculum) error
	Delete(ctx context.Context, id string) error
	ListByStudent(ctx context.Context, studentID string) ([]domain.Curriculum, error)
	ListByCoach(ctx context.Context, coachID string) ([]domain.Curriculum, error)
}
