package quiz

import (
	"context"

	domain "skillcoach/internal/domain/quiz"
)

// ListFilter narrows quiz listings. Empty fields match everything.
type ListFilter struct {
	SportID       string
	SkillID       string
	Kind          string
	CreatedBy     string
	PublishedOnly bool
}

// AttemptFilter narrows attempt listings. At least one field is expected.
type AttemptFilter struct {
	QuizID    string
	StudentID string
}

// Store persists quizzes and the attempts made against them.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Quiz, error)
	Save(ctx context.Context, value domain.Quiz) error
	// Delete removes the quiz and its attempts.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Quiz, error)

	SaveAttempt(ctx context.Context, value domain.Attempt) error
	ListAttempts(ctx context.Context, filter AttemptFilter) ([]domain.Attempt, error)
}
