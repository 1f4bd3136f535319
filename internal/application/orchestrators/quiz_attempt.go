package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/curriculum"
	"skillcoach/internal/domain/quiz"
)

// QuizStoreForAttempt defines the store interface needed by SubmitAttempt.
type QuizStoreForAttempt interface {
	GetByID(ctx context.Context, id string) (quiz.Quiz, error)
	SaveAttempt(ctx context.Context, a quiz.Attempt) error
}

// CurriculumStoreForAttempt defines the curriculum store interface needed by SubmitAttempt.
type CurriculumStoreForAttempt interface {
	ListByStudent(ctx context.Context, studentID string) ([]curriculum.Curriculum, error)
	Save(ctx context.Context, c curriculum.Curriculum) error
}

// SubmitAttemptInput carries input for ExecuteSubmitAttempt.
type SubmitAttemptInput struct {
	Actor   authz.Actor
	QuizID  string
	Answers []int
}

// SubmitAttemptDeps holds dependencies for SubmitAttempt.
type SubmitAttemptDeps struct {
	QuizStore       QuizStoreForAttempt
	CurriculumStore CurriculumStoreForAttempt
	GenerateID      func() string
	Now             func() time.Time
}

// SubmitAttemptResult reports the graded attempt.
type SubmitAttemptResult struct {
	Attempt        quiz.Attempt `json:"attempt"`
	CompletedItems int          `json:"completedItems"`
}

// ExecuteSubmitAttempt grades a student's answers and records the attempt.
// PRE: Actor is a student; quiz is published; len(Answers) == question count
// POST: attempt saved; open curriculum items for the quiz are completed
func ExecuteSubmitAttempt(ctx context.Context, input SubmitAttemptInput, deps SubmitAttemptDeps) (SubmitAttemptResult, error) {
	if !input.Actor.IsStudent() {
		return SubmitAttemptResult{}, authz.ErrForbidden
	}
	q, err := deps.QuizStore.GetByID(ctx, input.QuizID)
	if err != nil {
		return SubmitAttemptResult{}, fmt.Errorf("load quiz: %w", err)
	}
	if !q.Published {
		return SubmitAttemptResult{}, authz.Conflict(quiz.ErrNotPublished)
	}
	score, err := q.Grade(input.Answers)
	if err != nil {
		return SubmitAttemptResult{}, authz.Invalid(err)
	}

	now := deps.Now()
	attempt := quiz.Attempt{
		ID:          deps.GenerateID(),
		QuizID:      q.ID,
		StudentID:   input.Actor.ID,
		Answers:     input.Answers,
		Score:       score,
		Total:       len(q.Questions),
		SubmittedAt: now,
	}
	if err := deps.QuizStore.SaveAttempt(ctx, attempt); err != nil {
		return SubmitAttemptResult{}, fmt.Errorf("save attempt: %w", err)
	}

	completed, err := completeQuizItems(ctx, input.Actor.ID, q.ID, now, deps.CurriculumStore)
	if err != nil {
		return SubmitAttemptResult{}, err
	}
	slog.Info("quiz_event", "event", "attempt_submitted", "quiz_id", q.ID, "student_id", input.Actor.ID,
		"score", score, "total", attempt.Total, "items_completed", completed)
	return SubmitAttemptResult{Attempt: attempt, CompletedItems: completed}, nil
}

func completeQuizItems(ctx context.Context, studentID, quizID string, now time.Time, store CurriculumStoreForAttempt) (int, error) {
	plans, err := store.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("list curricula: %w", err)
	}
	total := 0
	for _, c := range plans {
		n := c.CompleteQuiz(quizID, now)
		if n == 0 {
			continue
		}
		if err := store.Save(ctx, c); err != nil {
			return total, fmt.Errorf("save curriculum %s: %w", c.ID, err)
		}
		total += n
	}
	return total, nil
}
