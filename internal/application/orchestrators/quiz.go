package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skillcoach/internal/adapters/storage"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/quiz"
	"skillcoach/internal/domain/sport"
)

// QuizStoreForOrchestrator defines the store interface needed by the quiz orchestrators.
type QuizStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (quiz.Quiz, error)
	Save(ctx context.Context, q quiz.Quiz) error
	Delete(ctx context.Context, id string) error
}

// SportLookup resolves sports for skill validation.
type SportLookup interface {
	GetByID(ctx context.Context, id string) (sport.Sport, error)
}

// QuizDeps holds dependencies for the quiz orchestrators.
type QuizDeps struct {
	QuizStore  QuizStoreForOrchestrator
	SportStore SportLookup
	GenerateID func() string
	Now        func() time.Time
}

// ErrUnknownSport is returned when a quiz, curriculum, or session names a missing sport.
var ErrUnknownSport = errors.New("sport does not exist")

// QuizInput carries the editable fields of a quiz.
type QuizInput struct {
	Actor       authz.Actor
	ID          string // update only
	Title       string
	Description string
	Kind        string
	VideoURL    string
	SportID     string
	SkillID     string
	Questions   []quiz.Question
}

// ExecuteCreateQuiz creates an unpublished quiz.
// PRE: Actor is a coach or admin
// POST: quiz saved with generated question IDs
// INVARIANT: SkillID belongs to SportID
func ExecuteCreateQuiz(ctx context.Context, input QuizInput, deps QuizDeps) (quiz.Quiz, error) {
	if !input.Actor.IsCoach() && !input.Actor.IsAdmin() {
		return quiz.Quiz{}, authz.ErrForbidden
	}
	now := deps.Now()
	q := quiz.Quiz{
		ID:        deps.GenerateID(),
		CreatedBy: input.Actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyQuizInput(&q, input, deps.GenerateID)
	if err := validateQuiz(ctx, q, deps.SportStore); err != nil {
		return quiz.Quiz{}, err
	}
	if err := deps.QuizStore.Save(ctx, q); err != nil {
		return quiz.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	slog.Info("quiz_event", "event", "quiz_created", "quiz_id", q.ID, "kind", q.Kind, "sport_id", q.SportID, "by", input.Actor.ID)
	return q, nil
}

// ExecuteUpdateQuiz replaces the editable fields of a quiz.
// PRE: Actor created the quiz or is an admin
// POST: quiz saved; Published and CreatedBy unchanged
func ExecuteUpdateQuiz(ctx context.Context, input QuizInput, deps QuizDeps) (quiz.Quiz, error) {
	q, err := loadOwnedQuiz(ctx, input.Actor, input.ID, deps.QuizStore)
	if err != nil {
		return quiz.Quiz{}, err
	}
	applyQuizInput(&q, input, deps.GenerateID)
	q.UpdatedAt = deps.Now()
	if err := validateQuiz(ctx, q, deps.SportStore); err != nil {
		return quiz.Quiz{}, err
	}
	if err := deps.QuizStore.Save(ctx, q); err != nil {
		return quiz.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	slog.Info("quiz_event", "event", "quiz_updated", "quiz_id", q.ID, "by", input.Actor.ID)
	return q, nil
}

// QuizActionInput names a quiz acted on by its author or an admin.
type QuizActionInput struct {
	Actor     authz.Actor
	ID        string
	Published bool // publish only
}

// ExecuteDeleteQuiz removes a quiz and its attempts.
// PRE: Actor created the quiz or is an admin
func ExecuteDeleteQuiz(ctx context.Context, input QuizActionInput, deps QuizDeps) error {
	q, err := loadOwnedQuiz(ctx, input.Actor, input.ID, deps.QuizStore)
	if err != nil {
		return err
	}
	if err := deps.QuizStore.Delete(ctx, q.ID); err != nil {
		return err
	}
	slog.Info("quiz_event", "event", "quiz_deleted", "quiz_id", q.ID, "by", input.Actor.ID)
	return nil
}

// ExecutePublishQuiz shows or hides a quiz from students.
// PRE: Actor created the quiz or is an admin
// POST: Published = input.Published
func ExecutePublishQuiz(ctx context.Context, input QuizActionInput, deps QuizDeps) (quiz.Quiz, error) {
	q, err := loadOwnedQuiz(ctx, input.Actor, input.ID, deps.QuizStore)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if q.Published == input.Published {
		return q, nil
	}
	q.Published = input.Published
	q.UpdatedAt = deps.Now()
	if err := deps.QuizStore.Save(ctx, q); err != nil {
		return quiz.Quiz{}, err
	}
	slog.Info("quiz_event", "event", "quiz_published", "quiz_id", q.ID, "published", q.Published, "by", input.Actor.ID)
	return q, nil
}

func applyQuizInput(q *quiz.Quiz, input QuizInput, generateID func() string) {
	q.Title = strings.TrimSpace(input.Title)
	q.Description = strings.TrimSpace(input.Description)
	q.Kind = input.Kind
	if q.Kind == "" {
		q.Kind = quiz.KindStandard
	}
	q.VideoURL = strings.TrimSpace(input.VideoURL)
	if q.Kind != quiz.KindVideo {
		q.VideoURL = ""
	}
	q.SportID = input.SportID
	q.SkillID = input.SkillID
	q.Questions = make([]quiz.Question, len(input.Questions))
	for i, qn := range input.Questions {
		if qn.ID == "" {
			qn.ID = generateID()
		}
		if q.Kind != quiz.KindVideo {
			qn.AtSeconds = 0
		}
		q.Questions[i] = qn
	}
}

func validateQuiz(ctx context.Context, q quiz.Quiz, sports SportLookup) error {
	if err := q.Validate(); err != nil {
		return authz.Invalid(err)
	}
	sp, err := sports.GetByID(ctx, q.SportID)
	if errors.Is(err, storage.ErrNotFound) {
		return authz.Invalid(ErrUnknownSport)
	}
	if err != nil {
		return err
	}
	if !sp.HasSkill(q.SkillID) {
		return authz.Invalid(sport.ErrUnknownSkill)
	}
	return nil
}

func loadOwnedQuiz(ctx context.Context, actor authz.Actor, id string, store QuizStoreForOrchestrator) (quiz.Quiz, error) {
	if !actor.IsCoach() && !actor.IsAdmin() {
		return quiz.Quiz{}, authz.ErrForbidden
	}
	q, err := store.GetByID(ctx, id)
	if err != nil {
		return quiz.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if !actor.IsAdmin() && q.CreatedBy != actor.ID {
		return quiz.Quiz{}, authz.ErrForbidden
	}
	return q, nil
}
