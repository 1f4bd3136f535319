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
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/curriculum"
	"skillcoach/internal/domain/quiz"
)

// CurriculumStoreForOrchestrator defines the store interface needed by the
// curriculum orchestrators.
type CurriculumStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (curriculum.Curriculum, error)
	Save(ctx context.Context, c curriculum.Curriculum) error
	Delete(ctx context.Context, id string) error
}

// AccountLookup resolves accounts for access checks.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// QuizLookup resolves quizzes referenced by curriculum items.
type QuizLookup interface {
	GetByID(ctx context.Context, id string) (quiz.Quiz, error)
}

// CurriculumDeps holds dependencies for the curriculum orchestrators.
type CurriculumDeps struct {
	CurriculumStore CurriculumStoreForOrchestrator
	AccountStore    AccountLookup
	QuizStore       QuizLookup
	SportStore      SportLookup
	GenerateID      func() string
	Now             func() time.Time
}

var (
	ErrNotStudent  = errors.New("account is not a student")
	ErrUnknownQuiz = errors.New("quiz item must reference an existing quiz")
)

// CreateCurriculumInput carries input for ExecuteCreateCurriculum.
type CreateCurriculumInput struct {
	Actor     authz.Actor
	StudentID string
	CoachID   string // admin only; defaults to the student's coach
	SportID   string
	Title     string
	Items     []curriculum.Item
}

// ExecuteCreateCurriculum assigns a new curriculum to a student.
// PRE: Actor coaches the student or is an admin
// POST: curriculum saved with contiguous item positions
func ExecuteCreateCurriculum(ctx context.Context, input CreateCurriculumInput, deps CurriculumDeps) (curriculum.Curriculum, error) {
	student, err := loadStudent(ctx, input.StudentID, deps.AccountStore)
	if err != nil {
		return curriculum.Curriculum{}, err
	}
	if !input.Actor.CanCoach(student) {
		return curriculum.Curriculum{}, authz.ErrForbidden
	}
	coachID := input.Actor.ID
	if input.Actor.IsAdmin() {
		coachID = input.CoachID
		if coachID == "" {
			coachID = student.CoachID
		}
		if coachID == "" {
			coachID = input.Actor.ID
		}
	}
	if err := checkSport(ctx, input.SportID, deps.SportStore); err != nil {
		return curriculum.Curriculum{}, err
	}

	now := deps.Now()
	c := curriculum.Curriculum{
		ID:        deps.GenerateID(),
		StudentID: student.ID,
		CoachID:   coachID,
		SportID:   input.SportID,
		Title:     strings.TrimSpace(input.Title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, it := range input.Items {
		if err := addCurriculumItem(ctx, &c, it, deps, now); err != nil {
			return curriculum.Curriculum{}, err
		}
	}
	if err := c.Validate(); err != nil {
		return curriculum.Curriculum{}, authz.Invalid(err)
	}
	if err := deps.CurriculumStore.Save(ctx, c); err != nil {
		return curriculum.Curriculum{}, fmt.Errorf("save curriculum: %w", err)
	}
	slog.Info("curriculum_event", "event", "curriculum_created", "curriculum_id", c.ID, "student_id", c.StudentID, "items", len(c.Items), "by", input.Actor.ID)
	return c, nil
}

// CurriculumActionInput names a curriculum acted on by a coach or student.
type CurriculumActionInput struct {
	Actor        authz.Actor
	CurriculumID string
}

// ExecuteDeleteCurriculum removes a curriculum.
// PRE: Actor coaches the curriculum's student or is an admin
func ExecuteDeleteCurriculum(ctx context.Context, input CurriculumActionInput, deps CurriculumDeps) error {
	c, err := loadCoachedCurriculum(ctx, input.Actor, input.CurriculumID, deps)
	if err != nil {
		return err
	}
	if err := deps.CurriculumStore.Delete(ctx, c.ID); err != nil {
		return err
	}
	slog.Info("curriculum_event", "event", "curriculum_deleted", "curriculum_id", c.ID, "by", input.Actor.ID)
	return nil
}

// AddItemInput carries input for ExecuteAddItem.
type AddItemInput struct {
	Actor        authz.Actor
	CurriculumID string
	Item         curriculum.Item
}

// ExecuteAddItem appends an item to a curriculum.
// PRE: Actor coaches the curriculum's student or is an admin
// POST: item appended; quiz items reference an existing quiz
func ExecuteAddItem(ctx context.Context, input AddItemInput, deps CurriculumDeps) (curriculum.Curriculum, error) {
	c, err := loadCoachedCurriculum(ctx, input.Actor, input.CurriculumID, deps)
	if err != nil {
		return curriculum.Curriculum{}, err
	}
	if err := addCurriculumItem(ctx, &c, input.Item, deps, deps.Now()); err != nil {
		return curriculum.Curriculum{}, err
	}
	return saveCurriculum(ctx, c, "item_added", input.Actor, deps)
}

// ItemActionInput names one item in a curriculum.
type ItemActionInput struct {
	Actor        authz.Actor
	CurriculumID string
	ItemID       string
}

// ExecuteRemoveItem deletes an item from a curriculum.
// PRE: Actor coaches the curriculum's student or is an admin
// POST: positions renumbered from 0
func ExecuteRemoveItem(ctx context.Context, input ItemActionInput, deps CurriculumDeps) (curriculum.Curriculum, error) {
	c, err := loadCoachedCurriculum(ctx, input.Actor, input.CurriculumID, deps)
	if err != nil {
		return curriculum.Curriculum{}, err
	}
	if err := c.RemoveItem(input.ItemID, deps.Now()); err != nil {
		return curriculum.Curriculum{}, authz.Invalid(err)
	}
	return saveCurriculum(ctx, c, "item_removed", input.Actor, deps)
}

// ReorderItemsInput carries input for ExecuteReorderItems.
type ReorderItemsInput struct {
	Actor        authz.Actor
	CurriculumID string
	ItemIDs      []string
}

// ExecuteReorderItems rearranges a curriculum.
// PRE: ItemIDs is a permutation of the current item IDs
func ExecuteReorderItems(ctx context.Context, input ReorderItemsInput, deps CurriculumDeps) (curriculum.Curriculum, error) {
	c, err := loadCoachedCurriculum(ctx, input.Actor, input.CurriculumID, deps)
	if err != nil {
		return curriculum.Curriculum{}, err
	}
	if err := c.Reorder(input.ItemIDs, deps.Now()); err != nil {
		return curriculum.Curriculum{}, authz.Invalid(err)
	}
	return saveCurriculum(ctx, c, "items_reordered", input.Actor, deps)
}

// ExecuteCompleteItem marks an item done.
// PRE: Actor is the curriculum's student
// POST: item CompletedAt = now
func ExecuteCompleteItem(ctx context.Context, input ItemActionInput, deps CurriculumDeps) (curriculum.Curriculum, error) {
	c, err := deps.CurriculumStore.GetByID(ctx, input.CurriculumID)
	if err != nil {
		return curriculum.Curriculum{}, fmt.Errorf("load curriculum: %w", err)
	}
	if c.StudentID != input.Actor.ID {
		return curriculum.Curriculum{}, authz.ErrForbidden
	}
	if err := c.CompleteItem(input.ItemID, deps.Now()); err != nil {
		return curriculum.Curriculum{}, itemError(err)
	}
	return saveCurriculum(ctx, c, "item_completed", input.Actor, deps)
}

// ExecuteReopenItem clears completion on an item.
// PRE: Actor is the curriculum's student, coaches them, or is an admin
func ExecuteReopenItem(ctx context.Context, input ItemActionInput, deps CurriculumDeps) (curriculum.Curriculum, error) {
	c, err := deps.CurriculumStore.GetByID(ctx, input.CurriculumID)
	if err != nil {
		return curriculum.Curriculum{}, fmt.Errorf("load curriculum: %w", err)
	}
	if c.StudentID != input.Actor.ID {
		if _, err := loadCoachedCurriculum(ctx, input.Actor, c.ID, deps); err != nil {
			return curriculum.Curriculum{}, err
		}
	}
	if err := c.ReopenItem(input.ItemID, deps.Now()); err != nil {
		return curriculum.Curriculum{}, itemError(err)
	}
	return saveCurriculum(ctx, c, "item_reopened", input.Actor, deps)
}

func addCurriculumItem(ctx context.Context, c *curriculum.Curriculum, it curriculum.Item, deps CurriculumDeps, now time.Time) error {
	it.ID = deps.GenerateID()
	it.Title = strings.TrimSpace(it.Title)
	if it.Kind == curriculum.ItemQuiz && it.RefID != "" {
		if _, err := deps.QuizStore.GetByID(ctx, it.RefID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return authz.Invalid(ErrUnknownQuiz)
			}
			return err
		}
	}
	if err := c.AddItem(it, now); err != nil {
		return authz.Invalid(err)
	}
	return nil
}

func saveCurriculum(ctx context.Context, c curriculum.Curriculum, event string, actor authz.Actor, deps CurriculumDeps) (curriculum.Curriculum, error) {
	if err := deps.CurriculumStore.Save(ctx, c); err != nil {
		return curriculum.Curriculum{}, fmt.Errorf("save curriculum: %w", err)
	}
	slog.Info("curriculum_event", "event", event, "curriculum_id", c.ID, "by", actor.ID)
	return c, nil
}

func loadCoachedCurriculum(ctx context.Context, actor authz.Actor, id string, deps CurriculumDeps) (curriculum.Curriculum, error) {
	c, err := deps.CurriculumStore.GetByID(ctx, id)
	if err != nil {
		return curriculum.Curriculum{}, fmt.Errorf("load curriculum: %w", err)
	}
	if actor.IsAdmin() {
		return c, nil
	}
	student, err := deps.AccountStore.GetByID(ctx, c.StudentID)
	if err != nil {
		return curriculum.Curriculum{}, fmt.Errorf("load student: %w", err)
	}
	if !actor.CanCoach(student) {
		return curriculum.Curriculum{}, authz.ErrForbidden
	}
	return c, nil
}

func itemError(err error) error {
	if errors.Is(err, curriculum.ErrItemNotFound) {
		return authz.Invalid(err)
	}
	return authz.Conflict(err)
}

func loadStudent(ctx context.Context, id string, accounts AccountLookup) (account.Account, error) {
	student, err := accounts.GetByID(ctx, id)
	if err != nil {
		return account.Account{}, fmt.Errorf("load student: %w", err)
	}
	if !student.IsStudent() {
		return account.Account{}, authz.Invalid(ErrNotStudent)
	}
	return student, nil
}

func checkSport(ctx context.Context, sportID string, sports SportLookup) error {
	if sportID == "" {
		return nil
	}
	_, err := sports.GetByID(ctx, sportID)
	if errors.Is(err, storage.ErrNotFound) {
		return authz.Invalid(ErrUnknownSport)
	}
	return err
}
