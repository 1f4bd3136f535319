package orchestrators

import (
	"context"
	"errors"
	"testing"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/curriculum"
)

type curriculumFixture struct {
	store *mockCurriculumStore
	deps  CurriculumDeps
}

func newCurriculumFixture() *curriculumFixture {
	store := newMockCurriculumStore()
	return &curriculumFixture{
		store: store,
		deps: CurriculumDeps{
			CurriculumStore: store,
			AccountStore:    newMockAccountStore(adminAccount("admin-1"), coachAccount("coach-1"), coachAccount("coach-2"), studentAccount("student-1", "coach-1")),
			QuizStore:       newMockQuizStore(sampleQuiz("quiz-1", "coach-1")),
			SportStore:      newMockSportStore(),
			GenerateID:      seqIDs(),
			Now:             fixedNow,
		},
	}
}

func (f *curriculumFixture) create(t *testing.T) curriculum.Curriculum {
	t.Helper()
	c, err := ExecuteCreateCurriculum(context.Background(), CreateCurriculumInput{
		Actor:     coachActor,
		StudentID: "student-1",
		SportID:   "tennis",
		Title:     "Spring block",
		Items: []curriculum.Item{
			{Kind: curriculum.ItemLesson, Title: "Grip"},
			{Kind: curriculum.ItemQuiz, Title: "Serve quiz", RefID: "quiz-1"},
			{Kind: curriculum.ItemVideo, Title: "Pro serve", URL: "https://video.example.com/1"},
		},
	}, f.deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestExecuteCreateCurriculum(t *testing.T) {
	f := newCurriculumFixture()
	c := f.create(t)
	if c.CoachID != "coach-1" || len(c.Items) != 3 {
		t.Fatalf("curriculum = %+v", c)
	}
	for i, it := range c.Items {
		if it.Position != i || it.ID == "" {
			t.Errorf("item %d = %+v", i, it)
		}
	}

	ctx := context.Background()
	other := authz.Actor{ID: "coach-2", Role: "coach"}
	if _, err := ExecuteCreateCurriculum(ctx, CreateCurriculumInput{Actor: other, StudentID: "student-1", SportID: "tennis", Title: "X"}, f.deps); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("other coach: err = %v", err)
	}
	if _, err := ExecuteCreateCurriculum(ctx, CreateCurriculumInput{Actor: adminActor, StudentID: "coach-1", SportID: "tennis", Title: "X"}, f.deps); !errors.Is(err, ErrNotStudent) {
		t.Errorf("non-student: err = %v", err)
	}
	if _, err := ExecuteCreateCurriculum(ctx, CreateCurriculumInput{Actor: coachActor, StudentID: "student-1", SportID: "curling", Title: "X"}, f.deps); !errors.Is(err, ErrUnknownSport) {
		t.Errorf("unknown sport: err = %v", err)
	}
	_, err := ExecuteCreateCurriculum(ctx, CreateCurriculumInput{
		Actor: coachActor, StudentID: "student-1", SportID: "tennis", Title: "X",
		Items: []curriculum.Item{{Kind: curriculum.ItemQuiz, Title: "Missing", RefID: "nope"}},
	}, f.deps)
	if !errors.Is(err, ErrUnknownQuiz) {
		t.Errorf("unknown quiz: err = %v", err)
	}

	byAdmin, err := ExecuteCreateCurriculum(ctx, CreateCurriculumInput{Actor: adminActor, StudentID: "student-1", SportID: "tennis", Title: "Admin plan"}, f.deps)
	if err != nil || byAdmin.CoachID != "coach-1" {
		t.Errorf("admin create = %+v, %v", byAdmin, err)
	}
}

func TestCurriculumItemLifecycle(t *testing.T) {
	f := newCurriculumFixture()
	c := f.create(t)
	ctx := context.Background()
	ids := []string{c.Items[2].ID, c.Items[0].ID, c.Items[1].ID}

	got, err := ExecuteReorderItems(ctx, ReorderItemsInput{Actor: coachActor, CurriculumID: c.ID, ItemIDs: ids}, f.deps)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got.Items[0].Title != "Pro serve" || got.Items[0].Position != 0 {
		t.Errorf("after reorder = %+v", got.Items)
	}
	if _, err := ExecuteReorderItems(ctx, ReorderItemsInput{Actor: coachActor, CurriculumID: c.ID, ItemIDs: ids[:2]}, f.deps); !errors.Is(err, curriculum.ErrNotPermutation) {
		t.Errorf("partial reorder: err = %v", err)
	}

	item := ItemActionInput{Actor: studentActor, CurriculumID: c.ID, ItemID: ids[1]}
	if _, err := ExecuteCompleteItem(ctx, ItemActionInput{Actor: coachActor, CurriculumID: c.ID, ItemID: ids[1]}, f.deps); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("coach complete: err = %v", err)
	}
	got, err = ExecuteCompleteItem(ctx, item, f.deps)
	if err != nil || !got.Items[1].IsComplete() {
		t.Fatalf("complete = %+v, %v", got.Items, err)
	}
	if _, err := ExecuteCompleteItem(ctx, item, f.deps); !errors.Is(err, curriculum.ErrAlreadyComplete) || !errors.Is(err, authz.ErrConflict) {
		t.Errorf("double complete: err = %v", err)
	}
	got, err = ExecuteReopenItem(ctx, ItemActionInput{Actor: coachActor, CurriculumID: c.ID, ItemID: ids[1]}, f.deps)
	if err != nil || got.Items[1].IsComplete() {
		t.Errorf("reopen = %+v, %v", got.Items, err)
	}

	got, err = ExecuteRemoveItem(ctx, ItemActionInput{Actor: coachActor, CurriculumID: c.ID, ItemID: ids[0]}, f.deps)
	if err != nil || len(got.Items) != 2 || got.Items[0].Position != 0 {
		t.Errorf("remove = %+v, %v", got.Items, err)
	}
	got, err = ExecuteAddItem(ctx, AddItemInput{Actor: coachActor, CurriculumID: c.ID, Item: curriculum.Item{Kind: curriculum.ItemLesson, Title: "Volley drills"}}, f.deps)
	if err != nil || len(got.Items) != 3 || got.Items[2].Position != 2 {
		t.Errorf("add = %+v, %v", got.Items, err)
	}
	if _, err := ExecuteAddItem(ctx, AddItemInput{Actor: studentActor, CurriculumID: c.ID, Item: curriculum.Item{Kind: curriculum.ItemLesson, Title: "Sneaky"}}, f.deps); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("student add: err = %v", err)
	}

	if err := ExecuteDeleteCurriculum(ctx, CurriculumActionInput{Actor: coachActor, CurriculumID: c.ID}, f.deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.store.curricula) != 0 {
		t.Error("curriculum not deleted")
	}
}
