package curriculum_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"skillcoach/internal/adapters/storage"
	store "skillcoach/internal/adapters/storage/curriculum"
	"skillcoach/internal/adapters/storage/storagetest"
	domain "skillcoach/internal/domain/curriculum"
)

var now = time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)

func TestSQLiteStore_ItemsPersistInOrder(t *testing.T) {
	s := store.NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()

	c := domain.Curriculum{
		ID: "cur-1", StudentID: "stu-1", CoachID: "coach-1", SportID: "tennis",
		Title: "Spring block", CreatedAt: now, UpdatedAt: now,
	}
	items := []domain.Item{
		{ID: "i1", Kind: domain.ItemLesson, Title: "Footwork"},
		{ID: "i2", Kind: domain.ItemQuiz, Title: "Serve quiz", RefID: "quiz-1"},
		{ID: "i3", Kind: domain.ItemVideo, Title: "Pro serve", URL: "https://video.test/pro"},
	}
	for _, it := range items {
		if err := c.AddItem(it, now); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Reorder([]string{"i3", "i1", "i2"}, now); err != nil {
		t.Fatal(err)
	}
	c.CompleteQuiz("quiz-1", now.Add(time.Hour))
	if err := s.Save(ctx, c); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetByID(ctx, "cur-1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if done, total := got.Progress(); done != 1 || total != 3 {
		t.Errorf("Progress = %d/%d, want 1/3", done, total)
	}

	other := domain.Curriculum{
		ID: "cur-2", StudentID: "stu-2", CoachID: "coach-1", SportID: "golf",
		Title: "Short game", CreatedAt: now.Add(time.Minute), UpdatedAt: now,
	}
	if err := s.Save(ctx, other); err != nil {
		t.Fatal(err)
	}
	byCoach, _ := s.ListByCoach(ctx, "coach-1")
	if len(byCoach) != 2 || byCoach[0].ID != "cur-1" {
		t.Errorf("ListByCoach = %+v", byCoach)
	}
	byStudent, _ := s.ListByStudent(ctx, "stu-2")
	if len(byStudent) != 1 || len(byStudent[0].Items) != 0 {
		t.Errorf("ListByStudent = %+v", byStudent)
	}

	if err := s.Delete(ctx, "cur-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetByID(ctx, "cur-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
