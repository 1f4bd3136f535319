package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/session"
)

func sessionDeps(store *mockSessionStore) SessionDeps {
	return SessionDeps{
		SessionStore: store,
		AccountStore: newMockAccountStore(adminAccount("admin-1"), coachAccount("coach-1"), studentAccount("student-1", "coach-1"), studentAccount("student-2", "")),
		SportStore:   newMockSportStore(),
		GenerateID:   seqIDs(),
		Now:          fixedNow,
	}
}

func TestExecuteScheduleSession(t *testing.T) {
	store := newMockSessionStore()
	deps := sessionDeps(store)
	when := time.Date(2026, 3, 5, 9, 30, 0, 0, time.FixedZone("NZDT", 13*3600))
	in := SessionInput{Actor: coachActor, StudentID: "student-1", SportID: "tennis", Kind: session.KindLesson, Title: " Serve lesson ", ScheduledAt: when}

	s, err := ExecuteScheduleSession(context.Background(), in, deps)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if s.CoachID != "coach-1" || s.Status != session.StatusScheduled || s.Title != "Serve lesson" {
		t.Errorf("session = %+v", s)
	}
	if s.ScheduledAt.Location() != time.UTC || !s.ScheduledAt.Equal(when) {
		t.Errorf("ScheduledAt = %v", s.ScheduledAt)
	}

	tests := []struct {
		name   string
		mutate func(*SessionInput)
		want   error
	}{
		{"not their student", func(in *SessionInput) { in.StudentID = "student-2" }, authz.ErrForbidden},
		{"student actor", func(in *SessionInput) { in.Actor = studentActor }, authz.ErrForbidden},
		{"bad kind", func(in *SessionInput) { in.Kind = "scrimmage" }, session.ErrInvalidKind},
		{"no time", func(in *SessionInput) { in.ScheduledAt = time.Time{} }, session.ErrNoScheduledAt},
		{"unknown sport", func(in *SessionInput) { in.SportID = "curling" }, ErrUnknownSport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := in
			tt.mutate(&bad)
			if _, err := ExecuteScheduleSession(context.Background(), bad, deps); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	byAdmin, err := ExecuteScheduleSession(context.Background(), SessionInput{Actor: adminActor, StudentID: "student-2", SportID: "golf", Kind: session.KindGame, Title: "Round", ScheduledAt: when}, deps)
	if err != nil || byAdmin.CoachID != "admin-1" {
		t.Errorf("admin schedule = %+v, %v", byAdmin, err)
	}
}

func TestSessionTransitions(t *testing.T) {
	store := newMockSessionStore(sampleSession("sess-1", "coach-1", "student-1"), sampleSession("sess-2", "coach-1", "student-1"))
	deps := sessionDeps(store)
	ctx := context.Background()

	upd := SessionInput{Actor: coachActor, ID: "sess-1", SportID: "tennis", Kind: session.KindGame, Title: "Club match", ScheduledAt: fixedTime.Add(48 * time.Hour), Notes: "bring balls"}
	s, err := ExecuteUpdateSession(ctx, upd, deps)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Kind != session.KindGame || s.StudentID != "student-1" || s.Notes != "bring balls" {
		t.Errorf("updated = %+v", s)
	}

	s, err = ExecuteCompleteSession(ctx, SessionActionInput{Actor: coachActor, SessionID: "sess-1"}, deps)
	if err != nil || s.Status != session.StatusCompleted {
		t.Fatalf("complete = %+v, %v", s, err)
	}
	if _, err := ExecuteCancelSession(ctx, SessionActionInput{Actor: coachActor, SessionID: "sess-1"}, deps); !errors.Is(err, session.ErrNotScheduled) || !errors.Is(err, authz.ErrConflict) {
		t.Errorf("cancel completed: err = %v", err)
	}
	if _, err := ExecuteUpdateSession(ctx, upd, deps); !errors.Is(err, session.ErrNotScheduled) {
		t.Errorf("update completed: err = %v", err)
	}
	if _, err := ExecuteCancelSession(ctx, SessionActionInput{Actor: studentActor, SessionID: "sess-2"}, deps); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("student cancel: err = %v", err)
	}
	s, err = ExecuteCancelSession(ctx, SessionActionInput{Actor: adminActor, SessionID: "sess-2"}, deps)
	if err != nil || s.Status != session.StatusCancelled {
		t.Errorf("admin cancel = %+v, %v", s, err)
	}
}
