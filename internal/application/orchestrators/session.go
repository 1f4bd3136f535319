package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/session"
)

// SessionStoreForOrchestrator defines the store interface needed by the session orchestrators.
type SessionStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (session.Session, error)
	Save(ctx context.Context, s session.Session) error
}

// SessionDeps holds dependencies for the session orchestrators.
type SessionDeps struct {
	SessionStore SessionStoreForOrchestrator
	AccountStore AccountLookup
	SportStore   SportLookup
	GenerateID   func() string
	Now          func() time.Time
}

// SessionInput carries the editable fields of a session.
type SessionInput struct {
	Actor       authz.Actor
	ID          string // update only
	StudentID   string // schedule only
	SportID     string
	Kind        string
	Title       string
	ScheduledAt time.Time
	Notes       string
}

// ExecuteScheduleSession books a session for a student.
// PRE: Actor coaches the student or is an admin
// POST: session saved with status scheduled
func ExecuteScheduleSession(ctx context.Context, input SessionInput, deps SessionDeps) (session.Session, error) {
	student, err := loadStudent(ctx, input.StudentID, deps.AccountStore)
	if err != nil {
		return session.Session{}, err
	}
	if !input.Actor.CanCoach(student) {
		return session.Session{}, authz.ErrForbidden
	}
	coachID := input.Actor.ID
	if input.Actor.IsAdmin() && student.CoachID != "" {
		coachID = student.CoachID
	}
	now := deps.Now()
	s := session.Session{
		ID:        deps.GenerateID(),
		CoachID:   coachID,
		StudentID: student.ID,
		Status:    session.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applySessionInput(&s, input)
	if err := validateSession(ctx, s, deps); err != nil {
		return session.Session{}, err
	}
	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}
	slog.Info("session_event", "event", "session_scheduled", "session_id", s.ID, "student_id", s.StudentID, "kind", s.Kind, "by", input.Actor.ID)
	return s, nil
}

// ExecuteUpdateSession edits a scheduled session.
// PRE: session is scheduled; Actor coaches its student or is an admin
// POST: editable fields replaced; participants unchanged
func ExecuteUpdateSession(ctx context.Context, input SessionInput, deps SessionDeps) (session.Session, error) {
	s, err := loadCoachedSession(ctx, input.Actor, input.ID, deps)
	if err != nil {
		return session.Session{}, err
	}
	if s.Status != session.StatusScheduled {
		return session.Session{}, authz.Conflict(session.ErrNotScheduled)
	}
	applySessionInput(&s, input)
	s.UpdatedAt = deps.Now()
	if err := validateSession(ctx, s, deps); err != nil {
		return session.Session{}, err
	}
	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}
	slog.Info("session_event", "event", "session_updated", "session_id", s.ID, "by", input.Actor.ID)
	return s, nil
}

// SessionActionInput names a session acted on by its coach.
type SessionActionInput struct {
	Actor     authz.Actor
	SessionID string
}

// ExecuteCompleteSession marks a scheduled session as held.
// PRE: session is scheduled
func ExecuteCompleteSession(ctx context.Context, input SessionActionInput, deps SessionDeps) (session.Session, error) {
	return transitionSession(ctx, input, deps, "session_completed", func(s *session.Session, now time.Time) error {
		return s.Complete(now)
	})
}

// ExecuteCancelSession cancels a scheduled session.
// PRE: session is scheduled
func ExecuteCancelSession(ctx context.Context, input SessionActionInput, deps SessionDeps) (session.Session, error) {
	return transitionSession(ctx, input, deps, "session_cancelled", func(s *session.Session, now time.Time) error {
		return s.Cancel(now)
	})
}

func transitionSession(ctx context.Context, input SessionActionInput, deps SessionDeps, event string, apply func(*session.Session, time.Time) error) (session.Session, error) {
	s, err := loadCoachedSession(ctx, input.Actor, input.SessionID, deps)
	if err != nil {
		return session.Session{}, err
	}
	if err := apply(&s, deps.Now()); err != nil {
		return session.Session{}, authz.Conflict(err)
	}
	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return session.Session{}, err
	}
	slog.Info("session_event", "event", event, "session_id", s.ID, "by", input.Actor.ID)
	return s, nil
}

func applySessionInput(s *session.Session, input SessionInput) {
	s.SportID = input.SportID
	s.Kind = input.Kind
	s.Title = strings.TrimSpace(input.Title)
	s.ScheduledAt = input.ScheduledAt.UTC()
	s.Notes = strings.TrimSpace(input.Notes)
}

func validateSession(ctx context.Context, s session.Session, deps SessionDeps) error {
	if err := s.Validate(); err != nil {
		return authz.Invalid(err)
	}
	return checkSport(ctx, s.SportID, deps.SportStore)
}

func loadCoachedSession(ctx context.Context, actor authz.Actor, id string, deps SessionDeps) (session.Session, error) {
	s, err := deps.SessionStore.GetByID(ctx, id)
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	if actor.IsAdmin() {
		return s, nil
	}
	student, err := deps.AccountStore.GetByID(ctx, s.StudentID)
	if err != nil {
		return session.Session{}, fmt.Errorf("load student: %w", err)
	}
	if !actor.CanCoach(student) {
		return session.Session{}, authz.ErrForbidden
	}
	return s, nil
}
