package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/charting"
	"skillcoach/internal/domain/form"
	"skillcoach/internal/domain/session"
)

// ChartingStoreForOrchestrator defines the store interface needed by the
// charting orchestrators.
type ChartingStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (charting.Entry, error)
	Save(ctx context.Context, e charting.Entry) error
}

// SessionLookup resolves sessions for charting.
type SessionLookup interface {
	GetByID(ctx context.Context, id string) (session.Session, error)
}

// TemplateLookup resolves form templates.
type TemplateLookup interface {
	GetByID(ctx context.Context, id string) (form.Template, error)
}

// ChartingDeps holds dependencies for the charting orchestrators.
type ChartingDeps struct {
	ChartingStore ChartingStoreForOrchestrator
	SessionStore  SessionLookup
	TemplateStore TemplateLookup
	AccountStore  AccountLookup
	GenerateID    func() string
	Now           func() time.Time
}

var (
	ErrSessionCancelled = errors.New("cancelled sessions cannot be charted")
	ErrTemplateInactive = errors.New("form template is not active")
	ErrTemplateSport    = errors.New("form template is for a different sport")
)

// StartChartingInput carries input for ExecuteStartCharting.
type StartChartingInput struct {
	Actor      authz.Actor
	SessionID  string
	TemplateID string
}

// ExecuteStartCharting opens a draft charting entry for a session.
// PRE: Actor is the session's student, coaches them, or is an admin
// POST: draft saved with the template's initial response shape
func ExecuteStartCharting(ctx context.Context, input StartChartingInput, deps ChartingDeps) (charting.Entry, error) {
	s, err := deps.SessionStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return charting.Entry{}, fmt.Errorf("load session: %w", err)
	}
	if err := checkChartAccess(ctx, input.Actor, s.StudentID, deps.AccountStore); err != nil {
		return charting.Entry{}, err
	}
	if s.Status == session.StatusCancelled {
		return charting.Entry{}, authz.Conflict(ErrSessionCancelled)
	}
	t, err := deps.TemplateStore.GetByID(ctx, input.TemplateID)
	if err != nil {
		return charting.Entry{}, fmt.Errorf("load template: %w", err)
	}
	if !t.Active {
		return charting.Entry{}, authz.Invalid(ErrTemplateInactive)
	}
	if t.SportID != "" && t.SportID != s.SportID {
		return charting.Entry{}, authz.Invalid(ErrTemplateSport)
	}

	e := charting.New(deps.GenerateID(), s.ID, s.StudentID, input.Actor.ID, t, deps.Now())
	if err := e.Validate(); err != nil {
		return charting.Entry{}, authz.Invalid(err)
	}
	if err := deps.ChartingStore.Save(ctx, *e); err != nil {
		return charting.Entry{}, fmt.Errorf("save charting entry: %w", err)
	}
	slog.Info("charting_event", "event", "charting_started", "entry_id", e.ID, "session_id", s.ID, "template_id", t.ID, "by", input.Actor.ID)
	return *e, nil
}

// SaveChartingInput carries a draft response set.
type SaveChartingInput struct {
	Actor     authz.Actor
	EntryID   string
	Responses form.Responses
}

// ExecuteSaveCharting stores draft responses. Values are coerced; unanswered
// required fields are allowed.
// PRE: entry is a draft
// POST: Responses replaced by the normalised set
func ExecuteSaveCharting(ctx context.Context, input SaveChartingInput, deps ChartingDeps) (charting.Entry, error) {
	return editChart(ctx, input.Actor, input.EntryID, deps, "charting_saved", func(e *charting.Entry, t form.Template, now time.Time) error {
		return e.SaveDraft(t, input.Responses, now)
	})
}

// RepeatInput addresses one instance of a repeatable section.
type RepeatInput struct {
	Actor     authz.Actor
	EntryID   string
	SectionID string
	Index     int // remove only
}

// ExecuteAddChartingRepeat appends an empty instance to a repeatable section.
// POST: returns the entry and the new instance index
func ExecuteAddChartingRepeat(ctx context.Context, input RepeatInput, deps ChartingDeps) (charting.Entry, int, error) {
	var idx int
	e, err := editChart(ctx, input.Actor, input.EntryID, deps, "charting_repeat_added", func(e *charting.Entry, t form.Template, now time.Time) error {
		var err error
		idx, err = e.AddRepeat(t, input.SectionID, now)
		return err
	})
	return e, idx, err
}

// ExecuteRemoveChartingRepeat removes one instance of a repeatable section.
// INVARIANT: at least one instance remains
func ExecuteRemoveChartingRepeat(ctx context.Context, input RepeatInput, deps ChartingDeps) (charting.Entry, error) {
	return editChart(ctx, input.Actor, input.EntryID, deps, "charting_repeat_removed", func(e *charting.Entry, t form.Template, now time.Time) error {
		return e.RemoveRepeat(t, input.SectionID, input.Index, now)
	})
}

// ChartingActionInput names a charting entry.
type ChartingActionInput struct {
	Actor   authz.Actor
	EntryID string
}

// ExecuteSubmitCharting validates the entry in full and locks it.
// POST: on success Status is submitted; on failure the error wraps form.ValidationErrors
func ExecuteSubmitCharting(ctx context.Context, input ChartingActionInput, deps ChartingDeps) (charting.Entry, error) {
	return editChart(ctx, input.Actor, input.EntryID, deps, "charting_submitted", func(e *charting.Entry, t form.Template, now time.Time) error {
		return e.Submit(t, now)
	})
}

func editChart(ctx context.Context, actor authz.Actor, entryID string, deps ChartingDeps, event string, apply func(*charting.Entry, form.Template, time.Time) error) (charting.Entry, error) {
	e, err := deps.ChartingStore.GetByID(ctx, entryID)
	if err != nil {
		return charting.Entry{}, fmt.Errorf("load charting entry: %w", err)
	}
	if err := checkChartAccess(ctx, actor, e.StudentID, deps.AccountStore); err != nil {
		return charting.Entry{}, err
	}
	if e.IsSubmitted() {
		return charting.Entry{}, authz.Conflict(charting.ErrSubmitted)
	}
	t, err := deps.TemplateStore.GetByID(ctx, e.TemplateID)
	if err != nil {
		return charting.Entry{}, fmt.Errorf("load template: %w", err)
	}
	if err := apply(&e, t, deps.Now()); err != nil {
		if errors.Is(err, charting.ErrSubmitted) || errors.Is(err, form.ErrShapeMismatch) {
			return charting.Entry{}, authz.Conflict(err)
		}
		return charting.Entry{}, authz.Invalid(err)
	}
	if err := deps.ChartingStore.Save(ctx, e); err != nil {
		return charting.Entry{}, fmt.Errorf("save charting entry: %w", err)
	}
	slog.Info("charting_event", "event", event, "entry_id", e.ID, "by", actor.ID)
	return e, nil
}

// checkChartAccess allows the student themself, their coach, and admins.
func checkChartAccess(ctx context.Context, actor authz.Actor, studentID string, accounts AccountLookup) error {
	if actor.IsAdmin() || actor.ID == studentID {
		return nil
	}
	student, err := accounts.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}
	if !actor.CanCoach(student) {
		return authz.ErrForbidden
	}
	return nil
}
