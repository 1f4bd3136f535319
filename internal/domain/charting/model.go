package charting

import (
	"errors"
	"time"

	"skillcoach/internal/domain/form"
)

// Entry statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// Domain errors
var (
	ErrEmptySessionID  = errors.New("charting entry needs a session")
	ErrEmptyStudentID  = errors.New("charting entry needs a student")
	ErrEmptyAuthorID   = errors.New("charting entry needs an author")
	ErrEmptyTemplateID = errors.New("charting entry needs a form template")
	ErrInvalidStatus   = errors.New("invalid charting status")
	ErrSubmitted       = errors.New("charting entry has been submitted and cannot change")
)

// Entry is one filled-in charting form for a session.
type Entry struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"sessionId"`
	StudentID   string         `json:"studentId"`
	AuthorID    string         `json:"authorId"`
	TemplateID  string         `json:"templateId"`
	Responses   form.Responses `json:"responses"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt,omitzero"`
	SubmittedAt time.Time      `json:"submittedAt,omitzero"`
}

// New starts a draft entry with an empty response set shaped by the template.
// POST: Status is draft, Responses = form.NewResponses(t)
func New(id, sessionID, studentID, authorID string, t form.Template, now time.Time) *Entry {
	return &Entry{
		ID:         id,
		SessionID:  sessionID,
		StudentID:  studentID,
		AuthorID:   authorID,
		TemplateID: t.ID,
		Responses:  form.NewResponses(t),
		Status:     StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if e.SessionID == "" {
		return ErrEmptySessionID
	}
	if e.StudentID == "" {
		return ErrEmptyStudentID
	}
	if e.AuthorID == "" {
		return ErrEmptyAuthorID
	}
	if e.TemplateID == "" {
		return ErrEmptyTemplateID
	}
	if e.Status != StatusDraft && e.Status != StatusSubmitted {
		return ErrInvalidStatus
	}
	return nil
}

// IsSubmitted returns true once the entry is locked.
func (e *Entry) IsSubmitted() bool {
	return e.Status == StatusSubmitted
}

// SaveDraft replaces the responses with a normalised partial set.
// PRE: entry is a draft
// POST: Responses hold only coerced, known values; UpdatedAt = now
func (e *Entry) SaveDraft(t form.Template, r form.Responses, now time.Time) error {
	if e.IsSubmitted() {
		return ErrSubmitted
	}
	clean, err := form.Normalize(t, r)
	if err != nil {
		return err
	}
	e.Responses = clean
	e.UpdatedAt = now
	return nil
}

// AddRepeat appends an empty instance to a repeatable section.
// PRE: entry is a draft
// POST: returns the new instance index
func (e *Entry) AddRepeat(t form.Template, sectionID string, now time.Time) (int, error) {
	if e.IsSubmitted() {
		return 0, ErrSubmitted
	}
	e.ensureResponses(t)
	idx, err := e.Responses.AddRepeat(t, sectionID)
	if err != nil {
		return 0, err
	}
	e.UpdatedAt = now
	return idx, nil
}

// RemoveRepeat removes one instance of a repeatable section.
// PRE: entry is a draft
func (e *Entry) RemoveRepeat(t form.Template, sectionID string, index int, now time.Time) error {
	if e.IsSubmitted() {
		return ErrSubmitted
	}
	e.ensureResponses(t)
	if err := e.Responses.RemoveRepeat(t, sectionID, index); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

// Submit runs the full check and locks the entry.
// PRE: entry is a draft
// POST: on success Status is submitted and Responses are canonical;
// on failure the entry is unchanged and a form.ValidationErrors is returned
func (e *Entry) Submit(t form.Template, now time.Time) error {
	if e.IsSubmitted() {
		return ErrSubmitted
	}
	clean, err := form.Check(t, e.Responses)
	if err != nil {
		return err
	}
	e.Responses = clean
	e.Status = StatusSubmitted
	e.SubmittedAt = now
	e.UpdatedAt = now
	return nil
}

func (e *Entry) ensureResponses(t form.Template) {
	if e.Responses == nil {
		e.Responses = form.NewResponses(t)
	}
}
