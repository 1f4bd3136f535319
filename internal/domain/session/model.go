package session

import (
	"errors"
	"strings"
	"time"
)

// Session kinds.
const (
	KindGame     = "game"
	KindPractice = "practice"
	KindLesson   = "lesson"
)

// Session statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 150
	MaxNotesLength = 5000
)

// Domain errors
var (
	ErrEmptyCoachID   = errors.New("session coach is required")
	ErrEmptyStudentID = errors.New("session student is required")
	ErrEmptySportID   = errors.New("session sport is required")
	ErrInvalidKind    = errors.New("session kind must be game, practice, or lesson")
	ErrEmptyTitle     = errors.New("session title cannot be empty")
	ErrTitleTooLong   = errors.New("session title cannot exceed 150 characters")
	ErrNotesTooLong   = errors.New("session notes cannot exceed 5000 characters")
	ErrNoScheduledAt  = errors.New("session needs a scheduled time")
	ErrInvalidStatus  = errors.New("invalid session status")
	ErrNotScheduled   = errors.New("only scheduled sessions can change")
)

// Session is a coaching session (game, practice, or lesson) for one student.
type Session struct {
	ID          string    `json:"id"`
	CoachID     string    `json:"coachId"`
	StudentID   string    `json:"studentId"`
	SportID     string    `json:"sportId"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduledAt,omitzero"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// IsValidKind reports whether kind is a known session kind.
func IsValidKind(kind string) bool {
	switch kind {
	case KindGame, KindPractice, KindLesson:
		return true
	}
	return false
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if s.CoachID == "" {
		return ErrEmptyCoachID
	}
	if s.StudentID == "" {
		return ErrEmptyStudentID
	}
	if s.SportID == "" {
		return ErrEmptySportID
	}
	if !IsValidKind(s.Kind) {
		return ErrInvalidKind
	}
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if len(s.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(s.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if s.ScheduledAt.IsZero() {
		return ErrNoScheduledAt
	}
	switch s.Status {
	case StatusScheduled, StatusCompleted, StatusCancelled:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// Complete marks a scheduled session as held.
// PRE: Status is scheduled
// POST: Status is completed, UpdatedAt = now
func (s *Session) Complete(now time.Time) error {
	if s.Status != StatusScheduled {
		return ErrNotScheduled
	}
	s.Status = StatusCompleted
	s.UpdatedAt = now
	return nil
}

// Cancel marks a scheduled session as cancelled.
// PRE: Status is scheduled
// POST: Status is cancelled, UpdatedAt = now
func (s *Session) Cancel(now time.Time) error {
	if s.Status != StatusScheduled {
		return ErrNotScheduled
	}
	s.Status = StatusCancelled
	s.UpdatedAt = now
	return nil
}

// IsParticipant reports whether the account is the session's coach or student.
func (s *Session) IsParticipant(accountID string) bool {
	return s.CoachID == accountID || s.StudentID == accountID
}
