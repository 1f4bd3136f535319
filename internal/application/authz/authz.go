package authz

import (
	"errors"

	"skillcoach/internal/domain/account"
)

// Error classes. Callers test with errors.Is; the message shown to users is
// the wrapped domain error's.
var (
	ErrForbidden = errors.New("you do not have permission to do that")
	ErrInvalid   = errors.New("invalid input")
	ErrConflict  = errors.New("conflict")
)

// classified keeps the inner message while also matching a class sentinel.
type classified struct {
	err   error
	class error
}

func (c classified) Error() string   { return c.err.Error() }
func (c classified) Unwrap() []error { return []error{c.err, c.class} }

// Invalid marks err as a validation failure.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return classified{err: err, class: ErrInvalid}
}

// Conflict marks err as clashing with existing state.
func Conflict(err error) error {
	if err == nil {
		return nil
	}
	return classified{err: err, class: ErrConflict}
}

// Actor is the authenticated account performing an operation.
type Actor struct {
	ID   string
	Role string
}

// ActorFor builds an Actor from an account.
func ActorFor(a account.Account) Actor {
	return Actor{ID: a.ID, Role: a.Role}
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.Role == account.RoleAdmin }

// IsCoach reports whether the actor has the coach role.
func (a Actor) IsCoach() bool { return a.Role == account.RoleCoach }

// IsStudent reports whether the actor has the student role.
func (a Actor) IsStudent() bool { return a.Role == account.RoleStudent }

// CanCoach reports whether the actor may manage the given student's
// sessions, curricula and charts.
func (a Actor) CanCoach(student account.Account) bool {
	if !student.IsStudent() {
		return false
	}
	return a.IsAdmin() || (a.IsCoach() && student.CoachID == a.ID)
}

// CanView reports whether the actor may read the student's records:
// the student themself or anyone who coaches them.
func (a Actor) CanView(student account.Account) bool {
	return a.ID == student.ID || a.CanCoach(student)
}
