package invitation

import (
	"errors"
	"strings"
	"time"
)

// Invitation status constants.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRevoked  = "revoked"
)

// DefaultTTL is how long an invitation link stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Domain errors
var (
	ErrEmptyEmail     = errors.New("invitation email cannot be empty")
	ErrInvalidEmail   = errors.New("invitation email must contain '@'")
	ErrEmptyInvitedBy = errors.New("inviting admin is required")
	ErrInvalidStatus  = errors.New("invalid invitation status")
	ErrNotPending     = errors.New("invitation is no longer pending")
	ErrExpired        = errors.New("invitation has expired")
	ErrEmailMismatch  = errors.New("invitation token does not match this invitation")
)

// Invitation is a token-based record inviting an email address to register as a coach.
type Invitation struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	InvitedBy      string    `json:"invitedBy"` // admin AccountID
	Status         string    `json:"status"`    // pending, accepted, revoked
	ExpiresAt      time.Time `json:"expiresAt,omitzero"`
	CreatedAt      time.Time `json:"createdAt"`
	AcceptedAt     time.Time `json:"acceptedAt,omitzero"`
	AcceptedUserID string    `json:"acceptedUserId"`
	Resends        int       `json:"resends"`
}

// Validate checks if the Invitation has valid data.
// PRE: Invitation struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Invitation) Validate() error {
	if strings.TrimSpace(i.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(i.Email, "@") {
		return ErrInvalidEmail
	}
	if i.InvitedBy == "" {
		return ErrEmptyInvitedBy
	}
	switch i.Status {
	case StatusPending, StatusAccepted, StatusRevoked:
	default:
		return ErrInvalidStatus
	}
	if i.CreatedAt.IsZero() || i.ExpiresAt.IsZero() {
		return errors.New("created_at and expires_at must be set")
	}
	return nil
}

// IsExpired returns true once the expiry time has passed.
// INVARIANT: Invitation fields are not mutated
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsOpen returns true for a pending invitation that has not expired.
func (i *Invitation) IsOpen(now time.Time) bool {
	return i.Status == StatusPending && !i.IsExpired(now)
}

// Accept marks the invitation as used by the given new account.
// PRE: invitation is pending and not expired
// POST: Status is accepted, AcceptedAt and AcceptedUserID set
func (i *Invitation) Accept(userID string, now time.Time) error {
	if i.Status != StatusPending {
		return ErrNotPending
	}
	if i.IsExpired(now) {
		return ErrExpired
	}
	i.Status = StatusAccepted
	i.AcceptedAt = now
	i.AcceptedUserID = userID
	return nil
}

// Revoke cancels a pending invitation.
// PRE: invitation is pending
// POST: Status is revoked
func (i *Invitation) Revoke() error {
	if i.Status != StatusPending {
		return ErrNotPending
	}
	i.Status = StatusRevoked
	return nil
}

// Renew extends the expiry of a pending invitation for a resend.
// PRE: invitation is pending
// POST: ExpiresAt moved to now+ttl, Resends incremented
func (i *Invitation) Renew(now time.Time, ttl time.Duration) error {
	if i.Status != StatusPending {
		return ErrNotPending
	}
	i.ExpiresAt = now.Add(ttl)
	i.Resends++
	return nil
}
