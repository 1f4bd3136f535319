package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength       = 254
	MaxDisplayNameLength = 100
	MinPasswordLength    = 12
)

// Role constants
const (
	RoleAdmin   = "admin"
	RoleCoach   = "coach"
	RoleStudent = "student"
)

// Account status constants
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Lockout policy
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleCoach, RoleStudent}

// Domain errors
var (
	ErrInvalidEmail       = errors.New("email must contain '@'")
	ErrEmptyEmail         = errors.New("email cannot be empty")
	ErrEmailTooLong       = errors.New("email cannot exceed 254 characters")
	ErrDisplayNameTooLong = errors.New("display name cannot exceed 100 characters")
	ErrInvalidRole        = errors.New("role must be one of: admin, coach, student")
	ErrInvalidStatus      = errors.New("status must be one of: active, disabled")
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrPasswordTooShort   = errors.New("password must be at least 12 characters")
	ErrWrongPassword      = errors.New("incorrect password")
	ErrCoachOnNonStudent  = errors.New("only students can be assigned a coach")
)

// Account is a user of the system: an admin, a coach, or a student.
type Account struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	DisplayName            string    `json:"displayName"`
	PasswordHash           string    `json:"-"`
	Role                   string    `json:"role"`
	Status                 string    `json:"status"`  // active, disabled
	CoachID                string    `json:"coachId"` // students only
	CreatedAt              time.Time `json:"createdAt"`
	FailedLogins           int       `json:"-"`
	LockedUntil            time.Time `json:"-"`
	PasswordChangeRequired bool      `json:"passwordChangeRequired"`
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if len(a.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if len(a.DisplayName) > MaxDisplayNameLength {
		return ErrDisplayNameTooLong
	}
	if !IsValidRole(a.Role) {
		return ErrInvalidRole
	}
	if a.Status != StatusActive && a.Status != StatusDisabled {
		return ErrInvalidStatus
	}
	if a.CoachID != "" && a.Role != RoleStudent {
		return ErrCoachOnNonStudent
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
// INVARIANT: Account fields are not mutated
func (a *Account) IsLocked(now time.Time) bool {
	if a.LockedUntil.IsZero() {
		return false
	}
	return now.Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account after 5 failures.
// PRE: Account exists
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// POST: FailedLogins is 0, LockedUntil is zero
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// IsAdmin returns true if the account has admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStudent returns true if the account has student role.
func (a *Account) IsStudent() bool {
	return a.Role == RoleStudent
}

// IsDisabled returns true if the account has been disabled by an admin.
func (a *Account) IsDisabled() bool {
	return a.Status == StatusDisabled
}

// Name returns the display name, falling back to the email address.
func (a *Account) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Email
}

// IsValidRole reports whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
