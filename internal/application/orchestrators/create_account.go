package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skillcoach/internal/adapters/storage"
	accountStore "skillcoach/internal/adapters/storage/account"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context, filter accountStore.ListFilter) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Actor                  authz.Actor
	Email                  string
	Password               string
	Role                   string
	DisplayName            string
	CoachID                string
	PasswordChangeRequired bool
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	GenerateID   func() string
	Now          func() time.Time
}

var (
	ErrEmailAlreadyExists = errors.New("an account with this email already exists")
	ErrCoachNotFound      = errors.New("assigned coach does not exist or is not a coach")
)

// ExecuteCreateAccount creates an account on behalf of an admin or coach.
// Admins may create any role. Coaches may only create students, who are
// assigned to the creating coach.
// PRE: Actor is authenticated
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	switch {
	case input.Actor.IsAdmin():
	case input.Actor.IsCoach():
		if input.Role == "" {
			input.Role = account.RoleStudent
		}
		if input.Role != account.RoleStudent {
			return account.Account{}, authz.ErrForbidden
		}
		input.CoachID = input.Actor.ID
	default:
		return account.Account{}, authz.ErrForbidden
	}
	acct, err := createAccount(ctx, input, deps)
	if err != nil {
		return account.Account{}, err
	}
	slog.Info("auth_event", "event", "account_created", "email", acct.Email, "role", acct.Role, "by", input.Actor.ID)
	return acct, nil
}

// createAccount performs the unchecked create shared by admin seeding,
// invitation acceptance, and ExecuteCreateAccount.
func createAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	if strings.TrimSpace(input.Email) == "" {
		return account.Account{}, authz.Invalid(account.ErrEmptyEmail)
	}
	if input.Password == "" {
		return account.Account{}, authz.Invalid(account.ErrEmptyPassword)
	}
	if input.Role == "" {
		return account.Account{}, authz.Invalid(errors.New("role cannot be empty"))
	}
	email := account.NormalizeEmail(input.Email)

	_, err := deps.AccountStore.GetByEmail(ctx, email)
	if err == nil {
		return account.Account{}, authz.Conflict(ErrEmailAlreadyExists)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return account.Account{}, fmt.Errorf("look up email: %w", err)
	}

	if input.CoachID != "" {
		coach, err := deps.AccountStore.GetByID(ctx, input.CoachID)
		if err != nil || coach.Role != account.RoleCoach {
			return account.Account{}, authz.Invalid(ErrCoachNotFound)
		}
	}

	acct := account.Account{
		ID:                     deps.GenerateID(),
		Email:                  email,
		DisplayName:            strings.TrimSpace(input.DisplayName),
		Role:                   input.Role,
		Status:                 account.StatusActive,
		CoachID:                input.CoachID,
		CreatedAt:              deps.Now(),
		PasswordChangeRequired: input.PasswordChangeRequired,
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, authz.Invalid(err)
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, authz.Invalid(err)
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, fmt.Errorf("save account: %w", err)
	}
	return acct, nil
}

// ExecuteSeedAdmin creates a default admin account if no accounts exist.
// PRE: Database is initialized
// POST: Admin account created if count == 0
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx, accountStore.ListFilter{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = createAccount(ctx, CreateAccountInput{
		Email:                  email,
		Password:               password,
		Role:                   account.RoleAdmin,
		DisplayName:            "Administrator",
		PasswordChangeRequired: true,
	}, deps)
	if err != nil {
		return err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
