package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	accountStore "skillcoach/internal/adapters/storage/account"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/account"
)

// AccountStoreForManage defines the store interface needed by the admin
// account orchestrators.
type AccountStoreForManage interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context, filter accountStore.ListFilter) (int, error)
}

// ManageAccountDeps holds dependencies for ChangeRole, SetStatus and AssignCoach.
type ManageAccountDeps struct {
	AccountStore AccountStoreForManage
}

var (
	ErrLastAdmin        = errors.New("cannot remove the last active admin")
	ErrCoachHasStudents = errors.New("coach still has assigned students")
	ErrSelfDisable      = errors.New("you cannot disable your own account")
)

// ChangeRoleInput carries input for ExecuteChangeRole.
type ChangeRoleInput struct {
	Actor     authz.Actor
	AccountID string
	Role      string
}

// ExecuteChangeRole moves an account to a new role.
// PRE: Actor is an admin
// POST: Role updated; CoachID cleared unless the account stays a student
// INVARIANT: at least one active admin remains; a coach with students keeps the coach role
func ExecuteChangeRole(ctx context.Context, input ChangeRoleInput, deps ManageAccountDeps) (account.Account, error) {
	if !input.Actor.IsAdmin() {
		return account.Account{}, authz.ErrForbidden
	}
	if !account.IsValidRole(input.Role) {
		return account.Account{}, authz.Invalid(account.ErrInvalidRole)
	}
	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return account.Account{}, fmt.Errorf("load account: %w", err)
	}
	if acct.Role == input.Role {
		return acct, nil
	}

	if acct.IsAdmin() && !acct.IsDisabled() {
		if err := ensureOtherAdmin(ctx, deps.AccountStore); err != nil {
			return account.Account{}, err
		}
	}
	if acct.Role == account.RoleCoach {
		n, err := deps.AccountStore.Count(ctx, accountStore.ListFilter{Role: account.RoleStudent, CoachID: acct.ID})
		if err != nil {
			return account.Account{}, err
		}
		if n > 0 {
			return account.Account{}, authz.Conflict(ErrCoachHasStudents)
		}
	}

	from := acct.Role
	acct.Role = input.Role
	if acct.Role != account.RoleStudent {
		acct.CoachID = ""
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}
	slog.Info("auth_event", "event", "role_changed", "account_id", acct.ID, "from", from, "to", acct.Role, "by", input.Actor.ID)
	return acct, nil
}

// SetStatusInput carries input for ExecuteSetStatus.
type SetStatusInput struct {
	Actor     authz.Actor
	AccountID string
	Status    string
}

// ExecuteSetStatus enables or disables an account.
// PRE: Actor is an admin
// POST: Status updated; enabling also clears any lockout
// INVARIANT: at least one active admin remains
func ExecuteSetStatus(ctx context.Context, input SetStatusInput, deps ManageAccountDeps) (account.Account, error) {
	if !input.Actor.IsAdmin() {
		return account.Account{}, authz.ErrForbidden
	}
	if input.Status != account.StatusActive && input.Status != account.StatusDisabled {
		return account.Account{}, authz.Invalid(account.ErrInvalidStatus)
	}
	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return account.Account{}, fmt.Errorf("load account: %w", err)
	}
	if acct.Status == input.Status {
		return acct, nil
	}
	if input.Status == account.StatusDisabled {
		if acct.ID == input.Actor.ID {
			return account.Account{}, authz.Conflict(ErrSelfDisable)
		}
		if acct.IsAdmin() {
			if err := ensureOtherAdmin(ctx, deps.AccountStore); err != nil {
				return account.Account{}, err
			}
		}
	} else {
		acct.ResetFailedLogins()
	}

	acct.Status = input.Status
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}
	slog.Info("auth_event", "event", "status_changed", "account_id", acct.ID, "status", acct.Status, "by", input.Actor.ID)
	return acct, nil
}

// AssignCoachInput carries input for ExecuteAssignCoach. An empty CoachID
// unassigns the student.
type AssignCoachInput struct {
	Actor     authz.Actor
	StudentID string
	CoachID   string
}

// ExecuteAssignCoach links a student to a coach.
// PRE: Actor is an admin
// POST: student.CoachID = CoachID
func ExecuteAssignCoach(ctx context.Context, input AssignCoachInput, deps ManageAccountDeps) (account.Account, error) {
	if !input.Actor.IsAdmin() {
		return account.Account{}, authz.ErrForbidden
	}
	student, err := deps.AccountStore.GetByID(ctx, input.StudentID)
	if err != nil {
		return account.Account{}, fmt.Errorf("load student: %w", err)
	}
	if !student.IsStudent() {
		return account.Account{}, authz.Invalid(account.ErrCoachOnNonStudent)
	}
	if input.CoachID != "" {
		coach, err := deps.AccountStore.GetByID(ctx, input.CoachID)
		if err != nil || coach.Role != account.RoleCoach || coach.IsDisabled() {
			return account.Account{}, authz.Invalid(ErrCoachNotFound)
		}
	}
	student.CoachID = input.CoachID
	if err := deps.AccountStore.Save(ctx, student); err != nil {
		return account.Account{}, err
	}
	slog.Info("auth_event", "event", "coach_assigned", "student_id", student.ID, "coach_id", input.CoachID, "by", input.Actor.ID)
	return student, nil
}

// ensureOtherAdmin fails unless more than one active admin exists.
func ensureOtherAdmin(ctx context.Context, store AccountStoreForManage) error {
	n, err := store.Count(ctx, accountStore.ListFilter{Role: account.RoleAdmin, Status: account.StatusActive})
	if err != nil {
		return err
	}
	if n <= 1 {
		return authz.Conflict(ErrLastAdmin)
	}
	return nil
}
