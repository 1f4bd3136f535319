package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"skillcoach/internal/adapters/email"
	"skillcoach/internal/adapters/storage"
	"skillcoach/internal/adapters/token"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/invitation"
)

// InvitationStoreForOrchestrator defines the store interface needed by the
// invitation orchestrators.
type InvitationStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (invitation.Invitation, error)
	Save(ctx context.Context, inv invitation.Invitation) error
	ListPendingByEmail(ctx context.Context, email string) ([]invitation.Invitation, error)
}

// InvitationTokens issues and verifies signed invitation links.
type InvitationTokens interface {
	Issue(invitationID, email string, expiresAt time.Time) (string, error)
	Verify(raw string) (token.Claims, error)
}

// InvitationDeps holds dependencies for the invitation orchestrators.
type InvitationDeps struct {
	InvitationStore InvitationStoreForOrchestrator
	AccountStore    AccountStoreForCreate
	Tokens          InvitationTokens
	Email           EmailDelivery
	BaseURL         string
	GenerateID      func() string
	Now             func() time.Time
}

var (
	ErrAccountExists     = errors.New("an account with this email already exists")
	ErrInvitationPending = errors.New("an open invitation already exists for this email")
)

// InvitationResult is returned when an invitation link is issued.
type InvitationResult struct {
	Invitation invitation.Invitation `json:"invitation"`
	AcceptURL  string                `json:"acceptUrl"`
	Delivered  bool                  `json:"delivered"` // false when queued in the outbox
}

// CreateInvitationInput carries input for ExecuteCreateInvitation.
type CreateInvitationInput struct {
	Actor authz.Actor
	Email string
}

// ExecuteCreateInvitation invites an email address to register as a coach.
// PRE: Actor is an admin
// POST: pending invitation saved, signed link emailed (or queued)
// INVARIANT: no account and no open invitation exists for the email
func ExecuteCreateInvitation(ctx context.Context, input CreateInvitationInput, deps InvitationDeps) (InvitationResult, error) {
	if !input.Actor.IsAdmin() {
		return InvitationResult{}, authz.ErrForbidden
	}
	now := deps.Now()
	addr := account.NormalizeEmail(input.Email)

	if _, err := deps.AccountStore.GetByEmail(ctx, addr); err == nil {
		return InvitationResult{}, authz.Conflict(ErrAccountExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return InvitationResult{}, fmt.Errorf("look up email: %w", err)
	}
	pending, err := deps.InvitationStore.ListPendingByEmail(ctx, addr)
	if err != nil {
		return InvitationResult{}, err
	}
	for _, p := range pending {
		if p.IsOpen(now) {
			return InvitationResult{}, authz.Conflict(ErrInvitationPending)
		}
	}

	inv := invitation.Invitation{
		ID:        deps.GenerateID(),
		Email:     addr,
		InvitedBy: input.Actor.ID,
		Status:    invitation.StatusPending,
		ExpiresAt: now.Add(invitation.DefaultTTL),
		CreatedAt: now,
	}
	if err := inv.Validate(); err != nil {
		return InvitationResult{}, authz.Invalid(err)
	}
	if err := deps.InvitationStore.Save(ctx, inv); err != nil {
		return InvitationResult{}, fmt.Errorf("save invitation: %w", err)
	}

	res, err := sendInvitation(ctx, inv, deps)
	if err != nil {
		return InvitationResult{}, err
	}
	slog.Info("invitation_event", "event", "invitation_created", "invitation_id", inv.ID, "email", inv.Email, "by", input.Actor.ID, "delivered", res.Delivered)
	return res, nil
}

// AcceptInvitationInput carries input for ExecuteAcceptInvitation.
type AcceptInvitationInput struct {
	Token       string
	DisplayName string
	Password    string
}

// ExecuteAcceptInvitation redeems a signed link and creates the coach account.
// PRE: token signature valid and unexpired
// POST: active coach account created, invitation accepted
func ExecuteAcceptInvitation(ctx context.Context, input AcceptInvitationInput, deps InvitationDeps) (account.Account, error) {
	claims, err := deps.Tokens.Verify(input.Token)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return account.Account{}, authz.Invalid(invitation.ErrExpired)
		}
		return account.Account{}, authz.Invalid(token.ErrInvalid)
	}
	inv, err := deps.InvitationStore.GetByID(ctx, claims.InvitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return account.Account{}, authz.Invalid(token.ErrInvalid)
		}
		return account.Account{}, err
	}
	if account.NormalizeEmail(claims.Email) != inv.Email {
		return account.Account{}, authz.Invalid(invitation.ErrEmailMismatch)
	}
	now := deps.Now()
	if inv.Status != invitation.StatusPending {
		return account.Account{}, authz.Conflict(invitation.ErrNotPending)
	}
	if inv.IsExpired(now) {
		return account.Account{}, authz.Invalid(invitation.ErrExpired)
	}

	acct, err := createAccount(ctx, CreateAccountInput{
		Email:       inv.Email,
		Password:    input.Password,
		Role:        account.RoleCoach,
		DisplayName: input.DisplayName,
	}, CreateAccountDeps{AccountStore: deps.AccountStore, GenerateID: deps.GenerateID, Now: deps.Now})
	if err != nil {
		return account.Account{}, err
	}
	if err := inv.Accept(acct.ID, now); err != nil {
		return account.Account{}, authz.Conflict(err)
	}
	if err := deps.InvitationStore.Save(ctx, inv); err != nil {
		return account.Account{}, fmt.Errorf("save invitation: %w", err)
	}
	slog.Info("invitation_event", "event", "invitation_accepted", "invitation_id", inv.ID, "account_id", acct.ID)
	return acct, nil
}

// InvitationActionInput names an invitation acted on by an admin.
type InvitationActionInput struct {
	Actor authz.Actor
	ID    string
}

// ExecuteRevokeInvitation cancels a pending invitation.
// PRE: Actor is an admin; invitation is pending
// POST: Status is revoked
func ExecuteRevokeInvitation(ctx context.Context, input InvitationActionInput, deps InvitationDeps) (invitation.Invitation, error) {
	if !input.Actor.IsAdmin() {
		return invitation.Invitation{}, authz.ErrForbidden
	}
	inv, err := deps.InvitationStore.GetByID(ctx, input.ID)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("load invitation: %w", err)
	}
	if err := inv.Revoke(); err != nil {
		return invitation.Invitation{}, authz.Conflict(err)
	}
	if err := deps.InvitationStore.Save(ctx, inv); err != nil {
		return invitation.Invitation{}, err
	}
	slog.Info("invitation_event", "event", "invitation_revoked", "invitation_id", inv.ID, "by", input.Actor.ID)
	return inv, nil
}

// ExecuteResendInvitation extends a pending invitation and sends a fresh link.
// PRE: Actor is an admin; invitation is pending
// POST: ExpiresAt moved forward, new link emailed (or queued)
func ExecuteResendInvitation(ctx context.Context, input InvitationActionInput, deps InvitationDeps) (InvitationResult, error) {
	if !input.Actor.IsAdmin() {
		return InvitationResult{}, authz.ErrForbidden
	}
	inv, err := deps.InvitationStore.GetByID(ctx, input.ID)
	if err != nil {
		return InvitationResult{}, fmt.Errorf("load invitation: %w", err)
	}
	if err := inv.Renew(deps.Now(), invitation.DefaultTTL); err != nil {
		return InvitationResult{}, authz.Conflict(err)
	}
	if err := deps.InvitationStore.Save(ctx, inv); err != nil {
		return InvitationResult{}, err
	}
	res, err := sendInvitation(ctx, inv, deps)
	if err != nil {
		return InvitationResult{}, err
	}
	slog.Info("invitation_event", "event", "invitation_resent", "invitation_id", inv.ID, "resends", inv.Resends, "delivered", res.Delivered)
	return res, nil
}

func sendInvitation(ctx context.Context, inv invitation.Invitation, deps InvitationDeps) (InvitationResult, error) {
	raw, err := deps.Tokens.Issue(inv.ID, inv.Email, inv.ExpiresAt)
	if err != nil {
		return InvitationResult{}, fmt.Errorf("issue invitation token: %w", err)
	}
	link := deps.BaseURL + "/invite?token=" + url.QueryEscape(raw)

	inviter := "An administrator"
	if admin, err := deps.AccountStore.GetByID(ctx, inv.InvitedBy); err == nil {
		inviter = admin.Name()
	}
	msg, err := email.Invitation(inv.Email, inviter, link, inv.ExpiresAt)
	if err != nil {
		return InvitationResult{}, err
	}
	delivered, err := deps.Email.Deliver(ctx, msg)
	if err != nil {
		return InvitationResult{}, err
	}
	return InvitationResult{Invitation: inv, AcceptURL: link, Delivered: delivered}, nil
}
