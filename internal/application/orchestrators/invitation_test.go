package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"skillcoach/internal/adapters/email"
	"skillcoach/internal/adapters/token"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/invitation"
	"skillcoach/internal/domain/outbox"
)

type invitationFixture struct {
	invitations *mockInvitationStore
	accounts    *mockAccountStore
	outbox      *mockOutboxStore
	sender      *email.NoopSender
	tokens      *fakeTokens
	deps        InvitationDeps
}

func newInvitationFixture() *invitationFixture {
	f := &invitationFixture{
		invitations: newMockInvitationStore(),
		accounts:    newMockAccountStore(adminAccount("admin-1"), coachAccount("coach-1")),
		outbox:      newMockOutboxStore(),
		sender:      email.NewNoopSender(),
		tokens:      &fakeTokens{},
	}
	ids := seqIDs()
	f.deps = InvitationDeps{
		InvitationStore: f.invitations,
		AccountStore:    f.accounts,
		Tokens:          f.tokens,
		Email:           EmailDelivery{Sender: f.sender, OutboxStore: f.outbox, GenerateID: ids, Now: fixedNow},
		BaseURL:         "https://coach.example.com",
		GenerateID:      ids,
		Now:             fixedNow,
	}
	return f
}

var adminActor = authz.Actor{ID: "admin-1", Role: account.RoleAdmin}

func TestExecuteCreateInvitation(t *testing.T) {
	f := newInvitationFixture()
	res, err := ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: " New.Coach@Example.com"}, f.deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inv := res.Invitation
	if inv.Email != "new.coach@example.com" || inv.Status != invitation.StatusPending {
		t.Errorf("invitation = %+v", inv)
	}
	if !inv.ExpiresAt.Equal(fixedTime.Add(7 * 24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v", inv.ExpiresAt)
	}
	if !res.Delivered {
		t.Error("expected immediate delivery")
	}
	if !strings.HasPrefix(res.AcceptURL, "https://coach.example.com/invite?token=") {
		t.Errorf("AcceptURL = %s", res.AcceptURL)
	}
	sent := f.sender.Sent()
	if len(sent) != 1 || sent[0].To[0] != "new.coach@example.com" {
		t.Fatalf("sent = %+v", sent)
	}

	_, err = ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: "new.coach@example.com"}, f.deps)
	if !errors.Is(err, ErrInvitationPending) {
		t.Errorf("duplicate: err = %v", err)
	}
	_, err = ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: "coach-1@example.com"}, f.deps)
	if !errors.Is(err, ErrAccountExists) || !errors.Is(err, authz.ErrConflict) {
		t.Errorf("existing account: err = %v", err)
	}
	_, err = ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: authz.Actor{ID: "coach-1", Role: account.RoleCoach}, Email: "x@example.com"}, f.deps)
	if !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("coach: err = %v", err)
	}
	_, err = ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: "not-an-email"}, f.deps)
	if !errors.Is(err, authz.ErrInvalid) {
		t.Errorf("bad email: err = %v", err)
	}
}

func TestExecuteCreateInvitation_QueuesOnSendFailure(t *testing.T) {
	f := newInvitationFixture()
	failing := &failingSender{err: errors.New("provider down")}
	f.deps.Email.Sender = failing

	res, err := ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: "late@example.com"}, f.deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Delivered {
		t.Error("Delivered should be false")
	}
	if len(f.outbox.entries) != 1 {
		t.Fatalf("outbox entries = %d, want 1", len(f.outbox.entries))
	}
	for _, e := range f.outbox.entries {
		if e.ActionType != outbox.ActionTypeEmail || e.Status != outbox.StatusPending {
			t.Errorf("entry = %+v", e)
		}
		if !strings.Contains(e.Payload, "late@example.com") || e.ErrorMessage != "provider down" {
			t.Errorf("payload=%s error=%s", e.Payload, e.ErrorMessage)
		}
	}
}

func TestExecuteAcceptInvitation(t *testing.T) {
	f := newInvitationFixture()
	res, err := ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: "pat@example.com"}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	raw := "tok:" + res.Invitation.ID + ":pat@example.com"

	acct, err := ExecuteAcceptInvitation(context.Background(), AcceptInvitationInput{Token: raw, DisplayName: "Pat", Password: "a-strong-password"}, f.deps)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if acct.Role != account.RoleCoach || acct.Email != "pat@example.com" || acct.DisplayName != "Pat" {
		t.Errorf("account = %+v", acct)
	}
	inv := f.invitations.invitations[res.Invitation.ID]
	if inv.Status != invitation.StatusAccepted || inv.AcceptedUserID != acct.ID {
		t.Errorf("invitation = %+v", inv)
	}

	_, err = ExecuteAcceptInvitation(context.Background(), AcceptInvitationInput{Token: raw, Password: "a-strong-password"}, f.deps)
	if !errors.Is(err, invitation.ErrNotPending) {
		t.Errorf("reuse: err = %v", err)
	}
}

func TestExecuteAcceptInvitation_Failures(t *testing.T) {
	f := newInvitationFixture()
	res, err := ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: "sam@example.com"}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	id := res.Invitation.ID
	ctx := context.Background()

	t.Run("mismatched email", func(t *testing.T) {
		_, err := ExecuteAcceptInvitation(ctx, AcceptInvitationInput{Token: "tok:" + id + ":other@example.com", Password: "a-strong-password"}, f.deps)
		if !errors.Is(err, invitation.ErrEmailMismatch) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("unknown invitation", func(t *testing.T) {
		_, err := ExecuteAcceptInvitation(ctx, AcceptInvitationInput{Token: "tok:nope:sam@example.com", Password: "a-strong-password"}, f.deps)
		if !errors.Is(err, token.ErrInvalid) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("expired token", func(t *testing.T) {
		f.tokens.verifyErr = token.ErrExpired
		defer func() { f.tokens.verifyErr = nil }()
		_, err := ExecuteAcceptInvitation(ctx, AcceptInvitationInput{Token: "tok:" + id + ":sam@example.com", Password: "a-strong-password"}, f.deps)
		if !errors.Is(err, invitation.ErrExpired) || !errors.Is(err, authz.ErrInvalid) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("expired record", func(t *testing.T) {
		deps := f.deps
		deps.Now = func() time.Time { return fixedTime.Add(8 * 24 * time.Hour) }
		_, err := ExecuteAcceptInvitation(ctx, AcceptInvitationInput{Token: "tok:" + id + ":sam@example.com", Password: "a-strong-password"}, deps)
		if !errors.Is(err, invitation.ErrExpired) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("revoked", func(t *testing.T) {
		if _, err := ExecuteRevokeInvitation(ctx, InvitationActionInput{Actor: adminActor, ID: id}, f.deps); err != nil {
			t.Fatal(err)
		}
		_, err := ExecuteAcceptInvitation(ctx, AcceptInvitationInput{Token: "tok:" + id + ":sam@example.com", Password: "a-strong-password"}, f.deps)
		if !errors.Is(err, invitation.ErrNotPending) {
			t.Errorf("err = %v", err)
		}
		if _, err := ExecuteRevokeInvitation(ctx, InvitationActionInput{Actor: adminActor, ID: id}, f.deps); !errors.Is(err, authz.ErrConflict) {
			t.Errorf("second revoke: err = %v", err)
		}
	})
}

func TestExecuteResendInvitation(t *testing.T) {
	f := newInvitationFixture()
	res, err := ExecuteCreateInvitation(context.Background(), CreateInvitationInput{Actor: adminActor, Email: "lee@example.com"}, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	later := fixedTime.Add(3 * 24 * time.Hour)
	f.deps.Now = func() time.Time { return later }

	again, err := ExecuteResendInvitation(context.Background(), InvitationActionInput{Actor: adminActor, ID: res.Invitation.ID}, f.deps)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if again.Invitation.Resends != 1 || !again.Invitation.ExpiresAt.Equal(later.Add(invitation.DefaultTTL)) {
		t.Errorf("invitation = %+v", again.Invitation)
	}
	if len(f.sender.Sent()) != 2 {
		t.Errorf("sent = %d, want 2", len(f.sender.Sent()))
	}
}
