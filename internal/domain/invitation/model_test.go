package invitation_test

import (
	"errors"
	"testing"
	"time"

	"skillcoach/internal/domain/invitation"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func pending() invitation.Invitation {
	return invitation.Invitation{
		ID:        "inv-1",
		Email:     "newcoach@club.test",
		InvitedBy: "admin-1",
		Status:    invitation.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(invitation.DefaultTTL),
	}
}

// TestInvitation_Validate tests validation of Invitation.
func TestInvitation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*invitation.Invitation)
		wantErr bool
	}{
		{name: "valid", mutate: func(*invitation.Invitation) {}},
		{name: "no email", mutate: func(i *invitation.Invitation) { i.Email = "" }, wantErr: true},
		{name: "bad email", mutate: func(i *invitation.Invitation) { i.Email = "coach" }, wantErr: true},
		{name: "no inviter", mutate: func(i *invitation.Invitation) { i.InvitedBy = "" }, wantErr: true},
		{name: "bad status", mutate: func(i *invitation.Invitation) { i.Status = "sent" }, wantErr: true},
		{name: "no expiry", mutate: func(i *invitation.Invitation) { i.ExpiresAt = time.Time{} }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := pending()
			tt.mutate(&inv)
			if err := inv.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestInvitation_Accept tests accepting, including expiry and reuse.
func TestInvitation_Accept(t *testing.T) {
	inv := pending()
	if err := inv.Accept("coach-9", now.Add(time.Hour)); err != nil {
		t.Fatalf("Accept() unexpected error: %v", err)
	}
	if inv.Status != invitation.StatusAccepted || inv.AcceptedUserID != "coach-9" {
		t.Errorf("unexpected state after accept: %+v", inv)
	}
	if err := inv.Accept("coach-10", now); !errors.Is(err, invitation.ErrNotPending) {
		t.Errorf("second accept: got %v, want ErrNotPending", err)
	}

	late := pending()
	if err := late.Accept("coach-9", now.Add(invitation.DefaultTTL+time.Minute)); !errors.Is(err, invitation.ErrExpired) {
		t.Errorf("late accept: got %v, want ErrExpired", err)
	}
}

// TestInvitation_RevokeAndRenew tests revocation and resend renewal.
func TestInvitation_RevokeAndRenew(t *testing.T) {
	inv := pending()
	later := now.Add(6 * 24 * time.Hour)
	if err := inv.Renew(later, invitation.DefaultTTL); err != nil {
		t.Fatal(err)
	}
	if !inv.ExpiresAt.Equal(later.Add(invitation.DefaultTTL)) || inv.Resends != 1 {
		t.Errorf("renew did not extend expiry: %+v", inv)
	}
	if err := inv.Revoke(); err != nil {
		t.Fatal(err)
	}
	if inv.IsOpen(now) {
		t.Error("revoked invitation should not be open")
	}
	if err := inv.Renew(now, invitation.DefaultTTL); !errors.Is(err, invitation.ErrNotPending) {
		t.Errorf("renew after revoke: got %v", err)
	}
}
