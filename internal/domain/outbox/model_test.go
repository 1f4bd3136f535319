package outbox_test

import (
	"errors"
	"testing"
	"time"

	"skillcoach/internal/domain/outbox"
)

var created = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func TestEntry_Validate_DefaultsMaxAttempts(t *testing.T) {
	e := outbox.Entry{ActionType: outbox.ActionTypeEmail, Payload: `{}`, CreatedAt: created}
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if e.MaxAttempts != outbox.DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", e.MaxAttempts, outbox.DefaultMaxAttempts)
	}

	bad := outbox.Entry{Payload: `{}`, CreatedAt: created}
	if err := bad.Validate(); !errors.Is(err, outbox.ErrEmptyActionType) {
		t.Errorf("missing action type: got %v", err)
	}
}

func TestEntry_Lifecycle(t *testing.T) {
	e := outbox.Entry{ActionType: outbox.ActionTypeEmail, Payload: `{}`, Status: outbox.StatusPending, MaxAttempts: 2, CreatedAt: created}

	if err := e.MarkAttempt(created); err != nil {
		t.Fatal(err)
	}
	e.MarkFailed(errors.New("smtp down"))
	if e.Status != outbox.StatusRetrying || e.IsTerminal() {
		t.Fatalf("after first failure: status=%s", e.Status)
	}

	if err := e.MarkAttempt(created.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	e.MarkFailed(errors.New("smtp down"))
	if e.Status != outbox.StatusFailed || !e.IsTerminal() {
		t.Fatalf("after exhausting attempts: status=%s", e.Status)
	}
	if err := e.MarkAttempt(created.Add(2 * time.Minute)); !errors.Is(err, outbox.ErrMaxRetries) {
		t.Errorf("MarkAttempt past max: got %v", err)
	}
}

func TestEntry_NextRetryDelay(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Minute},
		{1, 2 * time.Minute},
		{3, 8 * time.Minute},
		{10, time.Hour},
		{64, time.Hour},
	}
	for _, tt := range tests {
		e := outbox.Entry{Attempts: tt.attempts}
		if got := e.NextRetryDelay(time.Minute, time.Hour); got != tt.want {
			t.Errorf("attempts=%d: got %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestEntry_IsDue(t *testing.T) {
	e := outbox.Entry{Attempts: 1, LastAttemptedAt: created}
	if e.IsDue(created.Add(time.Minute), time.Minute, time.Hour) {
		t.Error("entry should not be due before backoff elapses")
	}
	if !e.IsDue(created.Add(2*time.Minute), time.Minute, time.Hour) {
		t.Error("entry should be due once backoff elapses")
	}
}
