package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"skillcoach/internal/adapters/email"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/outbox"
)

func queuedEmail(t *testing.T, id string) outbox.Entry {
	t.Helper()
	payload, err := json.Marshal(email.Message{To: []string{"x@example.com"}, Subject: "Hi", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatal(err)
	}
	return outbox.Entry{
		ID:          id,
		ActionType:  outbox.ActionTypeEmail,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: 3,
		CreatedAt:   fixedTime,
	}
}

func TestOutboxProcessor_DeliversQueuedEmail(t *testing.T) {
	store := newMockOutboxStore()
	_ = store.Save(context.Background(), queuedEmail(t, "e1"))
	sender := email.NewNoopSender()
	p := NewOutboxProcessor(store, map[string]ActionExecutor{outbox.ActionTypeEmail: EmailExecutor{Sender: sender}}, fixedNow)

	n, err := p.ProcessPending(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("ProcessPending = %d, %v", n, err)
	}
	got := store.entries["e1"]
	if got.Status != outbox.StatusDone || got.ExternalID == "" || got.Attempts != 1 {
		t.Errorf("entry = %+v", got)
	}
	if len(sender.Sent()) != 1 || sender.Sent()[0].Subject != "Hi" {
		t.Errorf("sent = %+v", sender.Sent())
	}
}

func TestOutboxProcessor_BackoffAndExhaustion(t *testing.T) {
	store := newMockOutboxStore()
	_ = store.Save(context.Background(), queuedEmail(t, "e1"))
	failing := &failingSender{err: errors.New("503")}
	now := fixedTime
	p := NewOutboxProcessor(store, map[string]ActionExecutor{outbox.ActionTypeEmail: EmailExecutor{Sender: failing}}, func() time.Time { return now })

	if n, _ := p.ProcessPending(context.Background()); n != 1 {
		t.Fatalf("first pass attempted %d", n)
	}
	if got := store.entries["e1"]; got.Status != outbox.StatusRetrying || got.ErrorMessage != "503" {
		t.Fatalf("after first failure: %+v", got)
	}
	if n, _ := p.ProcessPending(context.Background()); n != 0 {
		t.Errorf("entry retried before backoff elapsed")
	}

	for i := 0; i < 2; i++ {
		now = now.Add(2 * time.Hour)
		if _, err := p.ProcessPending(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	got := store.entries["e1"]
	if got.Status != outbox.StatusFailed || got.Attempts != 3 {
		t.Errorf("after exhaustion: %+v", got)
	}
	if failing.calls != 3 {
		t.Errorf("sender calls = %d, want 3", failing.calls)
	}
	if _, err := p.ProcessSingle(context.Background(), "e1"); !errors.Is(err, ErrEntryTerminal) || !errors.Is(err, authz.ErrConflict) {
		t.Errorf("ProcessSingle on exhausted entry: err = %v", err)
	}
}

func TestOutboxProcessor_UnknownActionAndAbandon(t *testing.T) {
	store := newMockOutboxStore()
	e := queuedEmail(t, "e1")
	e.ActionType = "fax"
	_ = store.Save(context.Background(), e)
	_ = store.Save(context.Background(), queuedEmail(t, "e2"))
	p := NewOutboxProcessor(store, map[string]ActionExecutor{}, fixedNow)

	got, err := p.ProcessSingle(context.Background(), "e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != outbox.StatusFailed || !got.IsTerminal() {
		t.Errorf("unknown action entry = %+v", got)
	}

	abandoned, err := p.AbandonEntry(context.Background(), "e2")
	if err != nil || abandoned.Status != outbox.StatusAbandoned {
		t.Errorf("abandon = %+v, %v", abandoned, err)
	}
}

func TestStartOutboxWorker_StopsOnCancel(t *testing.T) {
	store := newMockOutboxStore()
	_ = store.Save(context.Background(), queuedEmail(t, "e1"))
	sender := email.NewNoopSender()
	p := NewOutboxProcessor(store, map[string]ActionExecutor{outbox.ActionTypeEmail: EmailExecutor{Sender: sender}}, fixedNow)

	ctx, cancel := context.WithCancel(context.Background())
	done := StartOutboxWorker(ctx, p, 5*time.Millisecond)
	deadline := time.After(2 * time.Second)
	for len(sender.Sent()) == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
