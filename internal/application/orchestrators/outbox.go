package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"skillcoach/internal/adapters/email"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/outbox"
)

// OutboxStoreForEnqueue defines the store interface needed to queue an action.
type OutboxStoreForEnqueue interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// OutboxStoreForProcessor defines the store interface needed by OutboxProcessor.
type OutboxStoreForProcessor interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// ErrEntryTerminal is returned when an admin retries a finished entry.
var ErrEntryTerminal = errors.New("outbox entry is finished and cannot be retried")

// EmailDelivery sends email immediately and falls back to the outbox.
type EmailDelivery struct {
	Sender      email.Sender
	OutboxStore OutboxStoreForEnqueue
	GenerateID  func() string
	Now         func() time.Time
}

// Deliver sends msg. When the provider fails the message is queued for retry.
// POST: returns true if sent now; false with nil error if queued instead
func (d EmailDelivery) Deliver(ctx context.Context, msg email.Message) (bool, error) {
	res, sendErr := d.Sender.Send(ctx, msg)
	if sendErr == nil {
		slog.Info("outbox_event", "event", "email_sent", "to", msg.To, "message_id", res.MessageID)
		return true, nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("encode email payload: %w", err)
	}
	entry := outbox.Entry{
		ID:           d.GenerateID(),
		ActionType:   outbox.ActionTypeEmail,
		Payload:      string(payload),
		Status:       outbox.StatusPending,
		CreatedAt:    d.Now(),
		ErrorMessage: sendErr.Error(),
	}
	if err := entry.Validate(); err != nil {
		return false, err
	}
	if err := d.OutboxStore.Save(ctx, entry); err != nil {
		return false, fmt.Errorf("queue email after send failure (%v): %w", sendErr, err)
	}
	slog.Warn("outbox_event", "event", "email_queued", "entry_id", entry.ID, "to", msg.To, "error", sendErr.Error())
	return false, nil
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the action and returns the provider's ID for it.
	Execute(ctx context.Context, payload string) (string, error)
}

// EmailExecutor replays queued email.Message payloads.
type EmailExecutor struct {
	Sender email.Sender
}

// Execute sends the email encoded in payload.
// PRE: payload is a JSON email.Message
// POST: returns the provider message ID
func (e EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var msg email.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// OutboxProcessor retries queued external actions with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStoreForProcessor
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStoreForProcessor, executors map[string]ActionExecutor, now func() time.Time) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       now,
		baseDelay: 30 * time.Second,
		maxDelay:  time.Hour,
		batchSize: 25,
	}
}

// ProcessPending runs every due entry once.
// PRE: Context is valid
// POST: due entries attempted; returns how many were attempted
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox entries: %w", err)
	}
	now := p.now()
	attempted := 0
	for _, entry := range entries {
		if !entry.IsDue(now, p.baseDelay, p.maxDelay) {
			continue
		}
		attempted++
		if err := p.run(ctx, entry, now); err != nil {
			slog.Error("outbox_event", "event", "process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err)
		}
	}
	return attempted, nil
}

// ProcessSingle runs one entry immediately, ignoring backoff.
// PRE: entry is not terminal
// POST: Entry attempted, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (outbox.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return outbox.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return outbox.Entry{}, authz.Conflict(ErrEntryTerminal)
	}
	if err := p.run(ctx, entry, p.now()); err != nil {
		return outbox.Entry{}, err
	}
	return p.store.GetByID(ctx, entryID)
}

// AbandonEntry marks an entry as abandoned by an admin.
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) (outbox.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return outbox.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	if err := p.store.Save(ctx, entry); err != nil {
		return outbox.Entry{}, err
	}
	slog.Info("outbox_event", "event", "entry_abandoned", "entry_id", entry.ID)
	return entry, nil
}

func (p *OutboxProcessor) run(ctx context.Context, entry outbox.Entry, now time.Time) error {
	if err := entry.MarkAttempt(now); err != nil {
		entry.MarkFailed(err)
		return p.store.Save(ctx, entry)
	}
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(fmt.Errorf("no executor registered for action type %q", entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_event", "event", "action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_event", "event", "action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// StartOutboxWorker processes pending entries every interval until ctx is done.
// POST: returns a channel closed once the worker has stopped
func StartOutboxWorker(ctx context.Context, p *OutboxProcessor, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				if _, err := p.ProcessPending(runCtx); err != nil {
					slog.Error("outbox_event", "event", "background_process_failed", "error", err)
				}
				cancel()
			case <-ctx.Done():
				slog.Info("outbox_event", "event", "worker_stopped")
				return
			}
		}
	}()
	return done
}
