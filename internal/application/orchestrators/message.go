package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/message"
)

// MessageStoreForOrchestrator defines the store interface needed by the
// messaging orchestrators.
type MessageStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (message.Message, error)
	Save(ctx context.Context, m message.Message) error
	Delete(ctx context.Context, id string) error
}

// MessageDeps holds dependencies for the messaging orchestrators.
type MessageDeps struct {
	MessageStore MessageStoreForOrchestrator
	AccountStore AccountLookup
	GenerateID   func() string
	Now          func() time.Time
}

var (
	ErrRecipientNotAllowed = errors.New("you cannot message this account")
	ErrRecipientDisabled   = errors.New("recipient account is disabled")
)

// SendMessageInput carries input for ExecuteSendMessage.
type SendMessageInput struct {
	Actor      authz.Actor
	ReceiverID string
	Subject    string
	Content    string
}

// ExecuteSendMessage delivers a direct message.
// PRE: students may message only their coach; coaches their students or
// admins; admins anyone
// POST: message saved unread
func ExecuteSendMessage(ctx context.Context, input SendMessageInput, deps MessageDeps) (message.Message, error) {
	sender, err := deps.AccountStore.GetByID(ctx, input.Actor.ID)
	if err != nil {
		return message.Message{}, fmt.Errorf("load sender: %w", err)
	}
	receiver, err := deps.AccountStore.GetByID(ctx, input.ReceiverID)
	if err != nil {
		return message.Message{}, fmt.Errorf("load recipient: %w", err)
	}
	if !canMessage(sender, receiver) {
		return message.Message{}, authz.ErrForbidden
	}
	if receiver.IsDisabled() {
		return message.Message{}, authz.Invalid(ErrRecipientDisabled)
	}

	m := message.Message{
		ID:         deps.GenerateID(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Subject:    strings.TrimSpace(input.Subject),
		Content:    input.Content,
		CreatedAt:  deps.Now(),
	}
	if err := m.Validate(); err != nil {
		return message.Message{}, authz.Invalid(err)
	}
	if err := deps.MessageStore.Save(ctx, m); err != nil {
		return message.Message{}, fmt.Errorf("save message: %w", err)
	}
	slog.Info("message_event", "event", "message_sent", "message_id", m.ID, "from", m.SenderID, "to", m.ReceiverID)
	return m, nil
}

func canMessage(from, to account.Account) bool {
	switch from.Role {
	case account.RoleAdmin:
		return true
	case account.RoleCoach:
		return to.Role == account.RoleAdmin || (to.Role == account.RoleStudent && to.CoachID == from.ID)
	case account.RoleStudent:
		return from.CoachID != "" && to.ID == from.CoachID
	}
	return false
}

// MessageActionInput names a message.
type MessageActionInput struct {
	Actor     authz.Actor
	MessageID string
}

// ExecuteMarkRead marks a message read.
// PRE: Actor is the receiver
// POST: ReadAt set once; repeated calls keep the first timestamp
func ExecuteMarkRead(ctx context.Context, input MessageActionInput, deps MessageDeps) (message.Message, error) {
	m, err := deps.MessageStore.GetByID(ctx, input.MessageID)
	if err != nil {
		return message.Message{}, fmt.Errorf("load message: %w", err)
	}
	if m.ReceiverID != input.Actor.ID {
		return message.Message{}, authz.ErrForbidden
	}
	if m.IsRead() {
		return m, nil
	}
	m.MarkRead(deps.Now())
	if err := deps.MessageStore.Save(ctx, m); err != nil {
		return message.Message{}, fmt.Errorf("save message: %w", err)
	}
	return m, nil
}

// ExecuteDeleteMessage removes a message for both parties.
// PRE: Actor is the sender or receiver
func ExecuteDeleteMessage(ctx context.Context, input MessageActionInput, deps MessageDeps) error {
	m, err := deps.MessageStore.GetByID(ctx, input.MessageID)
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}
	if !m.Involves(input.Actor.ID) {
		return authz.ErrForbidden
	}
	if err := deps.MessageStore.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	slog.Info("message_event", "event", "message_deleted", "message_id", m.ID, "by", input.Actor.ID)
	return nil
}
