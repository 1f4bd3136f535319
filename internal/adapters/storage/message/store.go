package message

import (
	"context"

	domain "skillcoach/internal/domain/message"
)

// Store persists direct messages between accounts.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Message, error)
	Save(ctx context.Context, value domain.Message) error
	Delete(ctx context.Context, id string) error
	// ListByReceiverID returns a receiver's inbox, newest first.
	ListByReceiverID(ctx context.Context, receiverID string) ([]domain.Message, error)
	// ListBySenderID returns a sender's sent messages, newest first.
	ListBySenderID(ctx context.Context, senderID string) ([]domain.Message, error)
	CountUnread(ctx context.Context, receiverID string) (int, error)
}
