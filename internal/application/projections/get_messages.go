package projections

import (
	"context"
	"fmt"

	"skillcoach/internal/adapters/render"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/message"
)

// MessageView is a message with its markdown rendered and both parties named.
type MessageView struct {
	message.Message
	HTML         string `json:"html"`
	SenderName   string `json:"senderName"`
	ReceiverName string `json:"receiverName"`
}

// GetMessagesDeps holds dependencies for the messaging projections.
type GetMessagesDeps struct {
	MessageStore MessageStore
	AccountStore AccountLookup
}

// QueryGetInbox lists messages received by the actor, newest first.
func QueryGetInbox(ctx context.Context, actor authz.Actor, deps GetMessagesDeps) ([]MessageView, error) {
	msgs, err := deps.MessageStore.ListByReceiverID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	return viewMessages(ctx, msgs, deps.AccountStore)
}

// QueryGetSent lists messages sent by the actor, newest first.
func QueryGetSent(ctx context.Context, actor authz.Actor, deps GetMessagesDeps) ([]MessageView, error) {
	msgs, err := deps.MessageStore.ListBySenderID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list sent: %w", err)
	}
	return viewMessages(ctx, msgs, deps.AccountStore)
}

// QueryGetUnreadCount counts the actor's unread messages.
func QueryGetUnreadCount(ctx context.Context, actor authz.Actor, deps GetMessagesDeps) (int, error) {
	n, err := deps.MessageStore.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// viewMessages renders markdown and resolves names. Accounts that no longer
// exist are shown with an empty name.
func viewMessages(ctx context.Context, msgs []message.Message, accounts AccountLookup) ([]MessageView, error) {
	names := make(map[string]string)
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		var n string
		if a, err := accounts.GetByID(ctx, id); err == nil {
			n = a.Name()
		}
		names[id] = n
		return n
	}

	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		html, err := render.Markdown(m.Content)
		if err != nil {
			return nil, fmt.Errorf("render message %s: %w", m.ID, err)
		}
		out = append(out, MessageView{
			Message:      m,
			HTML:         html,
			SenderName:   name(m.SenderID),
			ReceiverName: name(m.ReceiverID),
		})
	}
	return out, nil
}
