package projections

import (
	"context"
	"fmt"
	"time"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/invitation"
	"skillcoach/internal/domain/outbox"
)

// InvitationView flags invitations that are pending but past their expiry.
type InvitationView struct {
	invitation.Invitation
	Expired bool `json:"expired"`
}

// GetInvitationsQuery filters invitation listings by status.
type GetInvitationsQuery struct {
	Actor  authz.Actor
	Status string
}

// GetInvitationsDeps holds dependencies for GetInvitations.
type GetInvitationsDeps struct {
	InvitationStore InvitationStore
	Now             func() time.Time
}

// QueryGetInvitations lists coach invitations newest first.
// PRE: Actor is an admin
func QueryGetInvitations(ctx context.Context, query GetInvitationsQuery, deps GetInvitationsDeps) ([]InvitationView, error) {
	if !query.Actor.IsAdmin() {
		return nil, authz.ErrForbidden
	}
	list, err := deps.InvitationStore.List(ctx, query.Status)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	now := deps.Now()
	out := make([]InvitationView, 0, len(list))
	for _, inv := range list {
		expired := inv.Status == invitation.StatusPending && inv.IsExpired(now)
		out = append(out, InvitationView{Invitation: inv, Expired: expired})
	}
	return out, nil
}

// DefaultOutboxLimit bounds the admin outbox listing.
const DefaultOutboxLimit = 100

// GetOutboxQuery filters outbox listings by status.
type GetOutboxQuery struct {
	Actor  authz.Actor
	Status string
	Limit  int
}

// GetOutboxDeps holds dependencies for GetOutbox.
type GetOutboxDeps struct {
	OutboxStore OutboxStore
}

// QueryGetOutbox lists queued side effects newest first.
// PRE: Actor is an admin
func QueryGetOutbox(ctx context.Context, query GetOutboxQuery, deps GetOutboxDeps) ([]outbox.Entry, error) {
	if !query.Actor.IsAdmin() {
		return nil, authz.ErrForbidden
	}
	limit := query.Limit
	if limit <= 0 || limit > DefaultOutboxLimit {
		limit = DefaultOutboxLimit
	}
	entries, err := deps.OutboxStore.List(ctx, query.Status, limit)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	return entries, nil
}
