package projections

import (
	"context"
	"fmt"
	"time"

	sessionStore "skillcoach/internal/adapters/storage/session"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/session"
)

// GetSessionsQuery filters session listings. From is inclusive, To exclusive.
type GetSessionsQuery struct {
	Actor     authz.Actor
	StudentID string
	Status    string
	From      time.Time
	To        time.Time
}

// GetSessionsDeps holds dependencies for the session projections.
type GetSessionsDeps struct {
	SessionStore SessionStore
	AccountStore AccountLookup
}

// QueryGetSessions lists sessions ordered by scheduled time.
// POST: students see their own sessions; coaches the sessions they run
func QueryGetSessions(ctx context.Context, query GetSessionsQuery, deps GetSessionsDeps) ([]session.Session, error) {
	filter := sessionStore.ListFilter{
		StudentID: query.StudentID,
		Status:    query.Status,
		From:      query.From,
		To:        query.To,
	}
	switch {
	case query.Actor.IsStudent():
		filter.StudentID = query.Actor.ID
	case query.Actor.IsCoach():
		filter.CoachID = query.Actor.ID
	}
	sessions, err := deps.SessionStore.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return sessions, nil
}

// QueryGetSession returns one session the actor may view.
func QueryGetSession(ctx context.Context, actor authz.Actor, id string, deps GetSessionsDeps) (session.Session, error) {
	s, err := deps.SessionStore.GetByID(ctx, id)
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	if s.CoachID != actor.ID {
		if err := checkView(ctx, actor, s.StudentID, deps.AccountStore); err != nil {
			return session.Session{}, err
		}
	}
	return s, nil
}
