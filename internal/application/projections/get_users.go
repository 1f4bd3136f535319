package projections

import (
	"context"
	"errors"
	"fmt"

	"skillcoach/internal/adapters/storage"
	accountStore "skillcoach/internal/adapters/storage/account"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/application/listutil"
	"skillcoach/internal/domain/account"
)

// UserFilterKeys are the exact-match filters accepted by the users listing.
var UserFilterKeys = []string{"role", "status", "coach"}

// GetUsersQuery carries the actor and parsed list parameters.
type GetUsersQuery struct {
	Actor  authz.Actor
	Params listutil.Params
}

// GetUsersDeps holds dependencies for GetUsers.
type GetUsersDeps struct {
	AccountStore AccountStore
}

// QueryGetUsers returns one page of accounts.
// PRE: Actor is an admin or coach
// POST: coaches only ever see their own students
func QueryGetUsers(ctx context.Context, query GetUsersQuery, deps GetUsersDeps) (listutil.Page[account.Account], error) {
	p := query.Params
	filter := accountStore.ListFilter{
		Role:    p.Filters["role"],
		Status:  p.Filters["status"],
		CoachID: p.Filters["coach"],
		Search:  p.Search,
		Sort:    p.Sort,
		Dir:     p.Dir,
	}
	switch {
	case query.Actor.IsAdmin():
	case query.Actor.IsCoach():
		filter.Role = account.RoleStudent
		filter.CoachID = query.Actor.ID
	default:
		return listutil.Page[account.Account]{}, authz.ErrForbidden
	}

	total, err := deps.AccountStore.Count(ctx, filter)
	if err != nil {
		return listutil.Page[account.Account]{}, fmt.Errorf("count accounts: %w", err)
	}
	filter.Limit = p.PerPage
	filter.Offset = p.Offset()
	accounts, err := deps.AccountStore.List(ctx, filter)
	if err != nil {
		return listutil.Page[account.Account]{}, fmt.Errorf("list accounts: %w", err)
	}
	return listutil.NewPage(accounts, p, total), nil
}

// GetMeDeps holds dependencies for GetMe.
type GetMeDeps struct {
	AccountStore AccountLookup
	MessageStore MessageStore
}

// GetMeResult is the signed-in account with the context the UI header needs.
type GetMeResult struct {
	Account     account.Account  `json:"account"`
	Coach       *account.Account `json:"coach,omitempty"`
	UnreadCount int              `json:"unreadCount"`
}

// QueryGetMe resolves the actor's own account.
// POST: Coach is set for students with an assigned, existing coach
func QueryGetMe(ctx context.Context, actor authz.Actor, deps GetMeDeps) (GetMeResult, error) {
	a, err := deps.AccountStore.GetByID(ctx, actor.ID)
	if err != nil {
		return GetMeResult{}, fmt.Errorf("load account: %w", err)
	}
	result := GetMeResult{Account: a}
	if a.CoachID != "" {
		coach, err := deps.AccountStore.GetByID(ctx, a.CoachID)
		switch {
		case err == nil:
			result.Coach = &coach
		case !errors.Is(err, storage.ErrNotFound):
			return GetMeResult{}, fmt.Errorf("load coach: %w", err)
		}
	}
	result.UnreadCount, err = deps.MessageStore.CountUnread(ctx, a.ID)
	if err != nil {
		return GetMeResult{}, fmt.Errorf("count unread: %w", err)
	}
	return result, nil
}
