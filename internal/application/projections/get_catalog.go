package projections

import (
	"context"
	"fmt"

	"skillcoach/internal/adapters/storage"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/form"
	"skillcoach/internal/domain/sport"
)

// GetSportsDeps holds dependencies for GetSports.
type GetSportsDeps struct {
	SportStore SportStore
}

// QueryGetSports returns the sport catalog ordered by name.
func QueryGetSports(ctx context.Context, deps GetSportsDeps) ([]sport.Sport, error) {
	sports, err := deps.SportStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}
	if sports == nil {
		sports = []sport.Sport{}
	}
	return sports, nil
}

// GetTemplatesQuery filters form template listings.
type GetTemplatesQuery struct {
	Actor      authz.Actor
	SportID    string
	ActiveOnly bool
}

// GetTemplatesDeps holds dependencies for the template projections.
type GetTemplatesDeps struct {
	TemplateStore TemplateStore
}

// QueryGetTemplates lists templates. Students only see active ones.
// POST: a SportID match includes templates with no sport
func QueryGetTemplates(ctx context.Context, query GetTemplatesQuery, deps GetTemplatesDeps) ([]form.Template, error) {
	activeOnly := query.ActiveOnly || query.Actor.IsStudent()
	templates, err := deps.TemplateStore.List(ctx, query.SportID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if templates == nil {
		templates = []form.Template{}
	}
	return templates, nil
}

// QueryGetTemplate loads one template. Inactive templates are hidden from
// students.
func QueryGetTemplate(ctx context.Context, actor authz.Actor, id string, deps GetTemplatesDeps) (form.Template, error) {
	t, err := deps.TemplateStore.GetByID(ctx, id)
	if err != nil {
		return form.Template{}, fmt.Errorf("load template: %w", err)
	}
	if actor.IsStudent() && !t.Active {
		return form.Template{}, fmt.Errorf("template %s: %w", id, storage.ErrNotFound)
	}
	return t, nil
}
