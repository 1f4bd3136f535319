package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/form"
)

// TemplateStoreForOrchestrator defines the store interface needed by the
// form template orchestrators.
type TemplateStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (form.Template, error)
	Save(ctx context.Context, t form.Template) error
}

// TemplateDeps holds dependencies for the form template orchestrators.
type TemplateDeps struct {
	TemplateStore TemplateStoreForOrchestrator
	SportStore    SportLookup
	GenerateID    func() string
	Now           func() time.Time
}

// TemplateInput carries a template definition from a coach or admin.
type TemplateInput struct {
	Actor    authz.Actor
	Template form.Template
}

// ExecuteCreateTemplate stores a new charting form template.
// PRE: Actor is a coach or admin
// POST: template saved under a freshly generated ID, owned by Actor; a client ID is ignored
func ExecuteCreateTemplate(ctx context.Context, input TemplateInput, deps TemplateDeps) (form.Template, error) {
	if !input.Actor.IsCoach() && !input.Actor.IsAdmin() {
		return form.Template{}, authz.ErrForbidden
	}
	t := input.Template
	t.ID = deps.GenerateID()
	t.CreatedBy = input.Actor.ID
	now := deps.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := saveTemplate(ctx, &t, deps); err != nil {
		return form.Template{}, err
	}
	slog.Info("form_event", "event", "template_created", "template_id", t.ID, "sections", len(t.Sections), "by", input.Actor.ID)
	return t, nil
}

// ExecuteUpdateTemplate replaces a template's definition.
// PRE: Actor is an admin or the coach who created the template
// POST: CreatedAt and CreatedBy preserved; drafts are re-normalised against the new shape when next saved
func ExecuteUpdateTemplate(ctx context.Context, input TemplateInput, deps TemplateDeps) (form.Template, error) {
	if !input.Actor.IsCoach() && !input.Actor.IsAdmin() {
		return form.Template{}, authz.ErrForbidden
	}
	existing, err := deps.TemplateStore.GetByID(ctx, input.Template.ID)
	if err != nil {
		return form.Template{}, fmt.Errorf("load template: %w", err)
	}
	// Seeded templates have no owner, so only admins may change them.
	if !input.Actor.IsAdmin() && existing.CreatedBy != input.Actor.ID {
		return form.Template{}, authz.ErrForbidden
	}
	t := input.Template
	t.CreatedAt = existing.CreatedAt
	t.CreatedBy = existing.CreatedBy
	t.UpdatedAt = deps.Now()
	if err := saveTemplate(ctx, &t, deps); err != nil {
		return form.Template{}, err
	}
	slog.Info("form_event", "event", "template_updated", "template_id", t.ID, "active", t.Active, "by", input.Actor.ID)
	return t, nil
}

func saveTemplate(ctx context.Context, t *form.Template, deps TemplateDeps) error {
	t.Name = strings.TrimSpace(t.Name)
	if err := t.Validate(); err != nil {
		return authz.Invalid(err)
	}
	if err := checkSport(ctx, t.SportID, deps.SportStore); err != nil {
		return err
	}
	if err := deps.TemplateStore.Save(ctx, *t); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}
