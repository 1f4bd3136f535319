package formtemplate

import (
	"context"

	"skillcoach/internal/domain/form"
)

// Store persists charting form templates.
type Store interface {
	GetByID(ctx context.Context, id string) (form.Template, error)
	Save(ctx context.Context, value form.Template) error
	// List returns templates by name. An empty sportID matches all
	// templates; otherwise sport-specific and generic templates match.
	List(ctx context.Context, sportID string, activeOnly bool) ([]form.Template, error)
}
