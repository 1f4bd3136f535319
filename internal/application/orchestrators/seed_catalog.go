package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"skillcoach/internal/adapters/catalog"
	"skillcoach/internal/adapters/storage"
	"skillcoach/internal/domain/form"
	"skillcoach/internal/domain/sport"
)

// SportStoreForSeed defines the store interface needed by SeedCatalog.
type SportStoreForSeed interface {
	Save(ctx context.Context, s sport.Sport) error
}

// SeedCatalogDeps holds dependencies for SeedCatalog.
type SeedCatalogDeps struct {
	SportStore    SportStoreForSeed
	TemplateStore TemplateStoreForOrchestrator
	Now           func() time.Time
}

// ExecuteSeedCatalog loads the sport catalog and seed templates.
// Sports are upserted on every start. Templates are only created when
// missing so edits made through the API survive a restart.
func ExecuteSeedCatalog(ctx context.Context, c catalog.Catalog, deps SeedCatalogDeps) error {
	for _, s := range c.Sports {
		if err := deps.SportStore.Save(ctx, s); err != nil {
			return fmt.Errorf("seed sport %s: %w", s.ID, err)
		}
	}

	created := 0
	for _, t := range c.Templates {
		_, err := deps.TemplateStore.GetByID(ctx, t.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load template %s: %w", t.ID, err)
		}
		if err := seedTemplate(ctx, t, deps); err != nil {
			return err
		}
		created++
	}

	slog.Info("seed_event", "event", "catalog_seeded", "sports", len(c.Sports), "templates_created", created)
	return nil
}

func seedTemplate(ctx context.Context, t form.Template, deps SeedCatalogDeps) error {
	now := deps.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := deps.TemplateStore.Save(ctx, t); err != nil {
		return fmt.Errorf("seed template %s: %w", t.ID, err)
	}
	return nil
}
