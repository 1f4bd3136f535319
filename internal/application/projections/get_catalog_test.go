package projections

import (
	"context"
	"errors"
	"testing"

	"skillcoach/internal/adapters/storage"
	"skillcoach/internal/domain/form"
)

func catalogTemplates() GetTemplatesDeps {
	return GetTemplatesDeps{TemplateStore: &mockTemplateStore{templates: []form.Template{
		{ID: "review", Name: "Review", Active: true},
		{ID: "match", Name: "Match", SportID: "tennis", Active: true},
		{ID: "retired", Name: "Retired", SportID: "golf"},
	}}}
}

func TestQueryGetTemplates_StudentsSeeActiveOnly(t *testing.T) {
	ctx := context.Background()
	deps := catalogTemplates()

	got, err := QueryGetTemplates(ctx, GetTemplatesQuery{Actor: studentActor}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("student sees %d templates, want 2", len(got))
	}
	got, err = QueryGetTemplates(ctx, GetTemplatesQuery{Actor: coachActor}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("coach sees %d templates, want 3", len(got))
	}
	got, err = QueryGetTemplates(ctx, GetTemplatesQuery{Actor: coachActor, SportID: "tennis"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("tennis templates = %d, want generic plus tennis", len(got))
	}
}

func TestQueryGetTemplates_EmptyIsNotNil(t *testing.T) {
	got, err := QueryGetTemplates(context.Background(), GetTemplatesQuery{Actor: adminActor},
		GetTemplatesDeps{TemplateStore: &mockTemplateStore{}})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Error("want empty slice, got nil")
	}
}

func TestQueryGetTemplate(t *testing.T) {
	ctx := context.Background()
	deps := catalogTemplates()

	if _, err := QueryGetTemplate(ctx, studentActor, "retired", deps); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("student reading inactive template: err = %v, want not found", err)
	}
	tpl, err := QueryGetTemplate(ctx, coachActor, "retired", deps)
	if err != nil {
		t.Fatalf("coach reading inactive template: %v", err)
	}
	if tpl.Name != "Retired" {
		t.Errorf("name = %q", tpl.Name)
	}
	if _, err := QueryGetTemplate(ctx, adminActor, "missing", deps); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing template: err = %v, want not found", err)
	}
}
