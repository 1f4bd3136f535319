package projections

import (
	"context"
	"errors"
	"fmt"

	"skillcoach/internal/adapters/export"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/charting"
	"skillcoach/internal/domain/form"
)

// ErrChartingScope is returned when a charting listing names neither a session nor a student.
var ErrChartingScope = errors.New("session or student is required")

// ErrTemplateRequired is returned when an export does not name a template.
var ErrTemplateRequired = errors.New("template is required")

// GetChartingQuery selects charting entries by session or by student.
type GetChartingQuery struct {
	Actor      authz.Actor
	SessionID  string
	StudentID  string
	TemplateID string
}

// GetChartingDeps holds dependencies for the charting projections.
type GetChartingDeps struct {
	ChartingStore ChartingStore
	SessionStore  SessionStore
	TemplateStore TemplateStore
	AccountStore  AccountLookup
}

// QueryGetCharting lists charting entries the actor may read.
// POST: a TemplateID narrows the result to entries of that template
func QueryGetCharting(ctx context.Context, query GetChartingQuery, deps GetChartingDeps) ([]charting.Entry, error) {
	var (
		entries []charting.Entry
		err     error
	)
	switch {
	case query.SessionID != "":
		if _, err := QueryGetSession(ctx, query.Actor, query.SessionID, GetSessionsDeps{SessionStore: deps.SessionStore, AccountStore: deps.AccountStore}); err != nil {
			return nil, err
		}
		entries, err = deps.ChartingStore.ListBySession(ctx, query.SessionID)
	case query.StudentID != "" || query.Actor.IsStudent():
		studentID := query.StudentID
		if query.Actor.IsStudent() {
			studentID = query.Actor.ID
		}
		if err := checkView(ctx, query.Actor, studentID, deps.AccountStore); err != nil {
			return nil, err
		}
		entries, err = deps.ChartingStore.ListByStudent(ctx, studentID)
	default:
		return nil, authz.Invalid(ErrChartingScope)
	}
	if err != nil {
		return nil, fmt.Errorf("list charting entries: %w", err)
	}

	out := make([]charting.Entry, 0, len(entries))
	for _, e := range entries {
		if query.TemplateID == "" || e.TemplateID == query.TemplateID {
			out = append(out, e)
		}
	}
	return out, nil
}

// QueryGetChartingEntry returns one entry the actor may read.
func QueryGetChartingEntry(ctx context.Context, actor authz.Actor, id string, deps GetChartingDeps) (charting.Entry, error) {
	e, err := deps.ChartingStore.GetByID(ctx, id)
	if err != nil {
		return charting.Entry{}, fmt.Errorf("load charting entry: %w", err)
	}
	if err := checkView(ctx, actor, e.StudentID, deps.AccountStore); err != nil {
		return charting.Entry{}, err
	}
	return e, nil
}

// SectionSummary is the completion of one template section.
type SectionSummary struct {
	SectionID string `json:"sectionId"`
	Title     string `json:"title"`
	Instances int    `json:"instances"`
	Percent   int    `json:"percent"`
}

// ChartingSummary reports how complete a charting entry is.
type ChartingSummary struct {
	EntryID    string           `json:"entryId"`
	TemplateID string           `json:"templateId"`
	Status     string           `json:"status"`
	Sections   []SectionSummary `json:"sections"`
	Overall    int              `json:"overall"`
}

// QueryGetChartingSummary computes per-section and overall completion.
// INVARIANT: sections follow template order
func QueryGetChartingSummary(ctx context.Context, actor authz.Actor, id string, deps GetChartingDeps) (ChartingSummary, error) {
	e, err := QueryGetChartingEntry(ctx, actor, id, deps)
	if err != nil {
		return ChartingSummary{}, err
	}
	t, err := deps.TemplateStore.GetByID(ctx, e.TemplateID)
	if err != nil {
		return ChartingSummary{}, fmt.Errorf("load template: %w", err)
	}

	progress := form.Completion(t, e.Responses)
	summary := ChartingSummary{
		EntryID:    e.ID,
		TemplateID: t.ID,
		Status:     e.Status,
		Sections:   make([]SectionSummary, 0, len(t.Sections)),
		Overall:    progress.Overall,
	}
	for _, s := range t.Sections {
		summary.Sections = append(summary.Sections, SectionSummary{
			SectionID: s.ID,
			Title:     s.Title,
			Instances: len(e.Responses[s.ID].Instances()),
			Percent:   progress.Sections[s.ID],
		})
	}
	return summary, nil
}

// ChartingExport is everything needed to write a charting workbook.
type ChartingExport struct {
	Template form.Template
	Rows     []export.Row
}

// QueryGetChartingExport collects the entries of one template for export.
// PRE: TemplateID is set and SessionID or StudentID scopes the entries
// POST: rows carry student and session labels in listing order
func QueryGetChartingExport(ctx context.Context, query GetChartingQuery, deps GetChartingDeps) (ChartingExport, error) {
	if query.TemplateID == "" {
		return ChartingExport{}, authz.Invalid(ErrTemplateRequired)
	}
	t, err := deps.TemplateStore.GetByID(ctx, query.TemplateID)
	if err != nil {
		return ChartingExport{}, fmt.Errorf("load template: %w", err)
	}
	entries, err := QueryGetCharting(ctx, query, deps)
	if err != nil {
		return ChartingExport{}, err
	}

	names := make(map[string]string)
	rows := make([]export.Row, 0, len(entries))
	for _, e := range entries {
		row := export.Row{EntryID: e.ID, Status: e.Status, Responses: e.Responses}
		if s, err := deps.SessionStore.GetByID(ctx, e.SessionID); err == nil {
			row.Session = s.Title
			row.ScheduledAt = s.ScheduledAt
		}
		name, ok := names[e.StudentID]
		if !ok {
			if a, err := deps.AccountStore.GetByID(ctx, e.StudentID); err == nil {
				name = a.Name()
			}
			names[e.StudentID] = name
		}
		row.Student = name
		rows = append(rows, row)
	}
	return ChartingExport{Template: t, Rows: rows}, nil
}
