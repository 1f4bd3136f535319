package formtemplate

import (
	"context"
	"database/sql"
	"fmt"

	"skillcoach/internal/adapters/storage"
	"skillcoach/internal/domain/form"
)

const columns = `id, name, description, sport_id, sections, active, created_by, created_at, updated_at`

// SQLiteStore implements Store using SQLite. Sections are a JSON column.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new form template store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Template by its ID.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (form.Template, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM form_template WHERE id = ?`, id)
	t, err := scanTemplate(row.Scan)
	return t, storage.NotFound("form template", err)
}

// Save persists a Template (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, t form.Template) error {
	sections, err := storage.EncodeJSON(t.Sections)
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO form_template (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, description=excluded.description, sport_id=excluded.sport_id,
		   sections=excluded.sections, active=excluded.active, updated_at=excluded.updated_at`,
		t.ID, t.Name, t.Description, storage.NullString(t.SportID), sections,
		storage.BoolInt(t.Active), t.CreatedBy, storage.FormatTime(t.CreatedAt), storage.FormatTime(t.UpdatedAt))
	return err
}

// List returns templates ordered by name.
func (s *SQLiteStore) List(ctx context.Context, sportID string, activeOnly bool) ([]form.Template, error) {
	query := `SELECT ` + columns + ` FROM form_template WHERE 1=1`
	var args []any
	if sportID != "" {
		query += ` AND (sport_id = ? OR sport_id IS NULL)`
		args = append(args, sportID)
	}
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []form.Template
	for rows.Next() {
		t, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTemplate(scan storage.Scanner) (form.Template, error) {
	var t form.Template
	var sportID sql.NullString
	var sections, createdAt, updatedAt string
	var active int
	err := scan(&t.ID, &t.Name, &t.Description, &sportID, &sections, &active, &t.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return form.Template{}, err
	}
	if err := storage.DecodeJSON(sections, &t.Sections); err != nil {
		return form.Template{}, fmt.Errorf("decode sections for %s: %w", t.ID, err)
	}
	t.SportID = sportID.String
	t.Active = active == 1
	t.CreatedAt, _ = storage.ParseTime(createdAt)
	t.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return t, nil
}
