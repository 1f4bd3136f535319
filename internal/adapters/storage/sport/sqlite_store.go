package sport

import (
	"context"
	"fmt"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/sport"
)

// SQLiteStore implements Store using SQLite. Skills are a JSON column.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new sport store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Sport by its ID.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Sport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, skills FROM sport WHERE id = ?`, id)
	sp, err := scanSport(row.Scan)
	return sp, storage.NotFound("sport", err)
}

// Save persists a Sport (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, sp domain.Sport) error {
	skills, err := storage.EncodeJSON(sp.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sport (id, name, skills) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, skills=excluded.skills`,
		sp.ID, sp.Name, skills)
	return err
}

// List returns every sport ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Sport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, skills FROM sport ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Sport
	for rows.Next() {
		sp, err := scanSport(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func scanSport(scan storage.Scanner) (domain.Sport, error) {
	var sp domain.Sport
	var skills string
	if err := scan(&sp.ID, &sp.Name, &skills); err != nil {
		return domain.Sport{}, err
	}
	if err := storage.DecodeJSON(skills, &sp.Skills); err != nil {
		return domain.Sport{}, fmt.Errorf("decode skills for %s: %w", sp.ID, err)
	}
	return sp, nil
}
