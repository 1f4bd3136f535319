package curriculum

import (
	"context"
	"fmt"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/curriculum"
)

const columns = `id, student_id, coach_id, sport_id, title, items, created_at, updated_at`

// SQLiteStore implements Store using SQLite. Items are a JSON column kept
// in position order.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new curriculum store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Curriculum by its ID.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Curriculum, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM curriculum WHERE id = ?`, id)
	c, err := scanCurriculum(row.Scan)
	return c, storage.NotFound("curriculum", err)
}

// Save persists a Curriculum (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, c domain.Curriculum) error {
	items, err := storage.EncodeJSON(c.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO curriculum (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   coach_id=excluded.coach_id, sport_id=excluded.sport_id, title=excluded.title,
		   items=excluded.items, updated_at=excluded.updated_at`,
		c.ID, c.StudentID, c.CoachID, c.SportID, c.Title, items,
		storage.FormatTime(c.CreatedAt), storage.FormatTime(c.UpdatedAt))
	return err
}

// Delete removes a Curriculum.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM curriculum WHERE id = ?`, id)
	return err
}

// ListByStudent returns a student's curricula, oldest first.
func (s *SQLiteStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Curriculum, error) {
	return s.query(ctx, `SELECT `+columns+` FROM curriculum WHERE student_id = ? ORDER BY created_at, id`, studentID)
}

// ListByCoach returns the curricula a coach manages, oldest first.
func (s *SQLiteStore) ListByCoach(ctx context.Context, coachID string) ([]domain.Curriculum, error) {
	return s.query(ctx, `SELECT `+columns+` FROM curriculum WHERE coach_id = ? ORDER BY created_at, id`, coachID)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Curriculum, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Curriculum
	for rows.Next() {
		c, err := scanCurriculum(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCurriculum(scan storage.Scanner) (domain.Curriculum, error) {
	var c domain.Curriculum
	var items, createdAt, updatedAt string
	if err := scan(&c.ID, &c.StudentID, &c.CoachID, &c.SportID, &c.Title, &items, &createdAt, &updatedAt); err != nil {
		return domain.Curriculum{}, err
	}
	if err := storage.DecodeJSON(items, &c.Items); err != nil {
		return domain.Curriculum{}, fmt.Errorf("decode items for %s: %w", c.ID, err)
	}
	c.CreatedAt, _ = storage.ParseTime(createdAt)
	c.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return c, nil
}
