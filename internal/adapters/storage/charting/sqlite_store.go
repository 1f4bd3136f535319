package charting

import (
	"context"
	"database/sql"
	"fmt"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/charting"
)

const columns = `id, session_id, student_id, author_id, template_id, responses, status,
	created_at, updated_at, submitted_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new charting store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Entry by its ID.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM charting_entry WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	return e, storage.NotFound("charting entry", err)
}

// Save persists an Entry (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	responses, err := storage.EncodeJSON(e.Responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO charting_entry (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   responses=excluded.responses, status=excluded.status,
		   updated_at=excluded.updated_at, submitted_at=excluded.submitted_at`,
		e.ID, e.SessionID, e.StudentID, e.AuthorID, e.TemplateID, responses, e.Status,
		storage.FormatTime(e.CreatedAt), storage.FormatTime(e.UpdatedAt), storage.NullTime(e.SubmittedAt))
	return err
}

// ListBySession returns a session's entries, oldest first.
func (s *SQLiteStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	return s.query(ctx,
		`SELECT `+columns+` FROM charting_entry WHERE session_id = ? ORDER BY created_at, id`, sessionID)
}

// ListByStudent returns a student's entries, newest first.
func (s *SQLiteStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Entry, error) {
	return s.query(ctx,
		`SELECT `+columns+` FROM charting_entry WHERE student_id = ? ORDER BY created_at DESC, id`, studentID)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(scan storage.Scanner) (domain.Entry, error) {
	var e domain.Entry
	var responses, createdAt, updatedAt string
	var submittedAt sql.NullString
	err := scan(&e.ID, &e.SessionID, &e.StudentID, &e.AuthorID, &e.TemplateID, &responses, &e.Status,
		&createdAt, &updatedAt, &submittedAt)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := storage.DecodeJSON(responses, &e.Responses); err != nil {
		return domain.Entry{}, fmt.Errorf("decode responses for %s: %w", e.ID, err)
	}
	e.CreatedAt, _ = storage.ParseTime(createdAt)
	e.UpdatedAt, _ = storage.ParseTime(updatedAt)
	e.SubmittedAt = storage.ParseNullTime(submittedAt)
	return e, nil
}
