package session

import (
	"context"
	"strings"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/session"
)

const columns = `id, coach_id, student_id, sport_id, kind, title, scheduled_at, notes, status,
	created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Session by its ID.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM coaching_session WHERE id = ?`, id)
	sess, err := scanSession(row.Scan)
	return sess, storage.NotFound("session", err)
}

// Save persists a Session (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, sess domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO coaching_session (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   sport_id=excluded.sport_id, kind=excluded.kind, title=excluded.title,
		   scheduled_at=excluded.scheduled_at, notes=excluded.notes, status=excluded.status,
		   updated_at=excluded.updated_at`,
		sess.ID, sess.CoachID, sess.StudentID, sess.SportID, sess.Kind, sess.Title,
		storage.FormatTime(sess.ScheduledAt), sess.Notes, sess.Status,
		storage.FormatTime(sess.CreatedAt), storage.FormatTime(sess.UpdatedAt))
	return err
}

// List returns sessions matching the filter in schedule order.
// INVARIANT: scheduled_at is stored in UTC with a fixed layout, so string
// comparison orders chronologically.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Session, error) {
	var conds []string
	var args []any
	if filter.CoachID != "" {
		conds = append(conds, "coach_id = ?")
		args = append(args, filter.CoachID)
	}
	if filter.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "scheduled_at >= ?")
		args = append(args, storage.FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "scheduled_at < ?")
		args = append(args, storage.FormatTime(filter.To))
	}
	query := `SELECT ` + columns + ` FROM coaching_session`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY scheduled_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(scan storage.Scanner) (domain.Session, error) {
	var sess domain.Session
	var scheduledAt, createdAt, updatedAt string
	err := scan(&sess.ID, &sess.CoachID, &sess.StudentID, &sess.SportID, &sess.Kind, &sess.Title,
		&scheduledAt, &sess.Notes, &sess.Status, &createdAt, &updatedAt)
	if err != nil {
		return domain.Session{}, err
	}
	sess.ScheduledAt, _ = storage.ParseTime(scheduledAt)
	sess.CreatedAt, _ = storage.ParseTime(createdAt)
	sess.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return sess, nil
}
