package message

import (
	"context"
	"database/sql"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/message"
)

const columns = `id, sender_id, receiver_id, subject, content, read_at, created_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new message store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Message by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Message, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM message WHERE id = ?`, id)
	m, err := scanMessage(row.Scan)
	return m, storage.NotFound("message", err)
}

// Save persists a Message. Only read_at changes after the first insert.
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, m domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET read_at=excluded.read_at`,
		m.ID, m.SenderID, m.ReceiverID, storage.NullString(m.Subject), m.Content,
		storage.NullTime(m.ReadAt), storage.FormatTime(m.CreatedAt))
	return err
}

// Delete removes a Message.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM message WHERE id = ?`, id)
	return err
}

// ListByReceiverID retrieves Messages for a receiver, newest first.
func (s *SQLiteStore) ListByReceiverID(ctx context.Context, receiverID string) ([]domain.Message, error) {
	return s.query(ctx,
		`SELECT `+columns+` FROM message WHERE receiver_id = ? ORDER BY created_at DESC, id`, receiverID)
}

// ListBySenderID retrieves Messages sent by senderID, newest first.
func (s *SQLiteStore) ListBySenderID(ctx context.Context, senderID string) ([]domain.Message, error) {
	return s.query(ctx,
		`SELECT `+columns+` FROM message WHERE sender_id = ? ORDER BY created_at DESC, id`, senderID)
}

// CountUnread counts unread messages for a receiver.
func (s *SQLiteStore) CountUnread(ctx context.Context, receiverID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM message WHERE receiver_id = ? AND read_at IS NULL`, receiverID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMessage(scan storage.Scanner) (domain.Message, error) {
	var m domain.Message
	var subject, readAt sql.NullString
	var createdAt string
	if err := scan(&m.ID, &m.SenderID, &m.ReceiverID, &subject, &m.Content, &readAt, &createdAt); err != nil {
		return domain.Message{}, err
	}
	m.Subject = subject.String
	m.ReadAt = storage.ParseNullTime(readAt)
	m.CreatedAt, _ = storage.ParseTime(createdAt)
	return m, nil
}
