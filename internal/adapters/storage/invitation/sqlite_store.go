package invitation

import (
	"context"
	"database/sql"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/invitation"
)

const columns = `id, email, invited_by, status, expires_at, created_at, accepted_at, accepted_user_id, resends`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new invitation store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Invitation by its ID.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM invitation WHERE id = ?`, id)
	inv, err := scanInvitation(row.Scan)
	return inv, storage.NotFound("invitation", err)
}

// Save persists an Invitation (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, inv domain.Invitation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invitation (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, expires_at=excluded.expires_at,
		   accepted_at=excluded.accepted_at, accepted_user_id=excluded.accepted_user_id,
		   resends=excluded.resends`,
		inv.ID, inv.Email, inv.InvitedBy, inv.Status, storage.FormatTime(inv.ExpiresAt),
		storage.FormatTime(inv.CreatedAt), storage.NullTime(inv.AcceptedAt),
		storage.NullString(inv.AcceptedUserID), inv.Resends)
	return err
}

// List returns invitations newest first, optionally filtered by status.
func (s *SQLiteStore) List(ctx context.Context, status string) ([]domain.Invitation, error) {
	query := `SELECT ` + columns + ` FROM invitation`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return s.query(ctx, query, args...)
}

// ListPendingByEmail returns pending invitations for email.
func (s *SQLiteStore) ListPendingByEmail(ctx context.Context, email string) ([]domain.Invitation, error) {
	return s.query(ctx,
		`SELECT `+columns+` FROM invitation WHERE email = ? AND status = ? ORDER BY created_at DESC`,
		email, domain.StatusPending)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvitation(scan storage.Scanner) (domain.Invitation, error) {
	var inv domain.Invitation
	var expiresAt, createdAt string
	var acceptedAt, acceptedUser sql.NullString
	err := scan(&inv.ID, &inv.Email, &inv.InvitedBy, &inv.Status, &expiresAt, &createdAt,
		&acceptedAt, &acceptedUser, &inv.Resends)
	if err != nil {
		return domain.Invitation{}, err
	}
	inv.ExpiresAt, _ = storage.ParseTime(expiresAt)
	inv.CreatedAt, _ = storage.ParseTime(createdAt)
	inv.AcceptedAt = storage.ParseNullTime(acceptedAt)
	inv.AcceptedUserID = acceptedUser.String
	return inv, nil
}
