package account

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/account"
)

const columns = `id, email, display_name, password_hash, role, status, coach_id, created_at,
	failed_logins, locked_until, password_change_required`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM account WHERE id = ?`, id)
	a, err := scanAccount(row.Scan)
	return a, storage.NotFound("account", err)
}

// GetByEmail retrieves an Account by normalised email.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM account WHERE email = ?`, domain.NormalizeEmail(email))
	a, err := scanAccount(row.Scan)
	return a, storage.NotFound("account", err)
}

// Save persists an Account (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email=excluded.email, display_name=excluded.display_name,
		   password_hash=excluded.password_hash, role=excluded.role, status=excluded.status,
		   coach_id=excluded.coach_id, failed_logins=excluded.failed_logins,
		   locked_until=excluded.locked_until,
		   password_change_required=excluded.password_change_required`,
		a.ID, domain.NormalizeEmail(a.Email), a.DisplayName, a.PasswordHash, a.Role, a.Status,
		storage.NullString(a.CoachID), storage.FormatTime(a.CreatedAt), a.FailedLogins,
		storage.NullTime(a.LockedUntil), storage.BoolInt(a.PasswordChangeRequired))
	return err
}

// Delete removes an Account.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account WHERE id = ?`, id)
	return err
}

// List retrieves Accounts matching the filter.
// POST: Returns at most filter.Limit rows when Limit > 0
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	where, args := filter.where()
	query := `SELECT ` + columns + ` FROM account` + where + filter.orderBy()
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns how many Accounts match the filter, ignoring paging.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filter.where()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM account`+where, args...).Scan(&n)
	return n, err
}

func (f ListFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, f.Role)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.CoachID != "" {
		conds = append(conds, "coach_id = ?")
		args = append(args, f.CoachID)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		conds = append(conds, "(email LIKE ? OR display_name LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f ListFilter) orderBy() string {
	col := "created_at"
	if slices.Contains(SortColumns, f.Sort) {
		col = f.Sort
	}
	dir := "ASC"
	if f.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", id ASC"
}

func scanAccount(scan storage.Scanner) (domain.Account, error) {
	var a domain.Account
	var coachID, lockedUntil sql.NullString
	var createdAt string
	var mustChange int
	err := scan(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.Role, &a.Status,
		&coachID, &createdAt, &a.FailedLogins, &lockedUntil, &mustChange)
	if err != nil {
		return domain.Account{}, err
	}
	a.CoachID = coachID.String
	a.CreatedAt, _ = storage.ParseTime(createdAt)
	a.LockedUntil = storage.ParseNullTime(lockedUntil)
	a.PasswordChangeRequired = mustChange == 1
	return a, nil
}
