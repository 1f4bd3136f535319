package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step. Index i holds version i+1.
type migration func(ctx context.Context, tx *sql.Tx) error

var migrations = []migration{
	migrateBaseline,
	migrateIndexes,
	migrateTemplateOwner,
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return len(migrations)
}

// SchemaVersion returns the applied schema version, 0 for an untracked database.
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies pending migrations, each in its own transaction.
// A file-backed database that already holds data is snapshotted with
// VACUUM INTO before the first pending step runs.
// PRE: db is a valid connection; path is the file behind it or ":memory:"
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, path string) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && path != "" && path != ":memory:" {
		backup := fmt.Sprintf("%s.v%d.bak", path, current)
		if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, backup); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
		slog.Info("schema_event", "event", "backup_written", "path", backup, "version", current)
	}

	for v := current + 1; v <= LatestSchemaVersion(); v++ {
		if err := apply(ctx, db, v); err != nil {
			return err
		}
		slog.Info("schema_event", "event", "migration_applied", "version", v)
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, version int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migrations[version-1](ctx, tx); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("record migration %d: %w", version, err)
	}
	return tx.Commit()
}

// migrateBaseline creates one table per document kind. Nested document
// parts (questions, skills, sections, items, responses) are JSON columns.
func migrateBaseline(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		coach_id TEXT,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		password_change_required INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sport (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		skills TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS invitation (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		invited_by TEXT NOT NULL,
		status TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		accepted_at TEXT,
		accepted_user_id TEXT,
		resends INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS quiz (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		video_url TEXT,
		sport_id TEXT NOT NULL,
		skill_id TEXT NOT NULL,
		questions TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_attempt (
		id TEXT PRIMARY KEY,
		quiz_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		answers TEXT NOT NULL,
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		submitted_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS message (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		subject TEXT,
		content TEXT NOT NULL,
		read_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS coaching_session (
		id TEXT PRIMARY KEY,
		coach_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		sport_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		scheduled_at TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS form_template (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		sport_id TEXT,
		sections TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS charting_entry (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		template_id TEXT NOT NULL,
		responses TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		submitted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS curriculum (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		coach_id TEXT NOT NULL,
		sport_id TEXT NOT NULL,
		title TEXT NOT NULL,
		items TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	`)
	return err
}

// migrateIndexes adds the lookup indexes used by list queries.
func migrateIndexes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE INDEX IF NOT EXISTS idx_account_coach ON account(coach_id);
	CREATE INDEX IF NOT EXISTS idx_invitation_email ON invitation(email, status);
	CREATE INDEX IF NOT EXISTS idx_quiz_sport_skill ON quiz(sport_id, skill_id);
	CREATE INDEX IF NOT EXISTS idx_attempt_student ON quiz_attempt(student_id, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_attempt_quiz ON quiz_attempt(quiz_id);
	CREATE INDEX IF NOT EXISTS idx_message_receiver ON message(receiver_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_message_sender ON message(sender_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_session_coach ON coaching_session(coach_id, scheduled_at);
	CREATE INDEX IF NOT EXISTS idx_session_student ON coaching_session(student_id, scheduled_at);
	CREATE INDEX IF NOT EXISTS idx_charting_session ON charting_entry(session_id);
	CREATE INDEX IF NOT EXISTS idx_curriculum_student ON curriculum(student_id);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);
	`)
	return err
}

// migrateTemplateOwner records who created a form template. Seeded templates
// keep an empty owner and are editable by admins only.
func migrateTemplateOwner(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `ALTER TABLE form_template ADD COLUMN created_by TEXT NOT NULL DEFAULT ''`)
	return err
}
