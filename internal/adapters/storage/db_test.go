package storage

import (
	"database/sql"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var expectedTables = []string{
	"account",
	"charting_entry",
	"coaching_session",
	"curriculum",
	"form_template",
	"invitation",
	"message",
	"outbox",
	"quiz",
	"quiz_attempt",
	"schema_version",
	"sport",
}

func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)

	if v, err := SchemaVersion(db); err != nil || v != 0 {
		t.Fatalf("SchemaVersion before migrate = %d, %v; want 0", v, err)
	}
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed on fresh db: %v", err)
	}
	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", v, LatestSchemaVersion())
	}
	if diff := cmp.Diff(expectedTables, tableNames(t, db)); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 2; i++ {
		if err := MigrateDB(db, ":memory:"); err != nil {
			t.Fatalf("MigrateDB run %d failed: %v", i+1, err)
		}
	}
	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != LatestSchemaVersion() {
		t.Errorf("schema_version rows = %d, want %d", rows, LatestSchemaVersion())
	}
}

// TestMigrateDB_PartialUpgrade simulates a database left at version 1 and
// checks data survives the remaining steps and a backup is written.
func TestMigrateDB_PartialUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	if err := MigrateDB(db, path); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM schema_version WHERE version > 1"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO account (id, email, role, created_at) VALUES ('a1', 'admin@club.test', 'admin', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	var email string
	if err := db.QueryRow("SELECT email FROM account WHERE id = 'a1'").Scan(&email); err != nil {
		t.Fatalf("data lost during upgrade: %v", err)
	}
	if email != "admin@club.test" {
		t.Errorf("email = %q", email)
	}

	backup, err := sql.Open("sqlite", path+".v1.bak")
	if err != nil {
		t.Fatal(err)
	}
	defer backup.Close()
	if err := backup.QueryRow("SELECT email FROM account WHERE id = 'a1'").Scan(&email); err != nil {
		t.Errorf("backup missing data: %v", err)
	}
}
