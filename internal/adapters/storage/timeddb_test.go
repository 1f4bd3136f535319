package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"skillcoach/internal/adapters/http/perf"
)

func TestTimedDB_RecordsEveryCall(t *testing.T) {
	db := openTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, 0)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := tdb.ExecContext(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "serve", "flat"); err != nil {
		t.Fatal(err)
	}

	var v string
	if err := tdb.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", "serve").Scan(&v); err != nil {
		t.Fatal(err)
	}
	if v != "flat" {
		t.Errorf("v = %q, want flat", v)
	}

	rows, err := tdb.QueryContext(ctx, "SELECT k FROM kv")
	if err != nil {
		t.Fatal(err)
	}
	rows.Close()

	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	tx.Rollback()

	if got := collector.TotalRecorded(); got != 5 {
		t.Errorf("TotalRecorded = %d, want 5", got)
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if snap.TotalQueries != 5 || snap.TotalRequests != 0 {
		t.Errorf("snapshot totals = %+v", snap)
	}
}

func TestTimedDB_NilCollector(t *testing.T) {
	tdb := NewTimedDB(openTestDB(t), nil, time.Nanosecond)
	var n int
	if err := tdb.QueryRowContext(context.Background(), "SELECT 1").Scan(&n); err != nil || n != 1 {
		t.Fatalf("SELECT 1 = %d, %v", n, err)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("quiz", sql.ErrNoRows)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("NotFound(ErrNoRows) = %v, want ErrNotFound", err)
	}
	other := errors.New("disk I/O error")
	if NotFound("quiz", other) != other {
		t.Error("NotFound should pass through other errors")
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, in := range []string{FormatTime(want), "2026-01-02T03:04:05Z", "2026-01-02 03:04:05"} {
		got, err := ParseTime(in)
		if err != nil || !got.Equal(want) {
			t.Errorf("ParseTime(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("ParseTime should reject garbage")
	}
}
