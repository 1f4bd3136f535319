package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is wrapped by every store lookup that matches no row.
var ErrNotFound = errors.New("not found")

// TimeLayout is the on-disk format for all timestamps.
const TimeLayout = time.RFC3339Nano

// Scanner is satisfied by (*sql.Row).Scan and (*sql.Rows).Scan.
type Scanner func(dest ...any) error

// NotFound converts sql.ErrNoRows into an ErrNotFound naming the document kind.
func NotFound(kind string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %w", kind, ErrNotFound)
	}
	return err
}

// FormatTime renders t in UTC for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NullTime stores the zero time as NULL.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// NullString stores the empty string as NULL.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ParseTime accepts the formats written by this and earlier schema versions.
func ParseTime(s string) (time.Time, error) {
	for _, f := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %q", s)
}

// ParseNullTime returns the zero time for NULL or empty columns.
func ParseNullTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, _ := ParseTime(ns.String)
	return t
}

// EncodeJSON marshals a nested document part for a TEXT column.
func EncodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeJSON unmarshals a TEXT column into v.
func DecodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

// BoolInt stores booleans as 0/1.
func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
