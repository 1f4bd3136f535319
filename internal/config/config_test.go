package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv(lookupMap(nil))
	if err != nil {
		t.Fatal(err)
	}
	if c.Env != EnvDevelopment || c.Addr != ":8080" || c.DBPath != "skillcoach.db" {
		t.Errorf("defaults = %+v", c)
	}
	if c.SlowQuery != 50*time.Millisecond || c.OutboxInterval != time.Minute || c.LogLevel != slog.LevelInfo {
		t.Errorf("durations = %v %v %v", c.SlowQuery, c.OutboxInterval, c.LogLevel)
	}
	if len(c.CSRFKey) != 32 || len(c.InviteSecret) == 0 {
		t.Error("development secrets not filled in")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	c, err := FromEnv(lookupMap(map[string]string{
		"SKILLCOACH_ADDR":            "127.0.0.1:9000",
		"SKILLCOACH_LOG_LEVEL":       "debug",
		"SKILLCOACH_SLOW_REQUEST_MS": "250",
		"SKILLCOACH_OUTBOX_INTERVAL": "30s",
		"SKILLCOACH_BASE_URL":        "https://coach.example.com/",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if c.Addr != "127.0.0.1:9000" || c.LogLevel != slog.LevelDebug {
		t.Errorf("got %+v", c)
	}
	if c.SlowRequest != 250*time.Millisecond || c.OutboxInterval != 30*time.Second {
		t.Errorf("durations = %v %v", c.SlowRequest, c.OutboxInterval)
	}
	if c.BaseURL != "https://coach.example.com" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
}

func TestFromEnv_Errors(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"production without csrf", map[string]string{"SKILLCOACH_ENV": "production", "SKILLCOACH_INVITE_SECRET": "s"}, ErrMissingCSRFKey},
		{"production without invite secret", map[string]string{"SKILLCOACH_ENV": "production", "SKILLCOACH_CSRF_KEY": key}, ErrMissingInviteSecret},
		{"short csrf key", map[string]string{"SKILLCOACH_CSRF_KEY": "short"}, ErrShortCSRFKey},
		{"bad slow query", map[string]string{"SKILLCOACH_SLOW_QUERY_MS": "-1"}, nil},
		{"bad interval", map[string]string{"SKILLCOACH_OUTBOX_INTERVAL": "soon"}, nil},
		{"bad level", map[string]string{"SKILLCOACH_LOG_LEVEL": "loud"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookupMap(tt.env))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ReadsEnvFileWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	data := "SKILLCOACH_DB_PATH=from-file.db\nSKILLCOACH_ADDR=:7000\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKILLCOACH_ADDR", ":9999")
	t.Setenv("SKILLCOACH_DB_PATH", "")
	os.Unsetenv("SKILLCOACH_DB_PATH")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.DBPath != "from-file.db" {
		t.Errorf("DBPath = %q, want value from .env", c.DBPath)
	}
	if c.Addr != ":9999" {
		t.Errorf("Addr = %q, process env should win", c.Addr)
	}

	if _, err := Load(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}
