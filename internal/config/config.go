// Package config reads server settings from SKILLCOACH_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "SKILLCOACH_"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Errors returned by Load.
var (
	ErrMissingCSRFKey      = errors.New("SKILLCOACH_CSRF_KEY must be set in production")
	ErrShortCSRFKey        = errors.New("SKILLCOACH_CSRF_KEY must be at least 32 bytes")
	ErrMissingInviteSecret = errors.New("SKILLCOACH_INVITE_SECRET must be set in production")
)

// Config holds every runtime setting.
type Config struct {
	Env           string
	Addr          string
	DBPath        string
	AdminEmail    string
	AdminPassword string
	CSRFKey       []byte
	InviteSecret  []byte
	ResendKey     string
	MailFrom      string
	ReplyTo       string
	BaseURL       string
	CatalogDir    string
	LogLevel      slog.Level

	SlowQuery      time.Duration
	SlowRequest    time.Duration
	OutboxInterval time.Duration
}

// IsProduction reports whether the server runs with production safeguards.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables already set, then builds a Config from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup for SKILLCOACH_* variables.
// POST: production configs carry a CSRF key and invitation secret
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(name, def string) string {
		if v, ok := lookup(prefix + name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	c := Config{
		Env:           get("ENV", EnvDevelopment),
		Addr:          get("ADDR", ":8080"),
		DBPath:        get("DB_PATH", "skillcoach.db"),
		AdminEmail:    get("ADMIN_EMAIL", "admin@skillcoach.local"),
		AdminPassword: get("ADMIN_PASSWORD", "change-me-please"),
		CSRFKey:       []byte(get("CSRF_KEY", "")),
		InviteSecret:  []byte(get("INVITE_SECRET", "")),
		ResendKey:     get("RESEND_KEY", ""),
		MailFrom:      get("MAIL_FROM", "Skill Coach <noreply@skillcoach.local>"),
		ReplyTo:       get("REPLY_TO", ""),
		BaseURL:       strings.TrimRight(get("BASE_URL", "http://localhost:8080"), "/"),
		CatalogDir:    get("CATALOG_DIR", ""),
	}

	if err := c.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("SKILLCOACH_LOG_LEVEL: %w", err)
	}
	var err error
	if c.SlowQuery, err = millis(get("SLOW_QUERY_MS", "50")); err != nil {
		return Config{}, fmt.Errorf("SKILLCOACH_SLOW_QUERY_MS: %w", err)
	}
	if c.SlowRequest, err = millis(get("SLOW_REQUEST_MS", "500")); err != nil {
		return Config{}, fmt.Errorf("SKILLCOACH_SLOW_REQUEST_MS: %w", err)
	}
	if c.OutboxInterval, err = time.ParseDuration(get("OUTBOX_INTERVAL", "1m")); err != nil || c.OutboxInterval <= 0 {
		return Config{}, fmt.Errorf("SKILLCOACH_OUTBOX_INTERVAL: invalid duration %q", get("OUTBOX_INTERVAL", ""))
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return Config{}, fmt.Errorf("SKILLCOACH_BASE_URL: %w", err)
	}

	if c.IsProduction() {
		if len(c.CSRFKey) == 0 {
			return Config{}, ErrMissingCSRFKey
		}
		if len(c.InviteSecret) == 0 {
			return Config{}, ErrMissingInviteSecret
		}
	}
	if len(c.CSRFKey) > 0 && len(c.CSRFKey) < 32 {
		return Config{}, ErrShortCSRFKey
	}
	if len(c.CSRFKey) == 0 {
		c.CSRFKey = []byte("skillcoach-dev-csrf-key-32-bytes")
	}
	if len(c.InviteSecret) == 0 {
		c.InviteSecret = []byte("skillcoach-dev-invite-secret")
	}
	return c, nil
}

func millis(s string) (time.Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid milliseconds %q", s)
	}
	return time.Duration(n) * time.Millisecond, nil
}
