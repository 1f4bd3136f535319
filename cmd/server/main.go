package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"skillcoach/internal/adapters/catalog"
	"skillcoach/internal/adapters/email"
	web "skillcoach/internal/adapters/http"
	"skillcoach/internal/adapters/http/perf"
	"skillcoach/internal/adapters/storage"
	accountStore "skillcoach/internal/adapters/storage/account"
	chartingStore "skillcoach/internal/adapters/storage/charting"
	curriculumStore "skillcoach/internal/adapters/storage/curriculum"
	templateStore "skillcoach/internal/adapters/storage/formtemplate"
	invitationStore "skillcoach/internal/adapters/storage/invitation"
	messageStore "skillcoach/internal/adapters/storage/message"
	outboxStore "skillcoach/internal/adapters/storage/outbox"
	quizStore "skillcoach/internal/adapters/storage/quiz"
	sessionStore "skillcoach/internal/adapters/storage/session"
	sportStore "skillcoach/internal/adapters/storage/sport"
	"skillcoach/internal/adapters/token"
	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/config"
	"skillcoach/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(ctx context.Context, cfg config.Config) error {
	// WAL mode, foreign keys, and a busy timeout for concurrent writers.
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)
	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(timedDB),
		InvitationStore: invitationStore.NewSQLiteStore(timedDB),
		SportStore:      sportStore.NewSQLiteStore(timedDB),
		QuizStore:       quizStore.NewSQLiteStore(timedDB),
		CurriculumStore: curriculumStore.NewSQLiteStore(timedDB),
		SessionStore:    sessionStore.NewSQLiteStore(timedDB),
		TemplateStore:   templateStore.NewSQLiteStore(timedDB),
		ChartingStore:   chartingStore.NewSQLiteStore(timedDB),
		MessageStore:    messageStore.NewSQLiteStore(timedDB),
		OutboxStore:     outboxStore.NewSQLiteStore(timedDB),
	}

	seedDeps := orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, GenerateID: uuid.NewString, Now: time.Now}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return err
	}
	if err := orchestrators.ExecuteSeedCatalog(ctx, cat, orchestrators.SeedCatalogDeps{
		SportStore:    stores.SportStore,
		TemplateStore: stores.TemplateStore,
		Now:           time.Now,
	}); err != nil {
		return err
	}

	var sender email.Sender = email.NewNoopSender()
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.MailFrom, cfg.ReplyTo)
		slog.Info("email_event", "event", "sender_configured", "provider", "resend")
	} else if cfg.IsProduction() {
		slog.Warn("email_event", "event", "sender_disabled", "reason", "SKILLCOACH_RESEND_KEY not set")
	}

	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: orchestrators.EmailExecutor{Sender: sender},
	}, time.Now)
	workerDone := orchestrators.StartOutboxWorker(ctx, processor, cfg.OutboxInterval)

	handler := web.NewMux(ctx, web.Options{
		CSRFKey:        cfg.CSRFKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: trustedOrigins(cfg.BaseURL),
		SlowRequest:    cfg.SlowRequest,
	}, stores, web.Services{
		Sender:  sender,
		Tokens:  token.NewSigner(cfg.InviteSecret, nil),
		Outbox:  processor,
		BaseURL: cfg.BaseURL,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "starting", "version", version, "addr", cfg.Addr,
			"env", cfg.Env, "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		// The server only stops on its own when listening fails.
		return err
	case <-ctx.Done():
		slog.Info("server_event", "event", "shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	<-workerDone
	return nil
}

// trustedOrigins lists the host of the public base URL for CSRF origin checks.
func trustedOrigins(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
