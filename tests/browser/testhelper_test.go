package browser_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
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
	"skillcoach/internal/application/authz"
	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/outbox"
)

const (
	adminEmail    = "admin@test.com"
	adminPassword = "TestPass123!"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	Stores  *web.Stores
	Sender  *email.NoopSender
	Tokens  *token.Signer
	AdminID string
	Browser playwright.Browser
}

// newTestApp starts a fully wired server on a temp SQLite file and a
// headless Chromium.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		t.Fatalf("open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("migrate test DB: %v", err)
	}

	collector := perf.NewCollector(0)
	tdb := storage.NewTimedDB(db, collector, time.Second)
	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(tdb),
		InvitationStore: invitationStore.NewSQLiteStore(tdb),
		SportStore:      sportStore.NewSQLiteStore(tdb),
		QuizStore:       quizStore.NewSQLiteStore(tdb),
		CurriculumStore: curriculumStore.NewSQLiteStore(tdb),
		SessionStore:    sessionStore.NewSQLiteStore(tdb),
		TemplateStore:   templateStore.NewSQLiteStore(tdb),
		ChartingStore:   chartingStore.NewSQLiteStore(tdb),
		MessageStore:    messageStore.NewSQLiteStore(tdb),
		OutboxStore:     outboxStore.NewSQLiteStore(tdb),
	}

	// Admin without a forced password change so login lands on the home page.
	admin, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
		Actor:    authz.Actor{Role: account.RoleAdmin},
		Email:    adminEmail,
		Password: adminPassword,
		Role:     account.RoleAdmin,
	}, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, GenerateID: uuid.NewString, Now: time.Now})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	if err := orchestrators.ExecuteSeedCatalog(ctx, cat, orchestrators.SeedCatalogDeps{
		SportStore: stores.SportStore, TemplateStore: stores.TemplateStore, Now: time.Now,
	}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	baseURL := "http://" + listener.Addr().String()

	sender := email.NewNoopSender()
	signer := token.NewSigner([]byte("browser-test-invite-secret"), nil)
	srvCtx, cancel := context.WithCancel(ctx)
	handler := web.NewMux(srvCtx, web.Options{
		CSRFKey:        []byte("browser-test-csrf-key-32-bytes!!"),
		TrustedOrigins: []string{listener.Addr().String()},
	}, stores, web.Services{
		Sender: sender,
		Tokens: signer,
		Outbox: orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
			outbox.ActionTypeEmail: orchestrators.EmailExecutor{Sender: sender},
		}, time.Now),
		BaseURL: baseURL,
	}, collector)
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("test server: %v", err)
		}
	}()

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		t.Fatalf("launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		cancel()
	})

	return &testApp{
		BaseURL: baseURL,
		Stores:  stores,
		Sender:  sender,
		Tokens:  signer,
		AdminID: admin.ID,
		Browser: browser,
	}
}

// newPage opens a tab in a fresh browser context so cookies are not shared.
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	bc, err := a.Browser.NewContext()
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	t.Cleanup(func() { bc.Close() })
	page, err := bc.NewPage()
	if err != nil {
		t.Fatalf("new page: %v", err)
	}
	return page
}

// fill sets each named input, keyed by its name attribute.
func fill(t *testing.T, page playwright.Page, fields map[string]string) {
	t.Helper()
	for name, value := range fields {
		if err := page.Locator(fmt.Sprintf("input[name=%s]", name)).Fill(value); err != nil {
			t.Fatalf("fill %s: %v", name, err)
		}
	}
}

// submit clicks the page's submit button and waits for url.
func submit(t *testing.T, page playwright.Page, url string) {
	t.Helper()
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("click submit: %v", err)
	}
	if err := page.WaitForURL(url, playwright.PageWaitForURLOptions{Timeout: playwright.Float(10000)}); err != nil {
		t.Fatalf("did not reach %s: %v", url, err)
	}
}

// login signs in through the HTML form and waits for the home page.
func (a *testApp) login(t *testing.T, page playwright.Page, email, password string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("goto login: %v", err)
	}
	fill(t, page, map[string]string{"Email": email, "Password": password})
	submit(t, page, a.BaseURL+"/")
}

// text returns the inner text of the first element matching selector.
func text(t *testing.T, page playwright.Page, selector string) string {
	t.Helper()
	s, err := page.Locator(selector).First().InnerText()
	if err != nil {
		t.Fatalf("read %s: %v", selector, err)
	}
	return s
}
