package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"skillcoach/internal/adapters/email"
	"skillcoach/internal/adapters/http/middleware"
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
	"skillcoach/internal/application/authz"
	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/domain/form"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	InvitationStore invitationStore.Store
	SportStore      sportStore.Store
	QuizStore       quizStore.Store
	CurriculumStore curriculumStore.Store
	SessionStore    sessionStore.Store
	TemplateStore   templateStore.Store
	ChartingStore   chartingStore.Store
	MessageStore    messageStore.Store
	OutboxStore     outboxStore.Store
}

// Services holds the collaborators that are not storage.
type Services struct {
	Sender  email.Sender
	Tokens  orchestrators.InvitationTokens
	Outbox  *orchestrators.OutboxProcessor
	BaseURL string
}

// Options configures the middleware stack.
type Options struct {
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
	SlowRequest    time.Duration
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global services (set by NewMux)
var services Services

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// NewMux wires HTTP handlers for the app. The rate limiter's sweeper runs
// until ctx is done.
func NewMux(ctx context.Context, opts Options, s *Stores, svc Services, collector *perf.Collector) http.Handler {
	stores = s
	services = svc
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.SecureCookies

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	go limiter.Run(ctx)

	// Outermost last: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequest),
	)
}

// emailDelivery sends through the configured sender, falling back to the outbox.
func emailDelivery() orchestrators.EmailDelivery {
	return orchestrators.EmailDelivery{
		Sender:      services.Sender,
		OutboxStore: stores.OutboxStore,
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

// currentActor returns the authenticated actor. Routes are wrapped in
// RequireAuth or RequireRole, so a missing session yields the zero Actor,
// which every orchestrator rejects.
func currentActor(r *http.Request) authz.Actor {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess.Actor()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_error", "error", err)
	}
}

// writeAttachment sends body as a file download. Headers are already sent when
// the copy fails, so the error is only logged.
func writeAttachment(w http.ResponseWriter, contentType, filename string, body io.WriterTo) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if n, err := body.WriteTo(w); err != nil {
		slog.Error("download_error", "file", filename, "written", n, "error", err)
	}
}

type errorBody struct {
	Error  string                `json:"error"`
	Fields form.ValidationErrors `json:"fields,omitempty"`
}

// writeError maps orchestrator and projection errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var fields form.ValidationErrors
	switch {
	case errors.As(err, &fields):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "form responses invalid", Fields: fields})
	case errors.Is(err, authz.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, authz.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, authz.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		internalError(w, err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decodeOr400 decodes the JSON body into v, answering 400 on failure.
func decodeOr400(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(r, v); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

// requireID reads the id query parameter, answering 400 when absent.
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		badRequest(w, "id is required")
		return "", false
	}
	return id, true
}
