package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"skillcoach/internal/adapters/http/middleware"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/application/projections"
	"skillcoach/internal/domain/account"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"login.html":  parsePage("login.html"),
	"invite.html": parsePage("invite.html"),
	"home.html":   parsePage("home.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// renderPage executes a page into a buffer so a template failure still
// yields a clean 500.
func renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	data["CSRFField"] = csrf.TemplateField(r)
	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow}
}

// loginStatus maps a failed login onto a status code. ok is false for
// errors that are not about the credentials.
func loginStatus(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		return http.StatusUnauthorized, true
	case errors.Is(err, orchestrators.ErrAccountLocked):
		return http.StatusLocked, true
	case errors.Is(err, orchestrators.ErrAccountDisabled):
		return http.StatusForbidden, true
	}
	return 0, false
}

func startSession(w http.ResponseWriter, res orchestrators.LoginResult) error {
	token, err := sessions.Create(middleware.Session{
		AccountID:              res.AccountID,
		Email:                  res.Email,
		Role:                   res.Role,
		PasswordChangeRequired: res.PasswordChangeRequired,
	})
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token)
	return nil
}

// handleRoot shows who is signed in, or sends visitors to the login form.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	renderPage(w, r, http.StatusOK, "home.html", map[string]any{
		"Title":                  "SkillCoach",
		"Email":                  sess.Email,
		"Role":                   sess.Role,
		"PasswordChangeRequired": sess.PasswordChangeRequired,
	})
}

// handleLoginPage handles GET /login
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderPage(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Sign in"})
}

// handleLoginForm handles POST /login
func handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.LoginInput{
		Email:    r.FormValue("Email"),
		Password: r.FormValue("Password"),
	}
	res, err := orchestrators.ExecuteLogin(r.Context(), input, loginDeps())
	if err != nil {
		status, ok := loginStatus(err)
		if !ok {
			internalError(w, err)
			return
		}
		renderPage(w, r, status, "login.html", map[string]any{
			"Title": "Sign in",
			"Email": input.Email,
			"Error": err.Error(),
		})
		return
	}
	if err := startSession(w, res); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	Role                   string `json:"role"`
	PasswordChangeRequired bool   `json:"passwordChangeRequired"`
}

// handleAPILogin handles POST /api/login
func handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput(req), loginDeps())
	if err != nil {
		status, ok := loginStatus(err)
		if !ok {
			internalError(w, err)
			return
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}
	if err := startSession(w, res); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		ID:                     res.AccountID,
		Email:                  res.Email,
		Role:                   res.Role,
		PasswordChangeRequired: res.PasswordChangeRequired,
	})
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleMe handles GET /api/me
func handleMe(w http.ResponseWriter, r *http.Request) {
	me, err := projections.QueryGetMe(r.Context(), currentActor(r), projections.GetMeDeps{
		AccountStore: stores.AccountStore,
		MessageStore: stores.MessageStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// handleChangePassword handles POST /api/me/password
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	actor := currentActor(r)
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       actor.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore})
	if err != nil {
		writeError(w, err)
		return
	}
	refreshSessions(r, actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

// refreshSessions reloads an account into every live session so role,
// status, and password flags apply without a new login.
func refreshSessions(r *http.Request, accountID string) {
	a, err := stores.AccountStore.GetByID(r.Context(), accountID)
	if err != nil {
		slog.Warn("session_refresh_failed", "account_id", accountID, "error", err)
		return
	}
	if a.IsDisabled() {
		sessions.Refresh(accountID, nil)
		return
	}
	sessions.Refresh(accountID, &a)
}

func invitationDeps() orchestrators.InvitationDeps {
	return orchestrators.InvitationDeps{
		InvitationStore: stores.InvitationStore,
		AccountStore:    stores.AccountStore,
		Tokens:          services.Tokens,
		Email:           emailDelivery(),
		BaseURL:         services.BaseURL,
		GenerateID:      generateID,
		Now:             timeNow,
	}
}

// handleInvitePage handles GET /invite?token=
func handleInvitePage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	data := map[string]any{"Title": "Accept invitation"}
	claims, err := services.Tokens.Verify(raw)
	if err != nil {
		data["Error"] = err.Error()
		renderPage(w, r, http.StatusBadRequest, "invite.html", data)
		return
	}
	data["Token"] = raw
	data["Email"] = claims.Email
	renderPage(w, r, http.StatusOK, "invite.html", data)
}

// handleInviteForm handles POST /invite
func handleInviteForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.AcceptInvitationInput{
		Token:       r.FormValue("Token"),
		DisplayName: r.FormValue("DisplayName"),
		Password:    r.FormValue("Password"),
	}
	acct, err := orchestrators.ExecuteAcceptInvitation(r.Context(), input, invitationDeps())
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, authz.ErrConflict):
			status = http.StatusConflict
		case !errors.Is(err, authz.ErrInvalid):
			internalError(w, err)
			return
		}
		data := map[string]any{"Title": "Accept invitation", "Error": err.Error(), "DisplayName": input.DisplayName}
		if claims, verr := services.Tokens.Verify(input.Token); verr == nil {
			data["Token"] = input.Token
			data["Email"] = claims.Email
		}
		renderPage(w, r, status, "invite.html", data)
		return
	}
	if err := startSession(w, orchestrators.LoginResult{AccountID: acct.ID, Email: acct.Email, Role: account.RoleCoach}); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
