package web

import (
	"net/http"

	"skillcoach/internal/adapters/http/middleware"
	"skillcoach/internal/domain/account"
)

// guard wraps h in a role check and blocks accounts that must change their
// password from everything but the password and session endpoints.
func guard(roles ...string) func(http.HandlerFunc) http.Handler {
	check := middleware.RequireAuth
	if len(roles) > 0 {
		check = middleware.RequireRole(roles...)
	}
	return func(h http.HandlerFunc) http.Handler {
		return check(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, _ := middleware.GetSessionFromContext(r.Context()); sess.PasswordChangeRequired {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "password change required"})
				return
			}
			h(w, r)
		}))
	}
}

func registerRoutes(mux *http.ServeMux) {
	anyone := guard()
	staff := guard(account.RoleAdmin, account.RoleCoach)
	admin := guard(account.RoleAdmin)
	student := guard(account.RoleStudent)

	// Sessions and pages
	mux.HandleFunc("GET /login", handleLoginPage)
	mux.HandleFunc("POST /login", handleLoginForm)
	mux.HandleFunc("POST /logout", handleLogout)
	mux.HandleFunc("POST /api/login", handleAPILogin)
	mux.HandleFunc("GET /invite", handleInvitePage)
	mux.HandleFunc("POST /invite", handleInviteForm)

	// Accounts
	mux.Handle("GET /api/me", middleware.RequireAuth(http.HandlerFunc(handleMe)))
	mux.Handle("POST /api/me/password", middleware.RequireAuth(http.HandlerFunc(handleChangePassword)))
	mux.Handle("GET /api/users", staff(handleUserList))
	mux.Handle("POST /api/users", staff(handleUserCreate))
	mux.Handle("POST /api/users/role", admin(handleUserRole))
	mux.Handle("POST /api/users/status", admin(handleUserStatus))
	mux.Handle("POST /api/users/coach", admin(handleUserCoach))

	// Invitations
	mux.Handle("GET /api/invitations", admin(handleInvitationList))
	mux.Handle("POST /api/invitations", admin(handleInvitationCreate))
	mux.Handle("POST /api/invitations/revoke", admin(handleInvitationRevoke))
	mux.Handle("POST /api/invitations/resend", admin(handleInvitationResend))
	mux.HandleFunc("POST /api/invitations/accept", handleInvitationAccept)

	// Quizzes
	mux.Handle("GET /api/sports", anyone(handleSportList))
	mux.Handle("GET /api/quizzes", anyone(handleQuizGet))
	mux.Handle("POST /api/quizzes", staff(handleQuizCreate))
	mux.Handle("PUT /api/quizzes", staff(handleQuizUpdate))
	mux.Handle("DELETE /api/quizzes", staff(handleQuizDelete))
	mux.Handle("POST /api/quizzes/publish", staff(handleQuizPublish))
	mux.Handle("GET /api/quiz-attempts", anyone(handleAttemptList))
	mux.Handle("POST /api/quiz-attempts", student(handleAttemptSubmit))

	// Curricula
	mux.Handle("GET /api/curricula", anyone(handleCurriculumList))
	mux.Handle("POST /api/curricula", staff(handleCurriculumCreate))
	mux.Handle("DELETE /api/curricula", staff(handleCurriculumDelete))
	mux.Handle("POST /api/curricula/items", staff(handleItemAdd))
	mux.Handle("POST /api/curricula/items/remove", staff(handleItemRemove))
	mux.Handle("POST /api/curricula/items/reorder", staff(handleItemReorder))
	mux.Handle("POST /api/curricula/items/complete", anyone(handleItemComplete))
	mux.Handle("POST /api/curricula/items/reopen", anyone(handleItemReopen))
	mux.Handle("GET /api/curricula/progress", anyone(handleCurriculumProgress))

	// Sessions, templates, charting
	mux.Handle("GET /api/sessions", anyone(handleSessionGet))
	mux.Handle("POST /api/sessions", staff(handleSessionCreate))
	mux.Handle("PUT /api/sessions", staff(handleSessionUpdate))
	mux.Handle("POST /api/sessions/complete", staff(handleSessionComplete))
	mux.Handle("POST /api/sessions/cancel", staff(handleSessionCancel))
	mux.Handle("GET /api/form-templates", anyone(handleTemplateGet))
	mux.Handle("POST /api/form-templates", staff(handleTemplateCreate))
	mux.Handle("PUT /api/form-templates", staff(handleTemplateUpdate))
	mux.Handle("GET /api/charting", anyone(handleChartingGet))
	mux.Handle("POST /api/charting", anyone(handleChartingStart))
	mux.Handle("PUT /api/charting", anyone(handleChartingSave))
	mux.Handle("POST /api/charting/repeat", anyone(handleChartingAddRepeat))
	mux.Handle("POST /api/charting/repeat/remove", anyone(handleChartingRemoveRepeat))
	mux.Handle("POST /api/charting/submit", anyone(handleChartingSubmit))
	mux.Handle("GET /api/charting/summary", anyone(handleChartingSummary))
	mux.Handle("GET /api/charting/export", anyone(handleChartingExport))

	// Messages
	mux.Handle("GET /api/messages", anyone(handleMessageList))
	mux.Handle("POST /api/messages", anyone(handleMessageSend))
	mux.Handle("DELETE /api/messages", anyone(handleMessageDelete))
	mux.Handle("POST /api/messages/read", anyone(handleMessageRead))
	mux.Handle("GET /api/messages/unread", anyone(handleMessageUnread))

	// Admin
	mux.Handle("GET /api/admin/perf", admin(handleAdminPerf))
	mux.Handle("GET /api/admin/outbox", admin(handleAdminOutbox))
	mux.Handle("POST /api/admin/outbox/retry", admin(handleAdminOutboxRetry))
	mux.Handle("POST /api/admin/outbox/abandon", admin(handleAdminOutboxAbandon))

	mux.HandleFunc("GET /{$}", handleRoot)
}
