package web

import (
	"net/http"

	accountStore "skillcoach/internal/adapters/storage/account"
	"skillcoach/internal/application/listutil"
	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/application/projections"
)

func manageDeps() orchestrators.ManageAccountDeps {
	return orchestrators.ManageAccountDeps{AccountStore: stores.AccountStore}
}

// handleUserList handles GET /api/users
// Query: page, per_page, sort, dir, q, role, status, coach
func handleUserList(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), accountStore.SortColumns, projections.UserFilterKeys)
	page, err := projections.QueryGetUsers(r.Context(), projections.GetUsersQuery{
		Actor:  currentActor(r),
		Params: params,
	}, projections.GetUsersDeps{AccountStore: stores.AccountStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type createUserRequest struct {
	Email                  string `json:"email"`
	Password               string `json:"password"`
	Role                   string `json:"role"`
	DisplayName            string `json:"displayName"`
	CoachID                string `json:"coachId"`
	PasswordChangeRequired bool   `json:"passwordChangeRequired"`
}

// handleUserCreate handles POST /api/users
func handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	acct, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Actor:                  currentActor(r),
		Email:                  req.Email,
		Password:               req.Password,
		Role:                   req.Role,
		DisplayName:            req.DisplayName,
		CoachID:                req.CoachID,
		PasswordChangeRequired: req.PasswordChangeRequired,
	}, orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

type accountChangeRequest struct {
	AccountID string `json:"accountId"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
	CoachID   string `json:"coachId,omitempty"`
}

// handleUserRole handles POST /api/users/role
func handleUserRole(w http.ResponseWriter, r *http.Request) {
	var req accountChangeRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	acct, err := orchestrators.ExecuteChangeRole(r.Context(), orchestrators.ChangeRoleInput{
		Actor:     currentActor(r),
		AccountID: req.AccountID,
		Role:      req.Role,
	}, manageDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	refreshSessions(r, acct.ID)
	writeJSON(w, http.StatusOK, acct)
}

// handleUserStatus handles POST /api/users/status. Disabling an account
// ends its sessions.
func handleUserStatus(w http.ResponseWriter, r *http.Request) {
	var req accountChangeRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	acct, err := orchestrators.ExecuteSetStatus(r.Context(), orchestrators.SetStatusInput{
		Actor:     currentActor(r),
		AccountID: req.AccountID,
		Status:    req.Status,
	}, manageDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	refreshSessions(r, acct.ID)
	writeJSON(w, http.StatusOK, acct)
}

// handleUserCoach handles POST /api/users/coach
func handleUserCoach(w http.ResponseWriter, r *http.Request) {
	var req accountChangeRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	acct, err := orchestrators.ExecuteAssignCoach(r.Context(), orchestrators.AssignCoachInput{
		Actor:     currentActor(r),
		StudentID: req.AccountID,
		CoachID:   req.CoachID,
	}, manageDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// handleInvitationList handles GET /api/invitations?status=
func handleInvitationList(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryGetInvitations(r.Context(), projections.GetInvitationsQuery{
		Actor:  currentActor(r),
		Status: r.URL.Query().Get("status"),
	}, projections.GetInvitationsDeps{InvitationStore: stores.InvitationStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type invitationRequest struct {
	Email string `json:"email,omitempty"`
	ID    string `json:"id,omitempty"`
}

// handleInvitationCreate handles POST /api/invitations
func handleInvitationCreate(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteCreateInvitation(r.Context(), orchestrators.CreateInvitationInput{
		Actor: currentActor(r),
		Email: req.Email,
	}, invitationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleInvitationRevoke handles POST /api/invitations/revoke
func handleInvitationRevoke(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	inv, err := orchestrators.ExecuteRevokeInvitation(r.Context(), orchestrators.InvitationActionInput{
		Actor: currentActor(r),
		ID:    req.ID,
	}, invitationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// handleInvitationResend handles POST /api/invitations/resend
func handleInvitationResend(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteResendInvitation(r.Context(), orchestrators.InvitationActionInput{
		Actor: currentActor(r),
		ID:    req.ID,
	}, invitationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type acceptInvitationRequest struct {
	Token       string `json:"token"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

// handleInvitationAccept handles POST /api/invitations/accept. It is public:
// the signed token is the credential.
func handleInvitationAccept(w http.ResponseWriter, r *http.Request) {
	var req acceptInvitationRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	acct, err := orchestrators.ExecuteAcceptInvitation(r.Context(), orchestrators.AcceptInvitationInput(req), invitationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}
