package web

import (
	"net/http"

	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/application/projections"
)

func messageDeps() orchestrators.MessageDeps {
	return orchestrators.MessageDeps{
		MessageStore: stores.MessageStore,
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	}
}

func messageQueryDeps() projections.GetMessagesDeps {
	return projections.GetMessagesDeps{MessageStore: stores.MessageStore, AccountStore: stores.AccountStore}
}

// handleMessageList handles GET /api/messages?box=inbox|sent
func handleMessageList(w http.ResponseWriter, r *http.Request) {
	query := projections.QueryGetInbox
	switch r.URL.Query().Get("box") {
	case "", "inbox":
	case "sent":
		query = projections.QueryGetSent
	default:
		badRequest(w, "box must be inbox or sent")
		return
	}
	list, err := query(r.Context(), currentActor(r), messageQueryDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type unreadResponse struct {
	Unread int `json:"unread"`
}

// handleMessageUnread handles GET /api/messages/unread
func handleMessageUnread(w http.ResponseWriter, r *http.Request) {
	n, err := projections.QueryGetUnreadCount(r.Context(), currentActor(r), messageQueryDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unreadResponse{Unread: n})
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
}

// handleMessageSend handles POST /api/messages
func handleMessageSend(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	msg, err := orchestrators.ExecuteSendMessage(r.Context(), orchestrators.SendMessageInput{
		Actor:      currentActor(r),
		ReceiverID: req.ReceiverID,
		Subject:    req.Subject,
		Content:    req.Content,
	}, messageDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// handleMessageRead handles POST /api/messages/read
func handleMessageRead(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	msg, err := orchestrators.ExecuteMarkRead(r.Context(), orchestrators.MessageActionInput{
		Actor:     currentActor(r),
		MessageID: req.ID,
	}, messageDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleMessageDelete handles DELETE /api/messages?id=
func handleMessageDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	err := orchestrators.ExecuteDeleteMessage(r.Context(), orchestrators.MessageActionInput{
		Actor:     currentActor(r),
		MessageID: id,
	}, messageDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
