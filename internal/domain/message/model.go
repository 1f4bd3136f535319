package message

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxSubjectLength = 200
	MaxContentLength = 10000
)

// Domain errors
var (
	ErrEmptySenderID   = errors.New("sender ID is required")
	ErrEmptyReceiverID = errors.New("receiver ID is required")
	ErrSelfMessage     = errors.New("cannot send a message to yourself")
	ErrEmptyContent    = errors.New("message content cannot be empty")
	ErrSubjectTooLong  = errors.New("subject cannot exceed 200 characters")
	ErrContentTooLong  = errors.New("message content cannot exceed 10000 characters")
)

// Message is a direct message between two accounts. Content is markdown.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	ReadAt     time.Time `json:"readAt,omitzero"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Validate checks if the Message has valid data.
// PRE: Message struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Message) Validate() error {
	if m.SenderID == "" {
		return ErrEmptySenderID
	}
	if m.ReceiverID == "" {
		return ErrEmptyReceiverID
	}
	if m.SenderID == m.ReceiverID {
		return ErrSelfMessage
	}
	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyContent
	}
	if len(m.Subject) > MaxSubjectLength {
		return ErrSubjectTooLong
	}
	if len(m.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	if m.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsRead returns true if the message has been read.
// INVARIANT: ReadAt field is not mutated
func (m *Message) IsRead() bool {
	return !m.ReadAt.IsZero()
}

// MarkRead records when the message was read.
// POST: ReadAt is set to now if previously zero
func (m *Message) MarkRead(now time.Time) {
	if m.ReadAt.IsZero() {
		m.ReadAt = now
	}
}

// Involves reports whether the account is the sender or receiver.
func (m *Message) Involves(accountID string) bool {
	return m.SenderID == accountID || m.ReceiverID == accountID
}
