package projections

import (
	"context"

	accountStore "skillcoach/internal/adapters/storage/account"
	quizStore "skillcoach/internal/adapters/storage/quiz"
	sessionStore "skillcoach/internal/adapters/storage/session"
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/charting"
	"skillcoach/internal/domain/curriculum"
	"skillcoach/internal/domain/form"
	"skillcoach/internal/domain/invitation"
	"skillcoach/internal/domain/message"
	"skillcoach/internal/domain/outbox"
	"skillcoach/internal/domain/quiz"
	"skillcoach/internal/domain/session"
	"skillcoach/internal/domain/sport"
)

// AccountStore interface for account queries.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	List(ctx context.Context, filter accountStore.ListFilter) ([]account.Account, error)
	Count(ctx context.Context, filter accountStore.ListFilter) (int, error)
}

// AccountLookup resolves single accounts.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// SportStore interface for the sport catalog.
type SportStore interface {
	List(ctx context.Context) ([]sport.Sport, error)
}

// InvitationStore interface for invitation queries.
type InvitationStore interface {
	List(ctx context.Context, status string) ([]invitation.Invitation, error)
}

// QuizStore interface for quiz and attempt queries.
type QuizStore interface {
	GetByID(ctx context.Context, id string) (quiz.Quiz, error)
	List(ctx context.Context, filter quizStore.ListFilter) ([]quiz.Quiz, error)
	ListAttempts(ctx context.Context, filter quizStore.AttemptFilter) ([]quiz.Attempt, error)
}

// CurriculumStore interface for curriculum queries.
type CurriculumStore interface {
	GetByID(ctx context.Context, id string) (curriculum.Curriculum, error)
	ListByStudent(ctx context.Context, studentID string) ([]curriculum.Curriculum, error)
	ListByCoach(ctx context.Context, coachID string) ([]curriculum.Curriculum, error)
}

// SessionStore interface for session queries.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (session.Session, error)
	List(ctx context.Context, filter sessionStore.ListFilter) ([]session.Session, error)
}

// TemplateStore interface for form template queries.
type TemplateStore interface {
	GetByID(ctx context.Context, id string) (form.Template, error)
	List(ctx context.Context, sportID string, activeOnly bool) ([]form.Template, error)
}

// ChartingStore interface for charting entry queries.
type ChartingStore interface {
	GetByID(ctx context.Context, id string) (charting.Entry, error)
	ListBySession(ctx context.Context, sessionID string) ([]charting.Entry, error)
	ListByStudent(ctx context.Context, studentID string) ([]charting.Entry, error)
}

// MessageStore interface for message queries.
type MessageStore interface {
	ListByReceiverID(ctx context.Context, receiverID string) ([]message.Message, error)
	ListBySenderID(ctx context.Context, senderID string) ([]message.Message, error)
	CountUnread(ctx context.Context, receiverID string) (int, error)
}

// OutboxStore interface for outbox queries.
type OutboxStore interface {
	List(ctx context.Context, status string, limit int) ([]outbox.Entry, error)
}
