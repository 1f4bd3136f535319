package projections

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"skillcoach/internal/adapters/storage"
	accountStore "skillcoach/internal/adapters/storage/account"
	quizStore "skillcoach/internal/adapters/storage/quiz"
	sessionStore "skillcoach/internal/adapters/storage/session"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/charting"
	"skillcoach/internal/domain/curriculum"
	"skillcoach/internal/domain/form"
	"skillcoach/internal/domain/invitation"
	"skillcoach/internal/domain/message"
	"skillcoach/internal/domain/quiz"
	"skillcoach/internal/domain/session"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	adminActor   = authz.Actor{ID: "admin-1", Role: account.RoleAdmin}
	coachActor   = authz.Actor{ID: "coach-1", Role: account.RoleCoach}
	studentActor = authz.Actor{ID: "student-1", Role: account.RoleStudent}
)

func notFound(kind string) error {
	return fmt.Errorf("%s %w", kind, storage.ErrNotFound)
}

type mockAccountStore struct {
	accounts []account.Account
}

func newAccounts() *mockAccountStore {
	mk := func(id, role, coachID, name string) account.Account {
		return account.Account{ID: id, Email: id + "@example.com", DisplayName: name, Role: role, Status: account.StatusActive, CoachID: coachID}
	}
	return &mockAccountStore{accounts: []account.Account{
		mk("admin-1", account.RoleAdmin, "", "Ada Admin"),
		mk("coach-1", account.RoleCoach, "", "Cora Coach"),
		mk("coach-2", account.RoleCoach, "", "Cal Coach"),
		mk("student-1", account.RoleStudent, "coach-1", "Sam Student"),
		mk("student-2", account.RoleStudent, "coach-1", "Sue Student"),
		mk("student-3", account.RoleStudent, "coach-2", "Sid Student"),
	}}
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return account.Account{}, notFound("account")
}

func (m *mockAccountStore) match(f accountStore.ListFilter) []account.Account {
	var out []account.Account
	for _, a := range m.accounts {
		if (f.Role == "" || a.Role == f.Role) && (f.Status == "" || a.Status == f.Status) &&
			(f.CoachID == "" || a.CoachID == f.CoachID) &&
			(f.Search == "" || strings.Contains(a.Email+a.DisplayName, f.Search)) {
			out = append(out, a)
		}
	}
	return out
}

func (m *mockAccountStore) List(_ context.Context, f accountStore.ListFilter) ([]account.Account, error) {
	out := m.match(f)
	if f.Limit > 0 {
		start := min(f.Offset, len(out))
		out = out[start:min(start+f.Limit, len(out))]
	}
	return out, nil
}

func (m *mockAccountStore) Count(_ context.Context, f accountStore.ListFilter) (int, error) {
	return len(m.match(f)), nil
}

type mockQuizStore struct {
	quizzes  []quiz.Quiz
	attempts []quiz.Attempt
}

func (m *mockQuizStore) GetByID(_ context.Context, id string) (quiz.Quiz, error) {
	for _, q := range m.quizzes {
		if q.ID == id {
			return q, nil
		}
	}
	return quiz.Quiz{}, notFound("quiz")
}

func (m *mockQuizStore) List(_ context.Context, f quizStore.ListFilter) ([]quiz.Quiz, error) {
	var out []quiz.Quiz
	for _, q := range m.quizzes {
		if (f.SportID == "" || q.SportID == f.SportID) && (f.CreatedBy == "" || q.CreatedBy == f.CreatedBy) &&
			(!f.PublishedOnly || q.Published) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockQuizStore) ListAttempts(_ context.Context, f quizStore.AttemptFilter) ([]quiz.Attempt, error) {
	var out []quiz.Attempt
	for _, a := range m.attempts {
		if (f.QuizID == "" || a.QuizID == f.QuizID) && (f.StudentID == "" || a.StudentID == f.StudentID) {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockCurriculumStore struct {
	curricula []curriculum.Curriculum
}

func (m *mockCurriculumStore) GetByID(_ context.Context, id string) (curriculum.Curriculum, error) {
	for _, c := range m.curricula {
		if c.ID == id {
			return c, nil
		}
	}
	return curriculum.Curriculum{}, notFound("curriculum")
}

func (m *mockCurriculumStore) ListByStudent(_ context.Context, studentID string) ([]curriculum.Curriculum, error) {
	var out []curriculum.Curriculum
	for _, c := range m.curricula {
		if c.StudentID == studentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCurriculumStore) ListByCoach(_ context.Context, coachID string) ([]curriculum.Curriculum, error) {
	var out []curriculum.Curriculum
	for _, c := range m.curricula {
		if c.CoachID == coachID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockSessionStore struct {
	sessions []session.Session
}

func (m *mockSessionStore) GetByID(_ context.Context, id string) (session.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return session.Session{}, notFound("session")
}

func (m *mockSessionStore) List(_ context.Context, f sessionStore.ListFilter) ([]session.Session, error) {
	var out []session.Session
	for _, s := range m.sessions {
		if (f.CoachID == "" || s.CoachID == f.CoachID) && (f.StudentID == "" || s.StudentID == f.StudentID) {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockTemplateStore struct {
	templates []form.Template
}

func (m *mockTemplateStore) GetByID(_ context.Context, id string) (form.Template, error) {
	for _, t := range m.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return form.Template{}, notFound("form template")
}

func (m *mockTemplateStore) List(_ context.Context, sportID string, activeOnly bool) ([]form.Template, error) {
	var out []form.Template
	for _, t := range m.templates {
		if (sportID == "" || t.SportID == "" || t.SportID == sportID) && (!activeOnly || t.Active) {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockChartingStore struct {
	entries []charting.Entry
}

func (m *mockChartingStore) GetByID(_ context.Context, id string) (charting.Entry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return charting.Entry{}, notFound("charting entry")
}

func (m *mockChartingStore) ListBySession(_ context.Context, sessionID string) ([]charting.Entry, error) {
	var out []charting.Entry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockChartingStore) ListByStudent(_ context.Context, studentID string) ([]charting.Entry, error) {
	var out []charting.Entry
	for _, e := range m.entries {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockMessageStore struct {
	messages []message.Message
}

func (m *mockMessageStore) ListByReceiverID(_ context.Context, id string) ([]message.Message, error) {
	var out []message.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == id {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageStore) ListBySenderID(_ context.Context, id string) ([]message.Message, error) {
	var out []message.Message
	for _, msg := range m.messages {
		if msg.SenderID == id {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageStore) CountUnread(_ context.Context, id string) (int, error) {
	n := 0
	for _, msg := range m.messages {
		if msg.ReceiverID == id && !msg.IsRead() {
			n++
		}
	}
	return n, nil
}

type mockInvitationStore struct {
	invitations []invitation.Invitation
}

func (m *mockInvitationStore) List(_ context.Context, status string) ([]invitation.Invitation, error) {
	var out []invitation.Invitation
	for _, inv := range m.invitations {
		if status == "" || inv.Status == status {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
