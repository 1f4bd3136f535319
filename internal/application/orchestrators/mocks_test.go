package orchestrators

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"skillcoach/internal/adapters/email"
	"skillcoach/internal/adapters/storage"
	accountStore "skillcoach/internal/adapters/storage/account"
	quizStore "skillcoach/internal/adapters/storage/quiz"
	sessionStore "skillcoach/internal/adapters/storage/session"
	"skillcoach/internal/adapters/token"
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

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// seqIDs returns a generator yielding id-1, id-2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

func notFound(kind string) error {
	return fmt.Errorf("%s %w", kind, storage.ErrNotFound)
}

// --- accounts ---

type mockAccountStore struct {
	accounts map[string]account.Account
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[string]account.Account)}
	for _, a := range accts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, notFound("account")
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == account.NormalizeEmail(email) {
			return a, nil
		}
	}
	return account.Account{}, notFound("account")
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountStore) List(_ context.Context, f accountStore.ListFilter) ([]account.Account, error) {
	var out []account.Account
	for _, a := range m.accounts {
		if (f.Role == "" || a.Role == f.Role) && (f.Status == "" || a.Status == f.Status) &&
			(f.CoachID == "" || a.CoachID == f.CoachID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockAccountStore) Count(ctx context.Context, f accountStore.ListFilter) (int, error) {
	out, _ := m.List(ctx, f)
	return len(out), nil
}

func adminAccount(id string) account.Account {
	return account.Account{ID: id, Email: id + "@example.com", Role: account.RoleAdmin, Status: account.StatusActive}
}

func coachAccount(id string) account.Account {
	return account.Account{ID: id, Email: id + "@example.com", Role: account.RoleCoach, Status: account.StatusActive}
}

func studentAccount(id, coachID string) account.Account {
	return account.Account{ID: id, Email: id + "@example.com", Role: account.RoleStudent, Status: account.StatusActive, CoachID: coachID}
}

// --- sports ---

type mockSportStore struct {
	sports map[string]sport.Sport
}

func newMockSportStore() *mockSportStore {
	return &mockSportStore{sports: map[string]sport.Sport{
		"tennis": {ID: "tennis", Name: "Tennis", Skills: []sport.Skill{{ID: "serve", Name: "Serve"}, {ID: "volley", Name: "Volley"}}},
		"golf":   {ID: "golf", Name: "Golf", Skills: []sport.Skill{{ID: "putting", Name: "Putting"}}},
	}}
}

func (m *mockSportStore) GetByID(_ context.Context, id string) (sport.Sport, error) {
	s, ok := m.sports[id]
	if !ok {
		return sport.Sport{}, notFound("sport")
	}
	return s, nil
}

func (m *mockSportStore) Save(_ context.Context, s sport.Sport) error {
	m.sports[s.ID] = s
	return nil
}

func (m *mockSportStore) List(_ context.Context) ([]sport.Sport, error) {
	var out []sport.Sport
	for _, s := range m.sports {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- invitations ---

type mockInvitationStore struct {
	invitations map[string]invitation.Invitation
}

func newMockInvitationStore() *mockInvitationStore {
	return &mockInvitationStore{invitations: make(map[string]invitation.Invitation)}
}

func (m *mockInvitationStore) GetByID(_ context.Context, id string) (invitation.Invitation, error) {
	inv, ok := m.invitations[id]
	if !ok {
		return invitation.Invitation{}, notFound("invitation")
	}
	return inv, nil
}

func (m *mockInvitationStore) Save(_ context.Context, inv invitation.Invitation) error {
	m.invitations[inv.ID] = inv
	return nil
}

func (m *mockInvitationStore) List(_ context.Context, status string) ([]invitation.Invitation, error) {
	var out []invitation.Invitation
	for _, inv := range m.invitations {
		if status == "" || inv.Status == status {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInvitationStore) ListPendingByEmail(ctx context.Context, email string) ([]invitation.Invitation, error) {
	all, _ := m.List(ctx, invitation.StatusPending)
	var out []invitation.Invitation
	for _, inv := range all {
		if inv.Email == email {
			out = append(out, inv)
		}
	}
	return out, nil
}

// fakeTokens issues tokens of the form "tok:<id>:<email>". A non-nil
// verifyErr makes every Verify fail with it.
type fakeTokens struct {
	verifyErr error
}

func (f *fakeTokens) Issue(invitationID, email string, _ time.Time) (string, error) {
	return "tok:" + invitationID + ":" + email, nil
}

func (f *fakeTokens) Verify(raw string) (token.Claims, error) {
	if f.verifyErr != nil {
		return token.Claims{}, f.verifyErr
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] != "tok" {
		return token.Claims{}, token.ErrInvalid
	}
	return token.Claims{InvitationID: parts[1], Email: parts[2]}, nil
}

// failingSender always returns err.
type failingSender struct {
	err   error
	calls int
}

func (f *failingSender) Send(_ context.Context, _ email.Message) (email.Result, error) {
	f.calls++
	return email.Result{}, f.err
}

// --- outbox ---

type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, notFound("outbox entry")
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOutboxStore) List(_ context.Context, status string, _ int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, e := range m.entries {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// --- quizzes ---

type mockQuizStore struct {
	quizzes  map[string]quiz.Quiz
	attempts []quiz.Attempt
}

func newMockQuizStore(qs ...quiz.Quiz) *mockQuizStore {
	m := &mockQuizStore{quizzes: make(map[string]quiz.Quiz)}
	for _, q := range qs {
		m.quizzes[q.ID] = q
	}
	return m
}

func (m *mockQuizStore) GetByID(_ context.Context, id string) (quiz.Quiz, error) {
	q, ok := m.quizzes[id]
	if !ok {
		return quiz.Quiz{}, notFound("quiz")
	}
	return q, nil
}

func (m *mockQuizStore) Save(_ context.Context, q quiz.Quiz) error {
	m.quizzes[q.ID] = q
	return nil
}

func (m *mockQuizStore) Delete(_ context.Context, id string) error {
	delete(m.quizzes, id)
	m.attempts = slices.DeleteFunc(m.attempts, func(a quiz.Attempt) bool { return a.QuizID == id })
	return nil
}

func (m *mockQuizStore) List(_ context.Context, f quizStore.ListFilter) ([]quiz.Quiz, error) {
	var out []quiz.Quiz
	for _, q := range m.quizzes {
		if (f.SportID == "" || q.SportID == f.SportID) && (f.SkillID == "" || q.SkillID == f.SkillID) &&
			(f.Kind == "" || q.Kind == f.Kind) && (f.CreatedBy == "" || q.CreatedBy == f.CreatedBy) &&
			(!f.PublishedOnly || q.Published) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockQuizStore) SaveAttempt(_ context.Context, a quiz.Attempt) error {
	m.attempts = append(m.attempts, a)
	return nil
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

func sampleQuiz(id, createdBy string) quiz.Quiz {
	return quiz.Quiz{
		ID:        id,
		Title:     "Serve basics",
		Kind:      quiz.KindStandard,
		SportID:   "tennis",
		SkillID:   "serve",
		CreatedBy: createdBy,
		Published: true,
		Questions: []quiz.Question{
			{ID: "q1", Prompt: "Toss height?", Options: []string{"Low", "High"}, CorrectIndex: 1},
			{ID: "q2", Prompt: "Grip?", Options: []string{"Continental", "Western", "Eastern"}, CorrectIndex: 0},
		},
		CreatedAt: fixedTime,
	}
}

// --- curricula ---

type mockCurriculumStore struct {
	curricula map[string]curriculum.Curriculum
}

func newMockCurriculumStore(cs ...curriculum.Curriculum) *mockCurriculumStore {
	m := &mockCurriculumStore{curricula: make(map[string]curriculum.Curriculum)}
	for _, c := range cs {
		m.curricula[c.ID] = c
	}
	return m
}

func (m *mockCurriculumStore) GetByID(_ context.Context, id string) (curriculum.Curriculum, error) {
	c, ok := m.curricula[id]
	if !ok {
		return curriculum.Curriculum{}, notFound("curriculum")
	}
	return c, nil
}

func (m *mockCurriculumStore) Save(_ context.Context, c curriculum.Curriculum) error {
	c.Items = slices.Clone(c.Items)
	m.curricula[c.ID] = c
	return nil
}

func (m *mockCurriculumStore) Delete(_ context.Context, id string) error {
	delete(m.curricula, id)
	return nil
}

func (m *mockCurriculumStore) ListByStudent(_ context.Context, studentID string) ([]curriculum.Curriculum, error) {
	var out []curriculum.Curriculum
	for _, c := range m.curricula {
		if c.StudentID == studentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCurriculumStore) ListByCoach(_ context.Context, coachID string) ([]curriculum.Curriculum, error) {
	var out []curriculum.Curriculum
	for _, c := range m.curricula {
		if c.CoachID == coachID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- sessions ---

type mockSessionStore struct {
	sessions map[string]session.Session
}

func newMockSessionStore(ss ...session.Session) *mockSessionStore {
	m := &mockSessionStore{sessions: make(map[string]session.Session)}
	for _, s := range ss {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *mockSessionStore) GetByID(_ context.Context, id string) (session.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return session.Session{}, notFound("session")
	}
	return s, nil
}

func (m *mockSessionStore) Save(_ context.Context, s session.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) List(_ context.Context, f sessionStore.ListFilter) ([]session.Session, error) {
	var out []session.Session
	for _, s := range m.sessions {
		if (f.CoachID == "" || s.CoachID == f.CoachID) && (f.StudentID == "" || s.StudentID == f.StudentID) &&
			(f.Status == "" || s.Status == f.Status) &&
			(f.From.IsZero() || !s.ScheduledAt.Before(f.From)) && (f.To.IsZero() || s.ScheduledAt.Before(f.To)) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func sampleSession(id, coachID, studentID string) session.Session {
	return session.Session{
		ID:          id,
		CoachID:     coachID,
		StudentID:   studentID,
		SportID:     "tennis",
		Kind:        session.KindPractice,
		Title:       "Serve practice",
		ScheduledAt: fixedTime.Add(24 * time.Hour),
		Status:      session.StatusScheduled,
		CreatedAt:   fixedTime,
	}
}

// --- form templates ---

type mockTemplateStore struct {
	templates map[string]form.Template
}

func newMockTemplateStore(ts ...form.Template) *mockTemplateStore {
	m := &mockTemplateStore{templates: make(map[string]form.Template)}
	for _, t := range ts {
		m.templates[t.ID] = t
	}
	return m
}

func (m *mockTemplateStore) GetByID(_ context.Context, id string) (form.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return form.Template{}, notFound("form template")
	}
	return t, nil
}

func (m *mockTemplateStore) Save(_ context.Context, t form.Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateStore) List(_ context.Context, sportID string, activeOnly bool) ([]form.Template, error) {
	var out []form.Template
	for _, t := range m.templates {
		if (sportID == "" || t.SportID == "" || t.SportID == sportID) && (!activeOnly || t.Active) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func ptr(f float64) *float64 { return &f }

func sampleTemplate() form.Template {
	return form.Template{
		ID:     "tpl-match",
		Name:   "Match chart",
		Active: true,
		Sections: []form.Section{
			{
				ID:    "overview",
				Title: "Overview",
				Fields: []form.Field{
					{ID: "won", Label: "Won?", Type: form.TypeYesNo, Required: true},
					{ID: "notes", Label: "Notes", Type: form.TypeTextarea},
				},
			},
			{
				ID:         "sets",
				Title:      "Sets",
				Repeatable: true,
				MaxRepeats: 3,
				Fields: []form.Field{
					{ID: "games", Label: "Games won", Type: form.TypeNumeric, Required: true, Min: ptr(0), Max: ptr(7)},
				},
			},
		},
	}
}

// --- charting ---

type mockChartingStore struct {
	entries map[string]charting.Entry
}

func newMockChartingStore() *mockChartingStore {
	return &mockChartingStore{entries: make(map[string]charting.Entry)}
}

func (m *mockChartingStore) GetByID(_ context.Context, id string) (charting.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return charting.Entry{}, notFound("charting entry")
	}
	e.Responses = e.Responses.Clone()
	return e, nil
}

func (m *mockChartingStore) Save(_ context.Context, e charting.Entry) error {
	e.Responses = e.Responses.Clone()
	m.entries[e.ID] = e
	return nil
}

func (m *mockChartingStore) ListBySession(_ context.Context, sessionID string) ([]charting.Entry, error) {
	var out []charting.Entry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockChartingStore) ListByStudent(_ context.Context, studentID string) ([]charting.Entry, error) {
	var out []charting.Entry
	for _, e := range m.entries {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- messages ---

type mockMessageStore struct {
	messages map[string]message.Message
}

func newMockMessageStore() *mockMessageStore {
	return &mockMessageStore{messages: make(map[string]message.Message)}
}

func (m *mockMessageStore) GetByID(_ context.Context, id string) (message.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return message.Message{}, notFound("message")
	}
	return msg, nil
}

func (m *mockMessageStore) Save(_ context.Context, msg message.Message) error {
	m.messages[msg.ID] = msg
	return nil
}

func (m *mockMessageStore) Delete(_ context.Context, id string) error {
	delete(m.messages, id)
	return nil
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

func (m *mockMessageStore) CountUnread(ctx context.Context, id string) (int, error) {
	in, _ := m.ListByReceiverID(ctx, id)
	n := 0
	for _, msg := range in {
		if !msg.IsRead() {
			n++
		}
	}
	return n, nil
}
