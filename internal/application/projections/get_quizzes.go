package projections

import (
	"context"
	"errors"
	"fmt"

	"skillcoach/internal/adapters/storage"
	accountStore "skillcoach/internal/adapters/storage/account"
	quizStore "skillcoach/internal/adapters/storage/quiz"
	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/account"
	"skillcoach/internal/domain/quiz"
)

// QuestionView is a question as shown to its reader. Students never see
// the correct answer or explanation before attempting.
type QuestionView struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	AtSeconds    float64  `json:"atSeconds,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// QuizView is a quiz with questions redacted for the reader's role.
type QuizView struct {
	quiz.Quiz
	Questions []QuestionView `json:"questions"`
}

// GetQuizzesQuery carries listing filters.
type GetQuizzesQuery struct {
	Actor   authz.Actor
	SportID string
	SkillID string
	Kind    string
	Mine    bool
}

// GetQuizzesDeps holds dependencies for the quiz projections.
type GetQuizzesDeps struct {
	QuizStore QuizStore
}

// QueryGetQuizzes lists quizzes visible to the actor.
// POST: students see published quizzes only; coaches also see their own drafts
func QueryGetQuizzes(ctx context.Context, query GetQuizzesQuery, deps GetQuizzesDeps) ([]QuizView, error) {
	filter := quizStore.ListFilter{
		SportID:       query.SportID,
		SkillID:       query.SkillID,
		Kind:          query.Kind,
		PublishedOnly: query.Actor.IsStudent(),
	}
	if query.Mine {
		filter.CreatedBy = query.Actor.ID
	}
	quizzes, err := deps.QuizStore.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		if canSeeQuiz(query.Actor, q) {
			out = append(out, viewQuiz(query.Actor, q))
		}
	}
	return out, nil
}

// QueryGetQuiz returns one quiz if the actor can see it.
// POST: hidden quizzes report storage.ErrNotFound
func QueryGetQuiz(ctx context.Context, actor authz.Actor, id string, deps GetQuizzesDeps) (QuizView, error) {
	q, err := deps.QuizStore.GetByID(ctx, id)
	if err != nil {
		return QuizView{}, fmt.Errorf("load quiz: %w", err)
	}
	if !canSeeQuiz(actor, q) {
		return QuizView{}, fmt.Errorf("quiz %s: %w", id, storage.ErrNotFound)
	}
	return viewQuiz(actor, q), nil
}

func canSeeQuiz(actor authz.Actor, q quiz.Quiz) bool {
	return q.Published || actor.IsAdmin() || (actor.IsCoach() && q.CreatedBy == actor.ID)
}

func viewQuiz(actor authz.Actor, q quiz.Quiz) QuizView {
	reveal := !actor.IsStudent()
	v := QuizView{Quiz: q, Questions: make([]QuestionView, 0, len(q.Questions))}
	for _, qn := range q.Questions {
		qv := QuestionView{ID: qn.ID, Prompt: qn.Prompt, Options: qn.Options, AtSeconds: qn.AtSeconds}
		if reveal {
			correct := qn.CorrectIndex
			qv.CorrectIndex = &correct
			qv.Explanation = qn.Explanation
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

// ErrAttemptScope is returned when an attempt listing names neither a quiz nor a student.
var ErrAttemptScope = errors.New("quiz or student is required")

// GetAttemptsQuery selects attempts by student, by quiz, or both.
type GetAttemptsQuery struct {
	Actor     authz.Actor
	QuizID    string
	StudentID string
}

// GetAttemptsDeps holds dependencies for GetAttempts.
type GetAttemptsDeps struct {
	QuizStore    QuizStore
	AccountStore AccountStore
}

// QueryGetAttempts lists quiz attempts the actor may read.
// PRE: at least one of QuizID or StudentID is set, except for students
// POST: students see only their own; coaches only their students'
func QueryGetAttempts(ctx context.Context, query GetAttemptsQuery, deps GetAttemptsDeps) ([]quiz.Attempt, error) {
	filter := quizStore.AttemptFilter{QuizID: query.QuizID, StudentID: query.StudentID}
	actor := query.Actor

	var allowed map[string]bool
	switch {
	case actor.IsStudent():
		filter.StudentID = actor.ID
	case filter.StudentID != "":
		student, err := deps.AccountStore.GetByID(ctx, filter.StudentID)
		if err != nil {
			return nil, fmt.Errorf("load student: %w", err)
		}
		if !actor.CanView(student) {
			return nil, authz.ErrForbidden
		}
	case filter.QuizID == "":
		return nil, authz.Invalid(ErrAttemptScope)
	case actor.IsCoach():
		students, err := deps.AccountStore.List(ctx, accountStore.ListFilter{Role: account.RoleStudent, CoachID: actor.ID})
		if err != nil {
			return nil, fmt.Errorf("list students: %w", err)
		}
		allowed = make(map[string]bool, len(students))
		for _, s := range students {
			allowed[s.ID] = true
		}
	}

	attempts, err := deps.QuizStore.ListAttempts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if allowed == nil {
		return attempts, nil
	}
	out := make([]quiz.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if allowed[a.StudentID] {
			out = append(out, a)
		}
	}
	return out, nil
}
