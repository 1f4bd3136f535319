package projections

import (
	"context"
	"errors"
	"fmt"

	"skillcoach/internal/application/authz"
	"skillcoach/internal/domain/curriculum"
)

// ErrStudentRequired is returned when a listing needs a student to scope it.
var ErrStudentRequired = errors.New("student is required")

// CurriculumProgress summarises completion of one curriculum.
type CurriculumProgress struct {
	CurriculumID string `json:"curriculumId"`
	Title        string `json:"title"`
	Completed    int    `json:"completed"`
	Total        int    `json:"total"`
	Percent      int    `json:"percent"`
}

// CurriculumView is a curriculum with its progress.
type CurriculumView struct {
	curriculum.Curriculum
	Progress CurriculumProgress `json:"progress"`
}

// GetCurriculaQuery selects curricula for a student, or a coach's own.
type GetCurriculaQuery struct {
	Actor     authz.Actor
	StudentID string
}

// GetCurriculaDeps holds dependencies for the curriculum projections.
type GetCurriculaDeps struct {
	CurriculumStore CurriculumStore
	AccountStore    AccountLookup
}

// QueryGetCurricula lists curricula the actor may read.
// POST: students get their own; a coach without StudentID gets every
// curriculum they own; admins must name a student
func QueryGetCurricula(ctx context.Context, query GetCurriculaQuery, deps GetCurriculaDeps) ([]CurriculumView, error) {
	list, err := listCurricula(ctx, query, deps)
	if err != nil {
		return nil, err
	}
	out := make([]CurriculumView, 0, len(list))
	for _, c := range list {
		out = append(out, CurriculumView{Curriculum: c, Progress: progressOf(c)})
	}
	return out, nil
}

// StudentProgress rolls up every curriculum of a student.
type StudentProgress struct {
	StudentID string               `json:"studentId"`
	Curricula []CurriculumProgress `json:"curricula"`
	Completed int                  `json:"completed"`
	Total     int                  `json:"total"`
	Percent   int                  `json:"percent"`
}

// QueryGetCurriculumProgress computes completed/total per curriculum and overall.
// PRE: StudentID names a student the actor may view (ignored for students)
// INVARIANT: Percent is floor(completed*100/total), 0 when there are no items
func QueryGetCurriculumProgress(ctx context.Context, query GetCurriculaQuery, deps GetCurriculaDeps) (StudentProgress, error) {
	if query.Actor.IsStudent() {
		query.StudentID = query.Actor.ID
	}
	if query.StudentID == "" {
		return StudentProgress{}, authz.Invalid(ErrStudentRequired)
	}
	list, err := listCurricula(ctx, query, deps)
	if err != nil {
		return StudentProgress{}, err
	}
	result := StudentProgress{StudentID: query.StudentID, Curricula: make([]CurriculumProgress, 0, len(list))}
	for _, c := range list {
		p := progressOf(c)
		result.Curricula = append(result.Curricula, p)
		result.Completed += p.Completed
		result.Total += p.Total
	}
	result.Percent = percent(result.Completed, result.Total)
	return result, nil
}

func listCurricula(ctx context.Context, query GetCurriculaQuery, deps GetCurriculaDeps) ([]curriculum.Curriculum, error) {
	actor := query.Actor
	studentID := query.StudentID
	if actor.IsStudent() {
		studentID = actor.ID
	}
	if studentID == "" {
		if !actor.IsCoach() {
			return nil, authz.Invalid(ErrStudentRequired)
		}
		list, err := deps.CurriculumStore.ListByCoach(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("list curricula: %w", err)
		}
		return list, nil
	}
	if err := checkView(ctx, actor, studentID, deps.AccountStore); err != nil {
		return nil, err
	}
	list, err := deps.CurriculumStore.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list curricula: %w", err)
	}
	return list, nil
}

func progressOf(c curriculum.Curriculum) CurriculumProgress {
	done, total := c.Progress()
	return CurriculumProgress{CurriculumID: c.ID, Title: c.Title, Completed: done, Total: total, Percent: percent(done, total)}
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return done * 100 / total
}

// checkView allows the student themself, their coach, and admins.
func checkView(ctx context.Context, actor authz.Actor, studentID string, accounts AccountLookup) error {
	if actor.ID == studentID {
		return nil
	}
	student, err := accounts.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}
	if !actor.CanView(student) {
		return authz.ErrForbidden
	}
	return nil
}
