package web

import (
	"net/http"
	"strconv"

	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/application/projections"
	"skillcoach/internal/domain/quiz"
)

func quizDeps() orchestrators.QuizDeps {
	return orchestrators.QuizDeps{
		QuizStore:  stores.QuizStore,
		SportStore: stores.SportStore,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

// handleSportList handles GET /api/sports
func handleSportList(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryGetSports(r.Context(), projections.GetSportsDeps{SportStore: stores.SportStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleQuizGet handles GET /api/quizzes. With ?id= it returns one quiz;
// otherwise it lists, filtered by sport, skill, kind, and mine=true.
func handleQuizGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deps := projections.GetQuizzesDeps{QuizStore: stores.QuizStore}
	if id := q.Get("id"); id != "" {
		view, err := projections.QueryGetQuiz(r.Context(), currentActor(r), id, deps)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}
	mine, _ := strconv.ParseBool(q.Get("mine"))
	list, err := projections.QueryGetQuizzes(r.Context(), projections.GetQuizzesQuery{
		Actor:   currentActor(r),
		SportID: q.Get("sport"),
		SkillID: q.Get("skill"),
		Kind:    q.Get("kind"),
		Mine:    mine,
	}, deps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type quizRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	VideoURL    string          `json:"videoUrl"`
	SportID     string          `json:"sportId"`
	SkillID     string          `json:"skillId"`
	Questions   []quiz.Question `json:"questions"`
}

func (req quizRequest) input(r *http.Request, id string) orchestrators.QuizInput {
	return orchestrators.QuizInput{
		Actor:       currentActor(r),
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Kind:        req.Kind,
		VideoURL:    req.VideoURL,
		SportID:     req.SportID,
		SkillID:     req.SkillID,
		Questions:   req.Questions,
	}
}

// handleQuizCreate handles POST /api/quizzes
func handleQuizCreate(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	qz, err := orchestrators.ExecuteCreateQuiz(r.Context(), req.input(r, ""), quizDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, qz)
}

// handleQuizUpdate handles PUT /api/quizzes?id=
func handleQuizUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req quizRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	qz, err := orchestrators.ExecuteUpdateQuiz(r.Context(), req.input(r, id), quizDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qz)
}

// handleQuizDelete handles DELETE /api/quizzes?id=
func handleQuizDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	err := orchestrators.ExecuteDeleteQuiz(r.Context(), orchestrators.QuizActionInput{
		Actor: currentActor(r),
		ID:    id,
	}, quizDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publishRequest struct {
	ID        string `json:"id"`
	Published bool   `json:"published"`
}

// handleQuizPublish handles POST /api/quizzes/publish
func handleQuizPublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	qz, err := orchestrators.ExecutePublishQuiz(r.Context(), orchestrators.QuizActionInput{
		Actor:     currentActor(r),
		ID:        req.ID,
		Published: req.Published,
	}, quizDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qz)
}

// handleAttemptList handles GET /api/quiz-attempts?quiz=&student=
func handleAttemptList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := projections.QueryGetAttempts(r.Context(), projections.GetAttemptsQuery{
		Actor:     currentActor(r),
		QuizID:    q.Get("quiz"),
		StudentID: q.Get("student"),
	}, projections.GetAttemptsDeps{QuizStore: stores.QuizStore, AccountStore: stores.AccountStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type attemptRequest struct {
	QuizID  string `json:"quizId"`
	Answers []int  `json:"answers"`
}

// handleAttemptSubmit handles POST /api/quiz-attempts
func handleAttemptSubmit(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteSubmitAttempt(r.Context(), orchestrators.SubmitAttemptInput{
		Actor:   currentActor(r),
		QuizID:  req.QuizID,
		Answers: req.Answers,
	}, orchestrators.SubmitAttemptDeps{
		QuizStore:       stores.QuizStore,
		CurriculumStore: stores.CurriculumStore,
		GenerateID:      generateID,
		Now:             timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
