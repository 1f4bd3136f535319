package web

import (
	"net/http"

	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/application/projections"
	"skillcoach/internal/domain/curriculum"
)

func curriculumDeps() orchestrators.CurriculumDeps {
	return orchestrators.CurriculumDeps{
		CurriculumStore: stores.CurriculumStore,
		AccountStore:    stores.AccountStore,
		QuizStore:       stores.QuizStore,
		SportStore:      stores.SportStore,
		GenerateID:      generateID,
		Now:             timeNow,
	}
}

func curriculaQueryDeps() projections.GetCurriculaDeps {
	return projections.GetCurriculaDeps{
		CurriculumStore: stores.CurriculumStore,
		AccountStore:    stores.AccountStore,
	}
}

// handleCurriculumList handles GET /api/curricula?student=
func handleCurriculumList(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryGetCurricula(r.Context(), projections.GetCurriculaQuery{
		Actor:     currentActor(r),
		StudentID: r.URL.Query().Get("student"),
	}, curriculaQueryDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCurriculumProgress handles GET /api/curricula/progress?student=
func handleCurriculumProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := projections.QueryGetCurriculumProgress(r.Context(), projections.GetCurriculaQuery{
		Actor:     currentActor(r),
		StudentID: r.URL.Query().Get("student"),
	}, curriculaQueryDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type curriculumRequest struct {
	StudentID string            `json:"studentId"`
	CoachID   string            `json:"coachId"`
	SportID   string            `json:"sportId"`
	Title     string            `json:"title"`
	Items     []curriculum.Item `json:"items"`
}

// handleCurriculumCreate handles POST /api/curricula
func handleCurriculumCreate(w http.ResponseWriter, r *http.Request) {
	var req curriculumRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteCreateCurriculum(r.Context(), orchestrators.CreateCurriculumInput{
		Actor:     currentActor(r),
		StudentID: req.StudentID,
		CoachID:   req.CoachID,
		SportID:   req.SportID,
		Title:     req.Title,
		Items:     req.Items,
	}, curriculumDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleCurriculumDelete handles DELETE /api/curricula?id=
func handleCurriculumDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	err := orchestrators.ExecuteDeleteCurriculum(r.Context(), orchestrators.CurriculumActionInput{
		Actor:        currentActor(r),
		CurriculumID: id,
	}, curriculumDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type itemRequest struct {
	CurriculumID string          `json:"curriculumId"`
	ItemID       string          `json:"itemId,omitempty"`
	ItemIDs      []string        `json:"itemIds,omitempty"`
	Item         curriculum.Item `json:"item,omitzero"`
}

// handleItemAdd handles POST /api/curricula/items
func handleItemAdd(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteAddItem(r.Context(), orchestrators.AddItemInput{
		Actor:        currentActor(r),
		CurriculumID: req.CurriculumID,
		Item:         req.Item,
	}, curriculumDeps())
	writeCurriculum(w, c, err)
}

// handleItemReorder handles POST /api/curricula/items/reorder
func handleItemReorder(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	c, err := orchestrators.ExecuteReorderItems(r.Context(), orchestrators.ReorderItemsInput{
		Actor:        currentActor(r),
		CurriculumID: req.CurriculumID,
		ItemIDs:      req.ItemIDs,
	}, curriculumDeps())
	writeCurriculum(w, c, err)
}

// itemAction serves the item endpoints that name a single item.
func itemAction(exec func(*http.Request, orchestrators.ItemActionInput) (curriculum.Curriculum, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req itemRequest
		if !decodeOr400(w, r, &req) {
			return
		}
		c, err := exec(r, orchestrators.ItemActionInput{
			Actor:        currentActor(r),
			CurriculumID: req.CurriculumID,
			ItemID:       req.ItemID,
		})
		writeCurriculum(w, c, err)
	}
}

// POST /api/curricula/items/remove, /complete, /reopen
var (
	handleItemRemove = itemAction(func(r *http.Request, in orchestrators.ItemActionInput) (curriculum.Curriculum, error) {
		return orchestrators.ExecuteRemoveItem(r.Context(), in, curriculumDeps())
	})
	handleItemComplete = itemAction(func(r *http.Request, in orchestrators.ItemActionInput) (curriculum.Curriculum, error) {
		return orchestrators.ExecuteCompleteItem(r.Context(), in, curriculumDeps())
	})
	handleItemReopen = itemAction(func(r *http.Request, in orchestrators.ItemActionInput) (curriculum.Curriculum, error) {
		return orchestrators.ExecuteReopenItem(r.Context(), in, curriculumDeps())
	})
)

func writeCurriculum(w http.ResponseWriter, c curriculum.Curriculum, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
