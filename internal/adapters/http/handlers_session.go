package web

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"skillcoach/internal/adapters/export"
	"skillcoach/internal/application/orchestrators"
	"skillcoach/internal/application/projections"
	"skillcoach/internal/domain/charting"
	"skillcoach/internal/domain/form"
	"skillcoach/internal/domain/session"
)

func sessionDeps() orchestrators.SessionDeps {
	return orchestrators.SessionDeps{
		SessionStore: stores.SessionStore,
		AccountStore: stores.AccountStore,
		SportStore:   stores.SportStore,
		GenerateID:   generateID,
		Now:          timeNow,
	}
}

// parseDay accepts RFC 3339 timestamps or plain dates (midnight UTC).
func parseDay(q url.Values, key string) (time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date or RFC 3339 time", key)
	}
	return t, nil
}

// handleSessionGet handles GET /api/sessions. With ?id= it returns one
// session; otherwise it lists by student, status, from, and to.
func handleSessionGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deps := projections.GetSessionsDeps{SessionStore: stores.SessionStore, AccountStore: stores.AccountStore}
	if id := q.Get("id"); id != "" {
		s, err := projections.QueryGetSession(r.Context(), currentActor(r), id, deps)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
		return
	}
	from, err := parseDay(q, "from")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	to, err := parseDay(q, "to")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	list, err := projections.QueryGetSessions(r.Context(), projections.GetSessionsQuery{
		Actor:     currentActor(r),
		StudentID: q.Get("student"),
		Status:    q.Get("status"),
		From:      from,
		To:        to,
	}, deps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type sessionRequest struct {
	StudentID   string    `json:"studentId"`
	SportID     string    `json:"sportId"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes"`
}

func (req sessionRequest) input(r *http.Request, id string) orchestrators.SessionInput {
	return orchestrators.SessionInput{
		Actor:       currentActor(r),
		ID:          id,
		StudentID:   req.StudentID,
		SportID:     req.SportID,
		Kind:        req.Kind,
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	}
}

// handleSessionCreate handles POST /api/sessions
func handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	s, err := orchestrators.ExecuteScheduleSession(r.Context(), req.input(r, ""), sessionDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// handleSessionUpdate handles PUT /api/sessions?id=
func handleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req sessionRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	s, err := orchestrators.ExecuteUpdateSession(r.Context(), req.input(r, id), sessionDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type idRequest struct {
	ID string `json:"id"`
}

func sessionAction(exec func(*http.Request, orchestrators.SessionActionInput) (session.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idRequest
		if !decodeOr400(w, r, &req) {
			return
		}
		s, err := exec(r, orchestrators.SessionActionInput{Actor: currentActor(r), SessionID: req.ID})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// POST /api/sessions/complete, /cancel
var (
	handleSessionComplete = sessionAction(func(r *http.Request, in orchestrators.SessionActionInput) (session.Session, error) {
		return orchestrators.ExecuteCompleteSession(r.Context(), in, sessionDeps())
	})
	handleSessionCancel = sessionAction(func(r *http.Request, in orchestrators.SessionActionInput) (session.Session, error) {
		return orchestrators.ExecuteCancelSession(r.Context(), in, sessionDeps())
	})
)

func templateDeps() orchestrators.TemplateDeps {
	return orchestrators.TemplateDeps{
		TemplateStore: stores.TemplateStore,
		SportStore:    stores.SportStore,
		GenerateID:    generateID,
		Now:           timeNow,
	}
}

// handleTemplateGet handles GET /api/form-templates?id=|sport=&active=
func handleTemplateGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deps := projections.GetTemplatesDeps{TemplateStore: stores.TemplateStore}
	if id := q.Get("id"); id != "" {
		t, err := projections.QueryGetTemplate(r.Context(), currentActor(r), id, deps)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
		return
	}
	list, err := projections.QueryGetTemplates(r.Context(), projections.GetTemplatesQuery{
		Actor:      currentActor(r),
		SportID:    q.Get("sport"),
		ActiveOnly: q.Get("active") == "true",
	}, deps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleTemplateCreate handles POST /api/form-templates
func handleTemplateCreate(w http.ResponseWriter, r *http.Request) {
	var t form.Template
	if !decodeOr400(w, r, &t) {
		return
	}
	saved, err := orchestrators.ExecuteCreateTemplate(r.Context(), orchestrators.TemplateInput{
		Actor:    currentActor(r),
		Template: t,
	}, templateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleTemplateUpdate handles PUT /api/form-templates?id=
func handleTemplateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var t form.Template
	if !decodeOr400(w, r, &t) {
		return
	}
	t.ID = id
	saved, err := orchestrators.ExecuteUpdateTemplate(r.Context(), orchestrators.TemplateInput{
		Actor:    currentActor(r),
		Template: t,
	}, templateDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func chartingDeps() orchestrators.ChartingDeps {
	return orchestrators.ChartingDeps{
		ChartingStore: stores.ChartingStore,
		SessionStore:  stores.SessionStore,
		TemplateStore: stores.TemplateStore,
		AccountStore:  stores.AccountStore,
		GenerateID:    generateID,
		Now:           timeNow,
	}
}

func chartingQueryDeps() projections.GetChartingDeps {
	return projections.GetChartingDeps{
		ChartingStore: stores.ChartingStore,
		SessionStore:  stores.SessionStore,
		TemplateStore: stores.TemplateStore,
		AccountStore:  stores.AccountStore,
	}
}

func chartingQuery(r *http.Request) projections.GetChartingQuery {
	q := r.URL.Query()
	return projections.GetChartingQuery{
		Actor:      currentActor(r),
		SessionID:  q.Get("session"),
		StudentID:  q.Get("student"),
		TemplateID: q.Get("template"),
	}
}

// handleChartingGet handles GET /api/charting?id=|session=|student=
func handleChartingGet(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		e, err := projections.QueryGetChartingEntry(r.Context(), currentActor(r), id, chartingQueryDeps())
		writeEntry(w, http.StatusOK, e, err)
		return
	}
	list, err := projections.QueryGetCharting(r.Context(), chartingQuery(r), chartingQueryDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type chartingRequest struct {
	ID         string         `json:"id,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	TemplateID string         `json:"templateId,omitempty"`
	SectionID  string         `json:"sectionId,omitempty"`
	Index      int            `json:"index,omitempty"`
	Responses  form.Responses `json:"responses,omitempty"`
}

// handleChartingStart handles POST /api/charting
func handleChartingStart(w http.ResponseWriter, r *http.Request) {
	var req chartingRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	e, err := orchestrators.ExecuteStartCharting(r.Context(), orchestrators.StartChartingInput{
		Actor:      currentActor(r),
		SessionID:  req.SessionID,
		TemplateID: req.TemplateID,
	}, chartingDeps())
	writeEntry(w, http.StatusCreated, e, err)
}

// handleChartingSave handles PUT /api/charting?id=
func handleChartingSave(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req chartingRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	e, err := orchestrators.ExecuteSaveCharting(r.Context(), orchestrators.SaveChartingInput{
		Actor:     currentActor(r),
		EntryID:   id,
		Responses: req.Responses,
	}, chartingDeps())
	writeEntry(w, http.StatusOK, e, err)
}

type repeatResponse struct {
	Entry charting.Entry `json:"entry"`
	Index int            `json:"index"`
}

// handleChartingAddRepeat handles POST /api/charting/repeat
func handleChartingAddRepeat(w http.ResponseWriter, r *http.Request) {
	var req chartingRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	e, idx, err := orchestrators.ExecuteAddChartingRepeat(r.Context(), orchestrators.RepeatInput{
		Actor:     currentActor(r),
		EntryID:   req.ID,
		SectionID: req.SectionID,
	}, chartingDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repeatResponse{Entry: e, Index: idx})
}

// handleChartingRemoveRepeat handles POST /api/charting/repeat/remove
func handleChartingRemoveRepeat(w http.ResponseWriter, r *http.Request) {
	var req chartingRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	e, err := orchestrators.ExecuteRemoveChartingRepeat(r.Context(), orchestrators.RepeatInput{
		Actor:     currentActor(r),
		EntryID:   req.ID,
		SectionID: req.SectionID,
		Index:     req.Index,
	}, chartingDeps())
	writeEntry(w, http.StatusOK, e, err)
}

// handleChartingSubmit handles POST /api/charting/submit
func handleChartingSubmit(w http.ResponseWriter, r *http.Request) {
	var req chartingRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	e, err := orchestrators.ExecuteSubmitCharting(r.Context(), orchestrators.ChartingActionInput{
		Actor:   currentActor(r),
		EntryID: req.ID,
	}, chartingDeps())
	writeEntry(w, http.StatusOK, e, err)
}

func writeEntry(w http.ResponseWriter, status int, e charting.Entry, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, e)
}

// handleChartingSummary handles GET /api/charting/summary?id=
func handleChartingSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	summary, err := projections.QueryGetChartingSummary(r.Context(), currentActor(r), id, chartingQueryDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleChartingExport handles GET /api/charting/export?template=&session=|student=
// and streams an XLSX workbook with one sheet per template section.
func handleChartingExport(w http.ResponseWriter, r *http.Request) {
	data, err := projections.QueryGetChartingExport(r.Context(), chartingQuery(r), chartingQueryDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCharting(&buf, data.Template, data.Rows); err != nil {
		internalError(w, err)
		return
	}
	filename := fmt.Sprintf("charting-%s-%s.xlsx", data.Template.ID, timeNow().Format("20060102"))
	writeAttachment(w, export.ContentType, filename, &buf)
}
