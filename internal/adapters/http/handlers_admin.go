package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"skillcoach/internal/adapters/http/perf"
	"skillcoach/internal/application/projections"
	"skillcoach/internal/domain/outbox"
)

// perfTopN is how many of the slowest paths and queries the perf view lists.
const perfTopN = 10

// handleAdminPerf handles GET /api/admin/perf?minutes=
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeJSON(w, http.StatusOK, perf.Snapshot{})
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 {
		minutes = n
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, perfTopN))
}

// handleAdminOutbox handles GET /api/admin/outbox?status=&limit=
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	list, err := projections.QueryGetOutbox(r.Context(), projections.GetOutboxQuery{
		Actor:  currentActor(r),
		Status: q.Get("status"),
		Limit:  limit,
	}, projections.GetOutboxDeps{OutboxStore: stores.OutboxStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleAdminOutboxRetry handles POST /api/admin/outbox/retry
func handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	outboxAction(w, r, services.Outbox.ProcessSingle)
}

// handleAdminOutboxAbandon handles POST /api/admin/outbox/abandon
func handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	outboxAction(w, r, services.Outbox.AbandonEntry)
}

func outboxAction(w http.ResponseWriter, r *http.Request, act func(ctx context.Context, id string) (outbox.Entry, error)) {
	var req idRequest
	if !decodeOr400(w, r, &req) {
		return
	}
	entry, err := act(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
