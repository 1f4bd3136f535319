package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"skillcoach/internal/adapters/http/perf"
)

// DefaultSlowRequest is used when Timing is given a non-positive threshold.
const DefaultSlowRequest = 200 * time.Millisecond

var requestSeq atomic.Uint64

// statusWriter records the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

var writerPool = sync.Pool{New: func() any { return &statusWriter{} }}

// Timing returns middleware that logs each request's duration, warning with
// slow_request at or above slow, and records it in collector when non-nil.
// Static assets are not timed.
func Timing(collector *perf.Collector, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := writerPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK

			// INVARIANT: runs even when next panics so the writer returns to the pool
			defer func() {
				elapsed := time.Since(start)
				ms := float64(elapsed.Microseconds()) / 1000.0
				attrs := []any{
					"request_id", requestSeq.Add(1),
					"method", r.Method,
					"path", r.URL.Path,
					"status", sw.status,
					"duration_ms", ms,
				}
				if elapsed >= slow {
					slog.Warn("slow_request", attrs...)
				} else {
					slog.Debug("request", attrs...)
				}
				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + r.URL.Path,
						StatusCode: sw.status,
						DurationMs: ms,
						Timestamp:  start,
					})
				}
				sw.ResponseWriter = nil
				writerPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
