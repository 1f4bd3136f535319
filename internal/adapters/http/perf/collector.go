package perf

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultRingSize is the capacity used when NewCollector is given a non-positive size.
const DefaultRingSize = 10000

// EntryKind distinguishes HTTP requests from database calls.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is one timing sample.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /api/quizzes" or a DB op name
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector keeps the most recent samples in a fixed ring.
// Record never allocates; aggregation is deferred to Snapshot.
type Collector struct {
	mu       sync.Mutex
	ring     []Entry
	next     int
	requests int64
	queries  int64
}

// NewCollector creates a collector holding up to size samples.
// POST: ring is pre-allocated
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{ring: make([]Entry, size)}
}

// Record stores a sample, overwriting the oldest once the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.ring[c.next] = e
	c.next = (c.next + 1) % len(c.ring)
	if e.Kind == KindRequest {
		c.requests++
	} else {
		c.queries++
	}
	c.mu.Unlock()
}

// TotalRecorded returns the number of samples ever recorded, of either kind.
func (c *Collector) TotalRecorded() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests + c.queries
}

// PathStat aggregates samples sharing a path.
type PathStat struct {
	Path    string  `json:"path"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	TotalMs float64 `json:"totalMs"`
	Errors  int     `json:"errors,omitempty"`
}

// Snapshot is the aggregated view served by the admin perf endpoint.
type Snapshot struct {
	Since          time.Time  `json:"since"`
	TotalRequests  int64      `json:"totalRequests"`
	TotalQueries   int64      `json:"totalQueries"`
	RequestP50Ms   float64    `json:"requestP50Ms"`
	RequestP95Ms   float64    `json:"requestP95Ms"`
	RequestP99Ms   float64    `json:"requestP99Ms"`
	ServerErrors   int        `json:"serverErrors"`
	SlowestPaths   []PathStat `json:"slowestPaths"`
	SlowestQueries []PathStat `json:"slowestQueries"`
}

// Snapshot aggregates samples recorded at or after since.
// Sorting happens here, so callers should not poll it on hot paths.
// POST: SlowestPaths and SlowestQueries hold at most topN entries each
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.ring))
	copy(buf, c.ring)
	snap := Snapshot{Since: since, TotalRequests: c.requests, TotalQueries: c.queries}
	c.mu.Unlock()

	var durations []float64
	reqs := make(map[string]*PathStat)
	qs := make(map[string]*PathStat)

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		bucket := qs
		if e.Kind == KindRequest {
			bucket = reqs
			durations = append(durations, e.DurationMs)
			if e.StatusCode >= 500 {
				snap.ServerErrors++
			}
		}
		add(bucket, e)
	}

	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	snap.SlowestPaths = slowest(reqs, topN)
	snap.SlowestQueries = slowest(qs, topN)
	return snap
}

func add(bucket map[string]*PathStat, e Entry) {
	s, ok := bucket[e.Path]
	if !ok {
		s = &PathStat{Path: e.Path}
		bucket[e.Path] = s
	}
	s.Count++
	s.TotalMs += e.DurationMs
	s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
	if e.StatusCode >= 500 {
		s.Errors++
	}
}

// percentile interpolates linearly between the closest ranks of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// slowest orders by average duration, descending, ties broken by path.
func slowest(bucket map[string]*PathStat, n int) []PathStat {
	out := make([]PathStat, 0, len(bucket))
	for _, s := range bucket {
		s.AvgMs = s.TotalMs / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMs != out[j].AvgMs {
			return out[i].AvgMs > out[j].AvgMs
		}
		return out[i].Path < out[j].Path
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
