// Package listutil parses list query parameters and shapes paged JSON responses.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// MaxPerPage caps per_page regardless of what the client asks for.
const MaxPerPage = 200

// MaxPage caps page so that Offset cannot overflow.
const MaxPage = 1_000_000

// Params are the list options taken from a query string:
// page, per_page, sort, dir, q, and any allowed exact-match filters.
type Params struct {
	Page    int
	PerPage int
	Sort    string // empty when the requested column is not allowed
	Dir     string // "asc" or "desc"
	Search  string
	Filters map[string]string
}

// PageInfo is pagination metadata returned alongside a page of items.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is the JSON envelope for a paged listing.
type Page[T any] struct {
	Items []T      `json:"items"`
	Info  PageInfo `json:"page"`
}

// Parse reads list parameters from q.
// POST: 1 <= Page <= MaxPage; 1 <= PerPage <= MaxPerPage; Dir is "asc" or "desc";
// Filters holds only keys listed in filterKeys
func Parse(q url.Values, sortColumns, filterKeys []string) Params {
	p := Params{
		Page:    1,
		PerPage: DefaultPerPage,
		Dir:     "asc",
		Search:  strings.TrimSpace(q.Get("q")),
		Filters: make(map[string]string),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = min(n, MaxPage)
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 {
		p.PerPage = min(n, MaxPerPage)
	}
	if s := q.Get("sort"); slices.Contains(sortColumns, s) {
		p.Sort = s
	}
	if q.Get("dir") == "desc" {
		p.Dir = "desc"
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// Offset returns the row offset of the requested page.
// POST: 0 <= Offset() < MaxPage*MaxPerPage, even for hand-built Params
func (p Params) Offset() int {
	page := min(max(p.Page, 1), MaxPage)
	perPage := min(max(p.PerPage, 1), MaxPerPage)
	return (page - 1) * perPage
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	return PageInfo{
		Page:       min(max(page, 1), totalPages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// NewPage wraps items with their pagination metadata. A nil slice is
// returned as an empty JSON array.
func NewPage[T any](items []T, p Params, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Info: NewPageInfo(p.Page, p.PerPage, total)}
}
