// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows shown in each paged panel.
const PageSize = 5

// MaxPageSize caps the size a caller may request from the API.
const MaxPageSize = 100

// Page is one window over a collection, as returned by the backend.
// Total is the size of the whole collection, not of Items.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// PageCount returns max(1, ceil(total/size)). A non-positive size is
// treated as a single page.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Clamp keeps page inside [1, pageCount].
func Clamp(page, pageCount int) int {
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}

// InRange reports whether page is a valid target in [1, pageCount].
func InRange(page, pageCount int) bool {
	return page >= 1 && page <= pageCount
}

// Skip returns the number of documents to skip for a 1-based page.
// Keep this as int64 because it goes straight into options.Find().SetSkip().
func Skip(page, size int) int64 {
	if page < 1 || size < 1 {
		return 0
	}
	return int64(page-1) * int64(size)
}

// Nav holds the values a pager control needs.
type Nav struct {
	Page      int
	PageCount int
	HasPrev   bool // false disables "previous"
	HasNext   bool // false disables "next"
	PrevPage  int
	NextPage  int
}

// ComputeNav derives the pager state for a view showing page of total rows.
// The page is clamped before the flags are computed.
func ComputeNav(page, total, size int) Nav {
	pc := PageCount(total, size)
	p := Clamp(page, pc)

	n := Nav{
		Page:      p,
		PageCount: pc,
		HasPrev:   p > 1,
		HasNext:   p < pc,
		PrevPage:  p,
		NextPage:  p,
	}
	if n.HasPrev {
		n.PrevPage = p - 1
	}
	if n.HasNext {
		n.NextPage = p + 1
	}
	return n
}

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseSize extracts the "size" query parameter, falling back to def when it
// is missing or invalid and capping it at MaxPageSize.
func ParseSize(r *http.Request, def int) int {
	if def < 1 {
		def = PageSize
	}
	s := query.Get(r, "size")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
