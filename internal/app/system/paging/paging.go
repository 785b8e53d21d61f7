// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPerPage is used when per_page is absent or invalid.
const DefaultPerPage = 20

// MaxPerPage caps per_page.
const MaxPerPage = 100

// Params is a 1-based page request.
type Params struct {
	Page    int
	PerPage int
}

// Parse reads "page" and "per_page" from the query string, falling back to
// page 1 and DefaultPerPage. per_page is clamped to MaxPerPage.
func Parse(r *http.Request) Params {
	p := Params{Page: 1, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(query.Get(r, "page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(query.Get(r, "per_page")); err == nil && n > 0 {
		p.PerPage = n
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Skip is the number of documents before this page.
func (p Params) Skip() int64 { return int64((p.Page - 1) * p.PerPage) }

// Limit is the page size as int64 for Find().SetLimit().
func (p Params) Limit() int64 { return int64(p.PerPage) }

// Meta builds the response metadata for a total row count.
func (p Params) Meta(total int64) *respond.Meta {
	return &respond.Meta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: TotalPages(total, p.PerPage),
	}
}

// TotalPages returns ceil(total/perPage), or 0 for an empty set.
func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// ParseLimit reads a "limit" query parameter for cursor-style lists.
func ParseLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
