package common

import (
	"net/http"
	"strconv"
)

// MaxPerPage bounds the page size accepted from clients.
const MaxPerPage = 100

// Pagination is the page window requested by a client and, once a list has
// been counted, the totals reported back to it.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Offset returns the row offset of the page.
func (p Pagination) Offset() int {
	return (max(p.Page, 1) - 1) * p.PerPage
}

// WithTotal fills in the totals for a list of total rows.
func (p Pagination) WithTotal(total int64) Pagination {
	p.TotalItems = int(total)
	p.TotalPages = 0
	if p.PerPage > 0 {
		p.TotalPages = (p.TotalItems + p.PerPage - 1) / p.PerPage
	}
	return p
}

// ParsePagination reads the page and limit query parameters. Missing or
// non-positive values keep the defaults and limit is capped at MaxPerPage.
func ParsePagination(r *http.Request, defaultPerPage int) Pagination {
	q := r.URL.Query()
	return Pagination{
		Page:    positiveOr(q.Get("page"), 1),
		PerPage: min(positiveOr(q.Get("limit"), defaultPerPage), MaxPerPage),
	}
}

func positiveOr(raw string, fallback int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}
