package shared

import "math"

const (
	// DefaultPerPage is used when the caller does not supply a limit.
	DefaultPerPage = 20
	// MaxPerPage caps the page size regardless of what was requested.
	MaxPerPage = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ClampPage normalizes a requested page number to >= 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampPerPage normalizes a requested page size into [1, MaxPerPage],
// falling back to DefaultPerPage when unset or negative.
func ClampPerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// NewPagination computes pagination metadata. TotalPages is never below 1 so
// clients can always render a pager.
func NewPagination(page, perPage, total int) Pagination {
	page = ClampPage(page)
	perPage = ClampPerPage(perPage)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
