package utils

import "strconv"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NormalizePage clamps page to >= 1 and limit to [1, MaxPageLimit].
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: CalculateTotalPages(total, limit)}
}

func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func CalculateOffset(page, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * perPage
}

// AtoiDefault parses s or returns def when s is empty or malformed.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
