package util

import (
	"Townhall/internal/api/dto"
)

// NormalizePage 1-based page, size falls back to def and is capped at max
func NormalizePage(page, size, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if size > max {
		size = max
	}
	return page, size
}

// NewPagination page must already be normalized
func NewPagination(page, size int, total int64) *dto.PaginationDTO {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &dto.PaginationDTO{
		CurrentPage: page,
		PageSize:    size,
		TotalPages:  totalPages,
		TotalPosts:  total,
		HasNext:     int64(page)*int64(size) < total,
		HasPrev:     page > 1,
	}
}

// Offset skip for a normalized page
func Offset(page, size int) int64 {
	return int64(page-1) * int64(size)
}
