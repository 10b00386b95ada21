package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPaginationParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/notifications", nil)
		params := ExtractPaginationParams(req)
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, 20, params.PageSize)
	})

	t.Run("reads query parameters", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/notifications?page=3&page_size=50", nil)
		params := ExtractPaginationParams(req)
		assert.Equal(t, 3, params.Page)
		assert.Equal(t, 50, params.PageSize)
	})

	t.Run("clamps page size", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/notifications?page_size=5000", nil)
		params := ExtractPaginationParams(req)
		assert.Equal(t, maxPageSize, params.PageSize)
	})

	t.Run("ignores garbage", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/notifications?page=-1&page_size=abc", nil)
		params := ExtractPaginationParams(req)
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, 20, params.PageSize)
	})
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, PaginationParams{Page: 1, PageSize: 20}.Offset())
	assert.Equal(t, 40, PaginationParams{Page: 3, PageSize: 20}.Offset())
}

func TestNewPaginatedResult(t *testing.T) {
	result := NewPaginatedResult([]string{"a", "b"}, PaginationParams{Page: 2, PageSize: 2}, 5)

	assert.Equal(t, 5, result.Pagination.Total)
	assert.Equal(t, 3, result.Pagination.TotalPages)
	assert.True(t, result.Pagination.HasNext)
	assert.True(t, result.Pagination.HasPrev)

	last := NewPaginatedResult([]string{"e"}, PaginationParams{Page: 3, PageSize: 2}, 5)
	assert.False(t, last.Pagination.HasNext)
}
