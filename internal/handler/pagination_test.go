package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestParsePaginationDefaults(t *testing.T) {
	page, perPage, offset := parsePagination(paginationContext(t, ""))

	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPerPage, perPage)
	assert.Equal(t, 0, offset)
}

func TestParsePaginationOffset(t *testing.T) {
	page, perPage, offset := parsePagination(paginationContext(t, "page=3&per_page=10"))

	assert.Equal(t, 3, page)
	assert.Equal(t, 10, perPage)
	assert.Equal(t, 20, offset)
}

func TestParsePaginationClampsPerPage(t *testing.T) {
	_, perPage, _ := parsePagination(paginationContext(t, "per_page=9999"))
	assert.Equal(t, maxPerPage, perPage)

	_, perPage, _ = parsePagination(paginationContext(t, "per_page=-1"))
	assert.Equal(t, defaultPerPage, perPage)
}

func TestBuildPagination(t *testing.T) {
	p := buildPagination(2, 20, 45)

	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 45, p.TotalItems)
	assert.Equal(t, 3, p.TotalPages)

	empty := buildPagination(1, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
