package utils

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOn(t *testing.T, target string, d ListDefaults) (*ListQuery, []FieldError) {
	t.Helper()

	app := fiber.New()
	var (
		query *ListQuery
		errs  []FieldError
	)
	app.Get("/items", func(c *fiber.Ctx) error {
		query, errs = ParseListQuery(c, d)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return query, errs
}

func TestParseListQueryDefaults(t *testing.T) {
	q, errs := parseOn(t, "/items", ProductListDefaults)
	require.Nil(t, errs)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 12, q.Limit)
	assert.Equal(t, "created_at desc", q.Order)
	assert.Equal(t, 0, q.Offset())
}

func TestParseListQueryOffset(t *testing.T) {
	for _, tc := range []struct {
		page, limit, offset int
	}{
		{1, 12, 0},
		{2, 12, 12},
		{3, 20, 40},
		{7, 100, 600},
	} {
		q, errs := parseOn(t, fmt.Sprintf("/items?page=%d&limit=%d", tc.page, tc.limit), LeadListDefaults)
		require.Nil(t, errs)
		assert.Equal(t, tc.offset, q.Offset(), "page=%d limit=%d", tc.page, tc.limit)
	}
}

func TestParseListQueryClampsLimit(t *testing.T) {
	q, errs := parseOn(t, "/items?limit=500", ProductListDefaults)
	require.Nil(t, errs)
	assert.Equal(t, MaxListLimit, q.Limit)
}

func TestParseListQueryRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"page below one":    "/items?page=0",
		"page not a number": "/items?page=abc",
		"limit zero":        "/items?limit=0",
		"unknown sort key":  "/items?sortBy=secret",
		"bad sort order":    "/items?sortOrder=sideways",
	}
	for name, target := range cases {
		_, errs := parseOn(t, target, ProductListDefaults)
		assert.NotNil(t, errs, name)
	}
}

func TestParseListQuerySortMapping(t *testing.T) {
	q, errs := parseOn(t, "/items?sortBy=price&sortOrder=asc", ProductListDefaults)
	require.Nil(t, errs)
	assert.Equal(t, "prix asc", q.Order)

	q, errs = parseOn(t, "/items?sortBy=views", ProductListDefaults)
	require.Nil(t, errs)
	assert.Equal(t, "vues desc", q.Order)
}

func TestNewPaginationEnvelope(t *testing.T) {
	p := NewPagination(2, 10, 35)

	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, int64(35), p.TotalItems)
	assert.Equal(t, 10, p.ItemsPerPage)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)
	require.NotNil(t, p.NextPage)
	require.NotNil(t, p.PrevPage)
	assert.Equal(t, 3, *p.NextPage)
	assert.Equal(t, 1, *p.PrevPage)
}

func TestNewPaginationBounds(t *testing.T) {
	first := NewPagination(1, 10, 35)
	assert.False(t, first.HasPrevPage)
	assert.Nil(t, first.PrevPage)
	assert.True(t, first.HasNextPage)

	last := NewPagination(4, 10, 35)
	assert.False(t, last.HasNextPage)
	assert.Nil(t, last.NextPage)
	assert.True(t, last.HasPrevPage)

	exact := NewPagination(1, 10, 10)
	assert.Equal(t, 1, exact.TotalPages)
	assert.False(t, exact.HasNextPage)
	assert.False(t, exact.HasPrevPage)
}

func TestNewPaginationBeyondLastPage(t *testing.T) {
	p := NewPagination(9, 10, 35)

	assert.Equal(t, 4, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)
	assert.Nil(t, p.NextPage)
	require.NotNil(t, p.PrevPage)
	assert.Equal(t, 8, *p.PrevPage)
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(1, 20, 0)

	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, int64(0), p.TotalItems)
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPrevPage)
}
