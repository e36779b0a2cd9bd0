package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// MaxListLimit bounds the page size of every listing endpoint.
const MaxListLimit = 100

// ListDefaults configures the listing engine for one entity: its default
// page size, its allow-listed sort keys mapped to store columns, and the
// column used when no sort is requested.
type ListDefaults struct {
	Limit       int
	SortColumns map[string]string
	DefaultSort string
}

// ProductListDefaults covers product listing and search.
var ProductListDefaults = ListDefaults{
	Limit: 12,
	SortColumns: map[string]string{
		"name":      "nom",
		"price":     "prix",
		"createdAt": "created_at",
		"views":     "vues",
	},
	DefaultSort: "created_at",
}

// LeadListDefaults covers lead listing.
var LeadListDefaults = ListDefaults{
	Limit: 20,
	SortColumns: map[string]string{
		"createdAt":    "created_at",
		"followUpDate": "follow_up_date",
		"statut":       "statut",
	},
	DefaultSort: "created_at",
}

// UserListDefaults covers the admin user listing.
var UserListDefaults = ListDefaults{
	Limit: 20,
	SortColumns: map[string]string{
		"name":      "name",
		"email":     "email",
		"createdAt": "created_at",
	},
	DefaultSort: "created_at",
}

// ListQuery is the resolved page/sort state for one listing request.
type ListQuery struct {
	Page  int
	Limit int
	Order string
}

// Offset returns the store skip for the resolved page.
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseListQuery resolves page, limit, sortBy and sortOrder from the request
// against the entity's defaults. Invalid values are reported as field-level
// validation errors, never coerced into silent defaults.
func ParseListQuery(c *fiber.Ctx, d ListDefaults) (*ListQuery, []FieldError) {
	var errs []FieldError

	page := 1
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			errs = append(errs, FieldError{Field: "page", Message: "page doit être un entier positif", Value: raw})
		} else {
			page = v
		}
	}

	limit := d.Limit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			errs = append(errs, FieldError{Field: "limit", Message: "limit doit être un entier positif", Value: raw})
		} else {
			limit = v
		}
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	column := d.DefaultSort
	if raw := c.Query("sortBy"); raw != "" {
		mapped, ok := d.SortColumns[raw]
		if !ok {
			errs = append(errs, FieldError{Field: "sortBy", Message: "critère de tri non reconnu", Value: raw})
		} else {
			column = mapped
		}
	}

	direction := "desc"
	if raw := c.Query("sortOrder"); raw != "" {
		if raw != "asc" && raw != "desc" {
			errs = append(errs, FieldError{Field: "sortOrder", Message: "sortOrder doit être asc ou desc", Value: raw})
		} else {
			direction = raw
		}
	}

	if errs != nil {
		return nil, errs
	}
	return &ListQuery{Page: page, Limit: limit, Order: column + " " + direction}, nil
}

// Pagination is the metadata envelope accompanying every listed result set.
// Counts are taken before skip/limit are applied.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
	NextPage     *int  `json:"nextPage"`
	PrevPage     *int  `json:"prevPage"`
}

// NewPagination builds the envelope for a page of a result set of the given
// total size. A page beyond the last yields an empty page with a consistent
// envelope, not an error.
func NewPagination(page, limit int, total int64) *Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	p := &Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}
