package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated limit/offset parameters
type Params struct {
	Limit  int
	Offset int
}

// Parse extracts and validates limit/offset from query parameters. The
// limit is clamped server-side so a caller cannot request an unbounded
// result set.
func Parse(c *gin.Context) Params {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Meta describes one page of a larger result set.
type Meta struct {
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// PageMeta computes pagination arithmetic for a total and the params that
// produced the page: totalPages = ceil(total/limit), pages are 1-based.
func PageMeta(total int64, p Params) Meta {
	limit := int64(p.Limit)
	offset := int64(p.Offset)
	return Meta{
		TotalCount:  total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: offset/limit + 1,
		HasNextPage: offset+limit < total,
		HasPrevPage: offset > 0,
	}
}
