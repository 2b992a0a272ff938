package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ctxWithQuery(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestParse(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=50&offset=100", 50, 100},
		{"oversized limit clamped", "limit=500", MaxLimit, 0},
		{"zero limit falls back", "limit=0", DefaultLimit, 0},
		{"negative values sanitized", "limit=-5&offset=-10", DefaultLimit, 0},
		{"garbage ignored", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Parse(ctxWithQuery(tc.query))
			assert.Equal(t, tc.wantLimit, p.Limit)
			assert.Equal(t, tc.wantOffset, p.Offset)
		})
	}
}

func TestPageMeta(t *testing.T) {
	m := PageMeta(105, Params{Limit: 50, Offset: 0})
	assert.Equal(t, int64(105), m.TotalCount)
	assert.Equal(t, int64(3), m.TotalPages)
	assert.Equal(t, int64(1), m.CurrentPage)
	assert.True(t, m.HasNextPage)
	assert.False(t, m.HasPrevPage)

	m = PageMeta(105, Params{Limit: 50, Offset: 100})
	assert.Equal(t, int64(3), m.CurrentPage)
	assert.False(t, m.HasNextPage)
	assert.True(t, m.HasPrevPage)

	m = PageMeta(0, Params{Limit: 20, Offset: 0})
	assert.Equal(t, int64(0), m.TotalPages)
	assert.False(t, m.HasNextPage)
}
