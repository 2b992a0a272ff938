package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Conflict, KindOf(New(Conflict, "dup")))
	assert.Equal(t, NotFound, KindOf(fmt.Errorf("outer: %w", New(NotFound, "gone"))))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := Wrap(Conflict, "membership exists", errors.New("unique violation"))
	assert.True(t, errors.Is(err, New(Conflict, "")))
	assert.False(t, errors.Is(err, New(NotFound, "")))
	assert.ErrorContains(t, err, "unique violation")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated: http.StatusUnauthorized,
		Forbidden:       http.StatusForbidden,
		NotFound:        http.StatusNotFound,
		Conflict:        http.StatusConflict,
		InvalidInput:    http.StatusBadRequest,
		Internal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind.String())
	}
}
