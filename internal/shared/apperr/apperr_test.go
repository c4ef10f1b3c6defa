package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type capacityErr struct{ left int }

func (c capacityErr) Error() string  { return "full" }
func (c capacityErr) Kind() Kind     { return Capacity }
func (c capacityErr) Available() int { return c.left }

func TestKindOf(t *testing.T) {
	errTaken := New(Conflict, "seat taken")

	tests := []struct {
		name string
		err  error
		want Kind
		code int
	}{
		{"sentinel", errTaken, Conflict, http.StatusConflict},
		{"wrapped", fmt.Errorf("claim: %w", errTaken), Conflict, http.StatusConflict},
		{"typed", fmt.Errorf("claim: %w", capacityErr{left: 0}), Capacity, http.StatusUnprocessableEntity},
		{"plain", errors.New("db down"), Internal, http.StatusInternalServerError},
		{"nil", nil, Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindOf(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.code, got.HTTPStatus())
		})
	}
}

func TestSentinelIdentity(t *testing.T) {
	a := New(NotFound, "same text")
	b := New(NotFound, "same text")

	assert.True(t, errors.Is(fmt.Errorf("x: %w", a), a))
	assert.False(t, errors.Is(a, b))
}

func TestAvailableOf(t *testing.T) {
	n, ok := AvailableOf(fmt.Errorf("wrap: %w", capacityErr{left: 2}))
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = AvailableOf(New(Conflict, "x"))
	assert.False(t, ok)
}
