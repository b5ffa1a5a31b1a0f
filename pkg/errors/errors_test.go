package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrEventFull, "event abc is full")

	assert.Equal(t, "event abc is full", err.Message)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.ErrorIs(t, err, ErrEventFull)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "event has reached its player limit", ErrEventFull.Message)
}

func TestCloneEmptyMessageKeepsOriginal(t *testing.T) {
	err := Clone(ErrNotFound, "")
	assert.Equal(t, ErrNotFound.Message, err.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestWrapUnwrapsCause(t *testing.T) {
	err := Wrap(sql.ErrNoRows, ErrNotFound.Code, ErrNotFound.Status, "event not found")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "event not found: sql: no rows in result set", err.Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := FromError(ErrForbidden)
	assert.Same(t, ErrForbidden, typed)

	generic := FromError(errors.New("boom"))
	require.NotNil(t, generic)
	assert.Equal(t, ErrInternal.Code, generic.Code)
	assert.Equal(t, http.StatusInternalServerError, generic.Status)
	assert.EqualError(t, generic.Unwrap(), "boom")
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, "<nil>", e.Error())
	assert.Nil(t, e.Unwrap())
	assert.False(t, e.Is(ErrInternal))
}
