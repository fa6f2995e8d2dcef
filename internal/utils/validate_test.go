package utils

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_errors "github.com/arbor-dev/arbor/internal/errors"
)

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var e *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
}

func TestTitleValidation(t *testing.T) {
	v := &ThreadValidator{}

	assert.NoError(t, v.Title(""))
	assert.NoError(t, v.Title("A perfectly ordinary title"))
	assert.NoError(t, v.Title(strings.Repeat("a", 300)))
	assertValidationError(t, v.Title(strings.Repeat("a", 301)))
}

func TestContentValidation(t *testing.T) {
	v := &ThreadValidator{}

	assert.NoError(t, v.Content("some content"))
	assert.NoError(t, v.Content(strings.Repeat("a", 40000)))
	assertValidationError(t, v.Content(""))
	assertValidationError(t, v.Content("   \n\t "))
	assertValidationError(t, v.Content(strings.Repeat("a", 40001)))
}
