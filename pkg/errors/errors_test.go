package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WrapsCause(t *testing.T) {
	cause := errors.New("bad xref table")
	err := fmt.Errorf("loading: %w", NewLoadFailureError("cannot parse document", cause))

	assert.True(t, IsType(err, ErrorTypeLoadFailure))
	assert.False(t, IsType(err, ErrorTypeRenderError))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeLoadFailure, TypeOf(err))
}

func TestAppError_MessageIncludesPage(t *testing.T) {
	err := NewRenderError(3, errors.New("boom"))
	assert.Contains(t, err.Error(), "page 3")
	assert.Contains(t, err.Error(), "boom")
}

func TestUserMessage(t *testing.T) {
	title, desc := UserMessage(NewInvalidInputError("File too large"))
	assert.Equal(t, "Invalid input", title)
	assert.Equal(t, "File too large", desc)

	title, _ = UserMessage(NewExportFailureError("save failed", nil))
	assert.Equal(t, "Export failed", title)

	title, desc = UserMessage(errors.New("plain"))
	assert.Equal(t, "Something went wrong", title)
	assert.Equal(t, "plain", desc)

	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
