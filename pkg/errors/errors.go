package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the class of a failure as seen by the user.
type ErrorType string

const (
	// Rejected before any state mutation (wrong file type, oversized file, bad settings).
	ErrorTypeInvalidInput ErrorType = "INVALID_INPUT"
	// The rasterization service could not parse the document.
	ErrorTypeLoadFailure ErrorType = "LOAD_FAILURE"
	// A single page failed to rasterize.
	ErrorTypeRenderError ErrorType = "RENDER_ERROR"
	// Any step of export failed.
	ErrorTypeExportFailure ErrorType = "EXPORT_FAILURE"
	// The request collides with work already in flight.
	ErrorTypeConflict ErrorType = "CONFLICT"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Page    int
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.Page)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithPage attaches the page number the failure belongs to
func (e *AppError) WithPage(page int) *AppError {
	e.Page = page
	return e
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string) *AppError {
	return &AppError{Type: ErrorTypeInvalidInput, Message: message}
}

// NewLoadFailureError creates a document load error
func NewLoadFailureError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeLoadFailure, Message: message, Cause: cause}
}

// NewRenderError creates a per-page render error
func NewRenderError(page int, cause error) *AppError {
	return &AppError{Type: ErrorTypeRenderError, Message: "page could not be rendered", Page: page, Cause: cause}
}

// NewExportFailureError creates an export error
func NewExportFailureError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeExportFailure, Message: message, Cause: cause}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// IsType reports whether err (or anything it wraps) is an AppError of type t.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// TypeOf returns the type of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// UserMessage turns err into a notification title and description.
func UserMessage(err error) (title, description string) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "Something went wrong", err.Error()
	}
	switch appErr.Type {
	case ErrorTypeInvalidInput:
		return "Invalid input", appErr.Message
	case ErrorTypeLoadFailure:
		return "Error loading PDF", "Please try again with a different file."
	case ErrorTypeRenderError:
		return "Error rendering page", fmt.Sprintf("Page %d could not be displayed.", appErr.Page)
	case ErrorTypeExportFailure:
		return "Export failed", "Your edits are still here. Please try again."
	case ErrorTypeConflict:
		return "Please wait", appErr.Message
	}
	return "Error", appErr.Message
}
