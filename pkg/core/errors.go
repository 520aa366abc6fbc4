// Package core provides the error taxonomy and request decoding shared by
// the HTTP and MCP surfaces.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorCode defines standard error codes
type ErrorCode string

// Standard error codes
const (
	// Client errors
	ErrValidation       ErrorCode = "VALIDATION_ERROR"
	ErrMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrRateLimit        ErrorCode = "RATE_LIMIT"

	// Server errors
	ErrBenchmarkUnavailable ErrorCode = "BENCHMARK_UNAVAILABLE"
	ErrInternalError        ErrorCode = "INTERNAL_ERROR"
)

// FieldError describes one rejected request field. The shape matches the
// FastAPI validation detail that existing clients already parse.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Error is the error body returned by both surfaces
type Error struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Guidance string       `json:"guidance,omitempty"`
	Detail   []FieldError `json:"detail,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new Error with the given code and message
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    string(code),
		Message: message,
	}
}

// WithGuidance adds guidance information to the error
func (e *Error) WithGuidance(guidance string) *Error {
	e.Guidance = guidance
	return e
}

// WithDetail appends field-level detail
func (e *Error) WithDetail(detail ...FieldError) *Error {
	e.Detail = append(e.Detail, detail...)
	return e
}

// HTTPStatus maps the error code to a response status
func (e *Error) HTTPStatus() int {
	switch ErrorCode(e.Code) {
	case ErrValidation:
		return http.StatusUnprocessableEntity
	case ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ToMCPResult converts the error to an MCP tool result
func (e *Error) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}
	return mcp.NewToolResultError(string(errorJSON))
}

// NewValidationError creates an error for rejected input
func NewValidationError(detail ...FieldError) *Error {
	return NewError(ErrValidation, "request validation failed").
		WithDetail(detail...).
		WithGuidance("Please correct the fields listed in detail and try again.")
}

// BenchmarkUnavailable creates an error for a failed benchmark lookup
func BenchmarkUnavailable() *Error {
	return NewError(ErrBenchmarkUnavailable, "electricity benchmark could not be computed").
		WithGuidance("The benchmark model is unavailable. This is not retried automatically.")
}
