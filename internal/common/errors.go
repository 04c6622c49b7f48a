package common

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound marks a referenced product, price rule, promotion or cart line that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks caller input that cannot be resolved, such as an unknown tenant or promotion code.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBusinessRule marks a request that is well formed but violates a domain rule.
	ErrBusinessRule = errors.New("business rule violation")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BadRequest builds a field level validation error.
func BadRequest(field, message string, err error) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        errors.Join(ErrInvalidArgument, err),
		Details:    map[string]any{"field": field},
	}
}

// Classify maps an error kind onto the HTTP status and code used by the API.
func Classify(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		return appErr.HTTPStatus, code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, ErrBusinessRule):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
