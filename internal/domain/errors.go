// Package domain holds the error taxonomy shared by every layer. Repositories
// wrap these sentinels, the authorization guard returns them directly and the
// HTTP edge maps them to status codes in one place.
package domain

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrUserNotFound    = errors.New("user no longer exists")
	ErrInactiveUser    = errors.New("inactive user")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
)

// AppError carries a status code and a client-facing message for failures
// that need more than the sentinel text.
type AppError struct {
	Code    int    // HTTP status code
	Message string // message returned to the client
	Err     error  // wrapped sentinel or cause
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: msg, Err: ErrValidation}
}

func NewConflictError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg, Err: ErrConflict}
}

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg, Err: ErrValidation}
}

// StatusCode maps an error onto the HTTP status the API reports for it.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInactiveUser):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing text for err. Internal errors never leak
// their cause.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if StatusCode(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
