// Package apperr defines the error taxonomy surfaced to API clients.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Stable, client-addressable error codes.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// pgLockNotAvailable is raised when SET LOCAL lock_timeout expires.
const pgLockNotAvailable = "55P03"

// Error is an operational error with an HTTP status and optional details.
type Error struct {
	Status    int
	Code      string
	Message   string
	Details   any
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or out-of-policy input.
func Validation(message string, details any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(message string, details any) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message, Details: details}
}

// Unauthorized reports a missing, invalid or expired credential.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

// Forbidden reports an authenticated caller lacking the required role.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

// RateLimited reports a cooldown that is still active.
func RateLimited(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: message, Retryable: true}
}

// Unavailable reports a transient failure the caller may retry.
func Unavailable(message string, err error) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Code: CodeUnavailable, Message: message, Retryable: true, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal server error", Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// FromDB translates persistence errors. Errors that are already *Error pass through.
func FromDB(err error, resource string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(resource+" not found", nil)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Validation("a record with the same unique value already exists", nil)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return Validation("referenced record does not exist", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return Unavailable("database operation timed out, retry later", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return Unavailable("database is busy, retry later", err)
	}

	return Internal(err)
}
