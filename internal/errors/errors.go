// Package errors provides custom error types for the tillpoint terminal.
// Every session operation reports failure through an AppError so callers get a
// stable code and a human-readable message, while store and library failures
// stay in Internal and are only ever logged.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies of a sentinel still match errors.Is(err, ErrRateLimited).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized        = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials  = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidPIN          = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid PIN", StatusCode: http.StatusUnauthorized}
	ErrForbidden           = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrRateLimited         = &AppError{Code: "RATE_LIMITED", Message: "Too many login attempts. Please wait a few minutes and try again", StatusCode: http.StatusTooManyRequests}
	ErrPendingApproval     = &AppError{Code: "PENDING_APPROVAL", Message: "Your account is pending approval. You will be able to sign in once it has been approved", StatusCode: http.StatusForbidden}
	ErrOperationInProgress = &AppError{Code: "OPERATION_IN_PROGRESS", Message: "Another sign-in is already in progress", StatusCode: http.StatusConflict}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "Something went wrong, please try again", StatusCode: http.StatusInternalServerError}
)

// Credential and token errors.
var (
	ErrHashing = &AppError{Code: "HASHING_ERROR", Message: "Failed to process credentials", StatusCode: http.StatusInternalServerError}
	ErrToken   = &AppError{Code: "TOKEN_ERROR", Message: "Failed to generate authentication token", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "An account with this email already exists", StatusCode: http.StatusConflict}
)
