package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrAccessDenied = errors.New("access denied")
)

// Deny reasons carried by AccessDenied errors. The public API returns these
// verbatim so clients can render the right "share no longer available" message.
const (
	ReasonExpired          = "expired"
	ReasonUsageLimit       = "usage_limit_exceeded"
	ReasonRestricted       = "restricted"
	ReasonPermissionDenied = "permission_denied"
)

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable error message
	Field   string // optional: field causing the error
	Reason  string // optional: machine-readable deny reason
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// AccessDenied returns an AppError for a share that cannot currently be
// served. The reason is one of the Reason* constants and is surfaced to the
// client; the message stays generic and never leaks internal identifiers.
func AccessDenied(reason, message string) *AppError {
	return &AppError{
		Err:     ErrAccessDenied,
		Message: message,
		Reason:  reason,
	}
}

// DenyReason extracts the deny reason from an error chain.
// Returns "" if err is not an AccessDenied error.
func DenyReason(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(err, ErrAccessDenied) {
		return appErr.Reason
	}
	return ""
}
