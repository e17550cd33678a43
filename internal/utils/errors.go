package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrSlotConflict    = errors.New("slot_conflict")
	ErrBookingNotFound = errors.New("booking_not_found")
	ErrRoomNotFound    = errors.New("room_not_found")
	ErrNotFound        = errors.New("not_found")
	ErrAccessDenied    = errors.New("access_denied")
	ErrRoomInactive    = errors.New("room_inactive")
	ErrWrongStatus     = errors.New("wrong_status")

	ErrInvalidCredentials = errors.New("invalid_credentials")

	// For concurrency conflicts on versioned rows (rooms)
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation_error: %s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
