package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("AUTH_REQUIRED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewLocationUnavailable signals a missing coordinate fix; the caller must
// retry after obtaining one.
func NewLocationUnavailable() error {
	return NewDomainError("LOCATION_UNAVAILABLE", "no location fix available", http.StatusPreconditionFailed, nil)
}

// NewAlreadyClaimed signals a race loss on mission acceptance: another
// rescuer transitioned the request out of PENDING first.
func NewAlreadyClaimed(requestID string) error {
	return NewDomainError("ALREADY_CLAIMED", "request already claimed by another rescuer",
		http.StatusConflict, map[string]any{"request_id": requestID})
}

// NewStatsUpdateFailed reports the completion partial-failure window: the
// mission is completed but the rescuer aggregate update did not land. The
// completion is not rolled back; only the stats step may be retried.
func NewStatsUpdateFailed(requestID string, err error) error {
	return &DomainError{
		Code:       "STATS_UPDATE_FAILED",
		Message:    "mission completed but rescuer statistics were not updated",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"request_id": requestID, "retryable": true},
		Err:        err,
	}
}

// NewUploadFailed reports a photo/document upload error. Non-fatal: the user
// can retry or skip.
func NewUploadFailed(err error) error {
	return &DomainError{
		Code:       "UPLOAD_FAILED",
		Message:    "file upload failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
