package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors across the engine boundary.
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
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

// NewInvalidTransition rejects an edge missing from the transition table.
func NewInvalidTransition(from, to string) error {
	return NewDomainError("INVALID_TRANSITION",
		fmt.Sprintf("transition %s -> %s is not allowed", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

// NewInvalidState rejects an operation not legal in the current status.
func NewInvalidState(message string, details map[string]any) error {
	return NewDomainError("INVALID_STATE", message, http.StatusConflict, details)
}

// NewWorkerUnavailable signals exhausted assignment capacity for a worker.
func NewWorkerUnavailable(workerID string) error {
	return NewDomainError("WORKER_UNAVAILABLE", "worker has no spare assignment capacity",
		http.StatusConflict, map[string]any{"worker_id": workerID})
}

// NewNoEligibleWorker signals that no team worker qualifies for assignment.
func NewNoEligibleWorker(teamID string) error {
	return NewDomainError("NO_ELIGIBLE_WORKER", "no eligible worker in team",
		http.StatusConflict, map[string]any{"team_id": teamID})
}

// NewDuplicateRating rejects a second rating for a complaint.
func NewDuplicateRating(complaintID string) error {
	return NewDomainError("DUPLICATE_RATING", "complaint already rated",
		http.StatusConflict, map[string]any{"complaint_id": complaintID})
}

// NewConcurrencyConflict signals an optimistic version mismatch after retries
// were exhausted.
func NewConcurrencyConflict(complaintID string) error {
	return NewDomainError("CONCURRENCY_CONFLICT", "complaint was modified concurrently",
		http.StatusConflict, map[string]any{"complaint_id": complaintID})
}

// NewDependencyUnavailable wraps store or queue outages.
func NewDependencyUnavailable(dependency string, err error) error {
	return &DomainError{
		Code:       "DEPENDENCY_UNAVAILABLE",
		Message:    fmt.Sprintf("%s unavailable", dependency),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
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
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to the domain taxonomy.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeOf extracts the taxonomy code, or empty for non-domain errors.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
