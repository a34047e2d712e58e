package util

import (
	"errors"
	"fmt"
)

// Error codes for ticket workflow failures.
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeUpstreamFailure  = "UPSTREAM_FAILURE"
	CodeDeliveryDegraded = "DELIVERY_DEGRADED"
	CodeInternal         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors. Message is safe to surface
// to the acting user verbatim.
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
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
func NewDomainError(code, message string, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

// NewUnauthorized reports that the actor is not allowed to perform the
// transition.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, nil)
}

// NewNotFound reports a missing ticket category or a channel that is not a
// ticket.
func NewNotFound(message string, details map[string]any) error {
	return NewDomainError(CodeNotFound, message, details)
}

// NewConflict reports that the owner already has an open ticket, or a
// transition attempted from the wrong state.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, details)
}

// NewUpstreamFailure wraps a failed platform collaborator call.
func NewUpstreamFailure(message string, err error) error {
	return &DomainError{Code: CodeUpstreamFailure, Message: message, Err: err}
}

// NewDeliveryDegraded records a transcript that was generated but not fully
// delivered. Non-fatal: never returned from the deletion transition itself.
func NewDeliveryDegraded(targets []string, err error) error {
	return &DomainError{
		Code:    CodeDeliveryDegraded,
		Message: "transcript delivery partially failed",
		Details: map[string]any{"targets": targets},
		Err:     err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:    CodeInternal,
		Message: "something went wrong handling that action",
		Err:     err,
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
	return &DomainError{
		Code:    CodeInternal,
		Message: "something went wrong handling that action",
		Err:     err,
	}
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
