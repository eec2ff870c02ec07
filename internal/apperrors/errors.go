// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports bad input shape or value. RuleIndex is >= 0 when
// the offending input is a segment rule.
type ValidationError struct {
	Message   string
	RuleIndex int
}

func (e *ValidationError) Error() string {
	if e.RuleIndex >= 0 {
		return fmt.Sprintf("rule %d: %s", e.RuleIndex, e.Message)
	}
	return e.Message
}

func NewValidation(msg string) error {
	return &ValidationError{Message: msg, RuleIndex: -1}
}

func NewRuleValidation(index int, msg string) error {
	return &ValidationError{Message: msg, RuleIndex: index}
}

// AuthError reports a missing, invalid, or expired token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func NewAuth(msg string) error { return &AuthError{Message: msg} }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// DuplicateError reports a unique-constraint violation (e.g. customer email).
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func NewDuplicate(field string) error { return &DuplicateError{Field: field} }

// StorageUnavailableError reports a transient backing-store failure.
type StorageUnavailableError struct {
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func NewStorageUnavailable(err error) error {
	return &StorageUnavailableError{Err: err}
}

// ExternalServiceError reports an upstream provider failure (AI, OAuth).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func NewExternalService(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

// StatusCode maps an error to its HTTP status. Unrecognized errors map to 500.
func StatusCode(err error) int {
	var (
		ve *ValidationError
		ae *AuthError
		ne *NotFoundError
		de *DuplicateError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &de):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &ne):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
