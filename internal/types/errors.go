package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// FieldError describes a single invalid or missing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError indicates a request that failed validation. No state was changed.
type ValidationError struct {
	Op     string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: validation failed", e.Op)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s - %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: validation failed: %s", e.Op, strings.Join(parts, "; "))
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: []FieldError{{Field: field, Message: message}}}
}

// AuthorizationError indicates the actor may not perform the action. No state was changed.
type AuthorizationError struct {
	ActorID uuid.UUID
	Action  string
	Reason  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s may not %s: %s", e.ActorID, e.Action, e.Reason)
}

// ReferenceError indicates an identifier or stage name that does not resolve.
type ReferenceError struct {
	Kind    string
	ID      string
	Message string
}

func (e *ReferenceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Message)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound builds a ReferenceError for a missing record.
func NotFound(kind string, id uuid.UUID) *ReferenceError {
	return &ReferenceError{Kind: kind, ID: id.String()}
}

// StoreError wraps an infrastructure failure from the persistence layer.
// Reads are safe to retry; mutations must be re-checked before retrying.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// IsDomainError reports whether err is one of the typed, caller-facing errors.
func IsDomainError(err error) bool {
	var (
		ve *ValidationError
		ae *AuthorizationError
		re *ReferenceError
		se *StoreError
	)
	return errors.As(err, &ve) || errors.As(err, &ae) || errors.As(err, &re) || errors.As(err, &se)
}
