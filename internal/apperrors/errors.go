// Package apperrors defines the outcomes the core returns to its callers.
// Callers match them with errors.Is; the HTTP layer maps them to status codes.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrImport        = errors.New("import failed")
)

// ValidationError reports caller input that failed a presence or file-type
// check. Fields names the offending inputs.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MissingFields builds the error for required fields that were absent or blank.
func MissingFields(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: "missing required fields"}
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: []string{field}, Reason: reason}
}

// ImportError means an uploaded file could not be decoded or parsed at all.
type ImportError struct {
	Cause error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("error processing CSV file: %v", e.Cause)
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

func (e *ImportError) Is(target error) bool {
	return target == ErrImport
}
