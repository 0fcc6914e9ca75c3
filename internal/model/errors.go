package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoData indicates the calendar has no data for the requested range.
	ErrNoData = errors.New("no data for range")
	// ErrTransient marks connection or transport failures that may succeed
	// on a later attempt.
	ErrTransient = errors.New("transient transport failure")
	// ErrUnauthenticated indicates a stamped write without a signed-in user.
	ErrUnauthenticated = errors.New("user not authenticated")
)

// Transient wraps err so that IsTransient reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// ValidationError is an application-level rejection of bad input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// BatchError reports that some operations of a fan-out failed. Which ones
// succeeded is unknown to the caller; state must be re-read.
type BatchError struct {
	Op     string
	Total  int
	Errors []error
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: %d of %d operations failed: %s",
		e.Op, len(e.Errors), e.Total, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	return e.Errors
}
