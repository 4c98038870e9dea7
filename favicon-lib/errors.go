// ABOUTME: Error types and handling for the favicon library
// ABOUTME: Maps core search failures onto a small set of library error types

package favicons

import (
	"context"
	"errors"
	"fmt"

	ferrors "favicon-finder-api/core/errors"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation indicates a bad site URL or search option
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeNotFound indicates that every strategy failed
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeCancelled indicates the caller's context ended the search
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "internal"

	// ErrorTypeConfiguration indicates a configuration error
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Error represents a structured error from the library
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error with the given type and message
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithCause adds a cause to the error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ErrClientClosed is returned when Find is called on a closed client
var ErrClientClosed = NewError(ErrorTypeInternal, "client is closed")

// wrapFindError translates core failures so callers need not import core packages
func wrapFindError(site string, err error) error {
	var e *Error
	switch {
	case ferrors.IsValidation(err):
		e = NewError(ErrorTypeValidation, "invalid search request")
	case ferrors.IsExhausted(err):
		e = NewError(ErrorTypeNotFound, "no favicon found")
		var fe *ferrors.FaviconError
		if errors.As(err, &fe) {
			e.WithContext("attempts", len(fe.Attempts))
		}
	case ferrors.IsCancelled(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e = NewError(ErrorTypeCancelled, "search cancelled")
	default:
		e = NewError(ErrorTypeInternal, "search failed")
	}
	return e.WithCause(err).WithContext("site", site)
}

func isType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFoundError checks if an error means no strategy found a favicon
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsCancelledError checks if an error is a cancellation
func IsCancelledError(err error) bool {
	return isType(err, ErrorTypeCancelled)
}
