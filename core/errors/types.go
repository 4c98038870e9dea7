// ABOUTME: Custom error types for the favicon search core
// ABOUTME: Tagged failure kinds shared by strategies, the image fetcher and the search orchestrator

package errors

import (
	"errors"
	"fmt"
	"strings"

	"favicon-finder-api/core/domain"
)

// Kind tags a favicon failure
type Kind string

const (
	// KindNotFound means a single strategy could not locate a candidate URL
	KindNotFound Kind = "not_found"

	// KindNetworkFailure means the candidate bytes could not be retrieved
	KindNetworkFailure Kind = "network_failure"

	// KindEmptyBody means the candidate URL answered with zero bytes
	KindEmptyBody Kind = "empty_body"

	// KindInvalidImage means the bytes did not decode into an image
	KindInvalidImage Kind = "invalid_image"

	// KindAllStrategiesExhausted means every strategy failed
	KindAllStrategiesExhausted Kind = "all_strategies_exhausted"

	// KindCancelled means the search was cancelled before completion
	KindCancelled Kind = "cancelled"
)

// FaviconError is the error value for every favicon failure kind
type FaviconError struct {
	Kind     Kind
	Strategy domain.StrategyKind
	URL      string
	Message  string
	Err      error

	// Attempts holds the per-strategy failures behind an exhaustion error
	Attempts []*FaviconError
}

// Error implements the error interface
func (e *FaviconError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Strategy != "" {
		fmt.Fprintf(&b, " (%s)", e.Strategy)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " [%s]", e.URL)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *FaviconError) Unwrap() error {
	return e.Err
}

// Is matches any FaviconError of the same kind, so the sentinels below work
// with errors.Is
func (e *FaviconError) Is(target error) bool {
	t, ok := target.(*FaviconError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrNotFound               = &FaviconError{Kind: KindNotFound}
	ErrNetworkFailure         = &FaviconError{Kind: KindNetworkFailure}
	ErrEmptyBody              = &FaviconError{Kind: KindEmptyBody}
	ErrInvalidImage           = &FaviconError{Kind: KindInvalidImage}
	ErrAllStrategiesExhausted = &FaviconError{Kind: KindAllStrategiesExhausted}
	ErrCancelled              = &FaviconError{Kind: KindCancelled}
)

// NewNotFound reports that a strategy found nothing usable
func NewNotFound(strategy domain.StrategyKind, url, message string, cause error) *FaviconError {
	return &FaviconError{Kind: KindNotFound, Strategy: strategy, URL: url, Message: message, Err: cause}
}

// NewNetworkFailure reports a transport failure or unusable HTTP status
func NewNetworkFailure(url string, cause error) *FaviconError {
	return &FaviconError{Kind: KindNetworkFailure, URL: url, Message: "failed to download image", Err: cause}
}

// NewEmptyBody reports a zero-byte response
func NewEmptyBody(url string) *FaviconError {
	return &FaviconError{Kind: KindEmptyBody, URL: url, Message: "response body is empty"}
}

// NewInvalidImage reports bytes that failed to decode
func NewInvalidImage(url string, cause error) *FaviconError {
	return &FaviconError{Kind: KindInvalidImage, URL: url, Message: "failed to decode image", Err: cause}
}

// NewExhausted reports that every strategy in the attempt order failed
func NewExhausted(site string, attempts []*FaviconError) *FaviconError {
	return &FaviconError{
		Kind:     KindAllStrategiesExhausted,
		URL:      site,
		Message:  fmt.Sprintf("no favicon found after %d attempts", len(attempts)),
		Attempts: attempts,
	}
}

// NewCancelled reports a search stopped by its context. cause is usually
// ctx.Err() so that errors.Is(err, context.Canceled) keeps working.
func NewCancelled(site string, cause error) *FaviconError {
	return &FaviconError{Kind: KindCancelled, URL: site, Message: "search cancelled", Err: cause}
}

// Classify converts err into a FaviconError attributed to strategy. Errors
// that are not FaviconErrors are tagged with fallback.
func Classify(err error, fallback Kind, strategy domain.StrategyKind) *FaviconError {
	if err == nil {
		return nil
	}

	var fe *FaviconError
	if errors.As(err, &fe) {
		clone := *fe
		if clone.Strategy == "" {
			clone.Strategy = strategy
		}
		return &clone
	}
	return &FaviconError{Kind: fallback, Strategy: strategy, Err: err}
}

// KindOf returns the failure kind of err, or "" if err is not a FaviconError
func KindOf(err error) Kind {
	var fe *FaviconError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsNotFound checks if an error is a NotFound failure
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNetworkFailure checks if an error is a NetworkFailure
func IsNetworkFailure(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}

// IsEmptyBody checks if an error is an EmptyBody failure
func IsEmptyBody(err error) bool {
	return errors.Is(err, ErrEmptyBody)
}

// IsInvalidImage checks if an error is an InvalidImage failure
func IsInvalidImage(err error) bool {
	return errors.Is(err, ErrInvalidImage)
}

// IsExhausted checks if an error reports that all strategies were exhausted
func IsExhausted(err error) bool {
	return errors.Is(err, ErrAllStrategiesExhausted)
}

// IsCancelled checks if an error reports a cancelled search
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// HTTPStatusError represents a non-success HTTP status from a remote site
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// IsHTTPStatus checks if an error is an HTTPStatusError
func IsHTTPStatus(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
