package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"favicon-finder-api/core/domain"
)

func TestFaviconError_Error(t *testing.T) {
	err := NewNotFound(domain.StrategyHTML, "https://example.com", "no icon links", nil)

	expected := "not_found (html): no icon links [https://example.com]"
	if err.Error() != expected {
		t.Errorf("FaviconError.Error() = %v, want %v", err.Error(), expected)
	}
}

func TestFaviconError_ErrorIncludesCause(t *testing.T) {
	err := NewNetworkFailure("https://example.com/a.png", fmt.Errorf("connection refused"))

	expected := "network_failure: failed to download image [https://example.com/a.png]: connection refused"
	if err.Error() != expected {
		t.Errorf("FaviconError.Error() = %v, want %v", err.Error(), expected)
	}
}

func TestSentinels_MatchByKind(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFound(domain.StrategyICO, "", "", nil), IsNotFound},
		{"network failure", NewNetworkFailure("u", nil), IsNetworkFailure},
		{"empty body", NewEmptyBody("u"), IsEmptyBody},
		{"invalid image", NewInvalidImage("u", nil), IsInvalidImage},
		{"exhausted", NewExhausted("site", nil), IsExhausted},
		{"cancelled", NewCancelled("site", context.Canceled), IsCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("check should match %v", tt.err)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("check should match wrapped %v", wrapped)
			}
		})
	}
}

func TestSentinels_DoNotCrossMatch(t *testing.T) {
	err := NewEmptyBody("u")

	if IsNotFound(err) || IsInvalidImage(err) || IsExhausted(err) || IsCancelled(err) {
		t.Error("EmptyBody should only match its own kind")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain errors should not match")
	}
}

func TestNewCancelled_KeepsContextError(t *testing.T) {
	err := NewCancelled("https://example.com", context.DeadlineExceeded)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cancelled error should unwrap to the context error")
	}
	if IsExhausted(err) {
		t.Error("cancelled must be distinct from exhaustion")
	}
}

func TestNewExhausted_DoesNotUnwrapToAttempts(t *testing.T) {
	attempts := []*FaviconError{NewNotFound(domain.StrategyHTML, "", "", nil)}
	err := NewExhausted("https://example.com", attempts)

	if IsNotFound(err) {
		t.Error("exhaustion should not surface individual failures through errors.Is")
	}
	if len(err.Attempts) != 1 {
		t.Errorf("Attempts = %d, want 1", len(err.Attempts))
	}
}

func TestClassify(t *testing.T) {
	plain := errors.New("boom")
	got := Classify(plain, KindNotFound, domain.StrategyWebManifest)

	if got.Kind != KindNotFound || got.Strategy != domain.StrategyWebManifest {
		t.Errorf("Classify(plain) = %+v", got)
	}
	if !errors.Is(got, plain) {
		t.Error("classified error should wrap the original")
	}

	original := NewEmptyBody("u")
	got = Classify(fmt.Errorf("ctx: %w", original), KindNetworkFailure, domain.StrategyICO)
	if got.Kind != KindEmptyBody {
		t.Errorf("Classify should keep an existing kind, got %s", got.Kind)
	}
	if got.Strategy != domain.StrategyICO {
		t.Errorf("Classify should attribute strategy, got %s", got.Strategy)
	}
	if original.Strategy != "" {
		t.Error("Classify must not mutate the original error")
	}

	if Classify(nil, KindNotFound, domain.StrategyHTML) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(NewInvalidImage("u", nil)) != KindInvalidImage {
		t.Error("KindOf should report invalid_image")
	}
	if KindOf(errors.New("x")) != "" {
		t.Error("KindOf should be empty for foreign errors")
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Field:   "url",
		Message: "must be absolute",
	}

	expected := "validation error on field 'url': must be absolute"
	if err.Error() != expected {
		t.Errorf("ValidationError.Error() = %v, want %v", err.Error(), expected)
	}
	if !IsValidation(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsValidation should see through wrapping")
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := &HTTPStatusError{URL: "https://example.com/favicon.ico", StatusCode: 404}

	expected := "unexpected status 404 from https://example.com/favicon.ico"
	if err.Error() != expected {
		t.Errorf("HTTPStatusError.Error() = %v, want %v", err.Error(), expected)
	}
	if !IsHTTPStatus(NewNetworkFailure("u", err)) {
		t.Error("IsHTTPStatus should see through FaviconError")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}

	original := errors.New("original")
	wrapped := WrapError(original, "loading page")
	if wrapped.Error() != "loading page: original" {
		t.Errorf("WrapError() = %v", wrapped)
	}
	if !errors.Is(wrapped, original) {
		t.Error("WrapError should preserve the chain")
	}
}
