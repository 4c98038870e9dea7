// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts favicon search errors to appropriate HTTP responses

package handlers

import (
	"context"
	stderrors "errors"

	"github.com/danielgtaylor/huma/v2"

	"favicon-finder-api/core/errors"
)

// toHumaError converts domain errors to appropriate Huma HTTP errors
func toHumaError(err error) error {
	if err == nil {
		return nil
	}

	if errors.IsValidation(err) {
		return huma.Error400BadRequest(err.Error())
	}

	if errors.IsExhausted(err) {
		var fe *errors.FaviconError
		details := make([]error, 0)
		if stderrors.As(err, &fe) {
			for _, attempt := range fe.Attempts {
				details = append(details, attempt)
			}
		}
		return huma.Error404NotFound(err.Error(), details...)
	}

	if errors.IsCancelled(err) || stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return huma.Error504GatewayTimeout("Favicon search did not finish in time", err)
	}

	// Default to internal server error for unknown errors
	return huma.Error500InternalServerError("Internal server error", err)
}
