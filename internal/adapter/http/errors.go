package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// failureError maps an expected failure to its HTTP error. Aggregated
// validation messages become one error detail each.
func failureError(o domain.Outcome) error {
	msg := o.Message()
	switch o.Kind() {
	case domain.FailureNotFound:
		return huma.Error404NotFound(msg)
	case domain.FailureConflict:
		return huma.Error409Conflict(msg)
	case domain.FailureUnauthenticated:
		return huma.Error401Unauthorized(msg)
	}

	parts := strings.Split(msg, "; ")
	if len(parts) == 1 {
		return huma.Error422UnprocessableEntity(msg)
	}
	details := make([]error, 0, len(parts))
	for _, part := range parts {
		details = append(details, &huma.ErrorDetail{Message: part})
	}
	return huma.Error422UnprocessableEntity("validation failed", details...)
}

// internalError logs err and hides it from the client.
func internalError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	logger.ErrorContext(ctx, "request failed", "operation", op, "error", err)
	return huma.Error500InternalServerError("internal server error")
}

// result unwraps a dispatched Result into its value or an HTTP error.
func result[T any](ctx context.Context, logger *slog.Logger, op string, r domain.Result[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, internalError(ctx, logger, op, err)
	}
	if r.IsFailure() {
		return zero, failureError(r)
	}
	return r.Value(), nil
}
