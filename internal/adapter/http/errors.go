package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(ctx context.Context, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		details := make([]error, len(vErr.Fields))
		for i, f := range vErr.Fields {
			details[i] = &huma.ErrorDetail{Location: "body." + f.Field, Message: f.Message}
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	// Lost status updates arrive here too, as a conflict on "status".
	var cErr *domain.ConflictError
	if errors.As(err, &cErr) {
		return huma.Error409Conflict(err.Error())
	}

	switch {
	case errors.Is(err, domain.ErrAgentNotFound):
		return huma.Error404NotFound("agent not found")
	case errors.Is(err, domain.ErrOrderNotFound):
		return huma.Error404NotFound("order not found")
	case errors.Is(err, domain.ErrProductNotFound):
		return huma.Error404NotFound("product not found")
	case errors.Is(err, domain.ErrPlanNotFound):
		return huma.Error404NotFound("plan not found")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return huma.Error401Unauthorized("invalid email or password")
	case errors.Is(err, domain.ErrUnauthenticated):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, domain.ErrAccessDenied):
		return huma.Error403Forbidden("access denied")
	case errors.Is(err, domain.ErrAgentInactive):
		return huma.Error403Forbidden("agent is not active")
	case errors.Is(err, context.DeadlineExceeded):
		slog.WarnContext(ctx, "request deadline exceeded", "error", err)
		return huma.Error504GatewayTimeout("upstream timed out")
	}

	var gErr *domain.GatewayError
	if errors.As(err, &gErr) {
		slog.ErrorContext(ctx, "record store failure", "op", gErr.Op, "error", gErr.Err)
		return huma.Error502BadGateway("record store unavailable")
	}

	slog.ErrorContext(ctx, "unhandled error", "error", err)
	return huma.Error500InternalServerError("internal server error")
}
