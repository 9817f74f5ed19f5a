package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service/integration"
)

// fromRepo turns a repository sentinel into a user-facing error. Anything
// that is not a known sentinel becomes unexpected with op as context.
func fromRepo(err error, op, notFoundMsg string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound(notFoundMsg)
	}
	return apperrors.Unexpectedf(err, "failed to %s", op)
}

func requireCaller(caller *models.User) error {
	if caller == nil {
		return apperrors.Unauthorized("authentication required")
	}
	return nil
}

// maxOffset bounds (page-1)*limit so huge page numbers cannot overflow.
const maxOffset = math.MaxInt32

// paging normalises page/limit query values into limit and offset.
func paging(page, limit, defaultLimit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > maxOffset/limit {
		page = maxOffset/limit + 1
	}
	return page, limit, (page - 1) * limit
}

func parseOrder(order string) (bool, error) {
	switch order {
	case "", "asc":
		return false, nil
	case "desc":
		return true, nil
	default:
		return false, apperrors.Validation(fmt.Sprintf("invalid order %q: use asc or desc", order),
			apperrors.FieldError{Field: "order", Error: "must be asc or desc"})
	}
}

// publish hands an event to the publisher; failures never fail the request.
func publish(ctx context.Context, pub integration.EventPublisher, logger zerolog.Logger, key string, event interface{}) {
	if err := pub.Publish(ctx, key, event); err != nil {
		logger.Error().Err(err).Str("routing_key", key).Msg("Failed to publish event")
	}
}
