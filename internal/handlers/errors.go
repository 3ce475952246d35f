package handlers

import (
	"errors"

	"simledger/internal/analytics"
	"simledger/internal/common"
	"simledger/internal/jobs"
	"simledger/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError maps service errors onto the common error envelope. Anything
// unrecognised is logged and reported as a generic server error.
func respondError(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	if field, message, ok := services.ValidationField(err); ok {
		return common.SendValidationError(c, field, message)
	}

	switch {
	case errors.Is(err, services.ErrNoICCIDs),
		errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, analytics.ErrInvalidFilter):
		return common.SendClientError(c, err.Error())
	case errors.Is(err, services.ErrDuplicateCode),
		errors.Is(err, services.ErrActiveAssignmentExists):
		return common.SendConflictError(c, err.Error())
	case errors.Is(err, services.ErrDistributorNotFound):
		return common.SendNotFoundError(c, "Distributor")
	case errors.Is(err, services.ErrEnvioNotFound):
		return common.SendNotFoundError(c, "Envio")
	case errors.Is(err, services.ErrSessionNotFound):
		return common.SendNotFoundError(c, "Session")
	case errors.Is(err, jobs.ErrReportNotArchived):
		return common.SendNotFoundError(c, "Archived report")
	}

	logger.Error(fallback,
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return common.SendServerError(c, fallback)
}

// actorFrom returns the authenticated operator label, empty when absent so the
// ledger falls back to its default actor.
func actorFrom(c echo.Context) string {
	actor, _ := common.GetActorFromContext(c.Request().Context())
	return actor
}
