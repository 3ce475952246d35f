package handlers

import (
	"net/http"
	"strings"

	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SessionHandlers exposes the operator session: the distributor picked for
// capture and the ICCIDs pasted but not yet submitted.
type SessionHandlers struct {
	sessionService     services.SessionService
	distributorService services.DistributorService
	logger             *zap.Logger
}

func NewSessionHandlers(sessionService services.SessionService, distributorService services.DistributorService, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{
		sessionService:     sessionService,
		distributorService: distributorService,
		logger:             logger,
	}
}

// OpenSession starts a session for the authenticated operator.
func (h *SessionHandlers) OpenSession(c echo.Context) error {
	actor := actorFrom(c)
	if actor == "" {
		return common.SendUnauthorizedError(c)
	}

	session, err := h.sessionService.Open(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to open session")
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *SessionHandlers) GetSession(c echo.Context) error {
	session, err := h.sessionService.Get(c.Request().Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load session")
	}
	return c.JSON(http.StatusOK, session)
}

func (h *SessionHandlers) CloseSession(c echo.Context) error {
	if err := h.sessionService.Close(c.Request().Context(), c.Param("id"), actorFrom(c)); err != nil {
		return respondError(c, h.logger, err, "Failed to close session")
	}
	return c.NoContent(http.StatusNoContent)
}

// SelectDistributorRequest picks the capture target by id or by code.
type SelectDistributorRequest struct {
	DistribuidorID string `json:"distribuidor_id"`
	CodigoBT       string `json:"codigo_bt"`
}

func (h *SessionHandlers) SelectDistributor(c echo.Context) error {
	if _, err := h.sessionService.Get(c.Request().Context(), c.Param("id"), actorFrom(c)); err != nil {
		return respondError(c, h.logger, err, "Failed to load session")
	}

	var req SelectDistributorRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	ctx := c.Request().Context()
	var (
		d   *models.Distributor
		err error
	)
	switch {
	case strings.TrimSpace(req.DistribuidorID) != "":
		var id uuid.UUID
		if id, err = common.ValidateUUID(req.DistribuidorID, "distribuidor_id"); err != nil {
			return common.SendValidationError(c, "distribuidor_id", err.Error())
		}
		d, err = h.distributorService.GetByID(ctx, id)
	case strings.TrimSpace(req.CodigoBT) != "":
		d, err = h.distributorService.GetByCode(ctx, req.CodigoBT)
	default:
		return common.SendValidationError(c, "distribuidor", "distribuidor_id or codigo_bt is required")
	}
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load distributor")
	}
	if d == nil {
		return common.SendNotFoundError(c, "Distributor")
	}

	session, err := h.sessionService.SelectDistributor(ctx, c.Param("id"), actorFrom(c), d.Snapshot())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update session")
	}
	return c.JSON(http.StatusOK, session)
}

// PendingICCIDsRequest carries raw pasted text; separators are accepted.
type PendingICCIDsRequest struct {
	ICCIDs []string `json:"iccids"`
}

func (h *SessionHandlers) SetPendingICCIDs(c echo.Context) error {
	var req PendingICCIDsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	session, err := h.sessionService.SetPendingICCIDs(c.Request().Context(), c.Param("id"), actorFrom(c), req.ICCIDs)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update session")
	}
	return c.JSON(http.StatusOK, session)
}
