package handlers

import (
	"errors"
	"net/http"
	"strings"

	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errNoTarget = errors.New("no target distributor")

// EnvioHandlers handles the assignment ledger: capture, correction,
// reassignment, cancellation and deletion of SIM assignments
type EnvioHandlers struct {
	envioService       services.EnvioService
	distributorService services.DistributorService
	sessionService     services.SessionService
	clock              common.Clock
	logger             *zap.Logger
}

func NewEnvioHandlers(
	envioService services.EnvioService,
	distributorService services.DistributorService,
	sessionService services.SessionService,
	clock common.Clock,
	logger *zap.Logger,
) *EnvioHandlers {
	return &EnvioHandlers{
		envioService:       envioService,
		distributorService: distributorService,
		sessionService:     sessionService,
		clock:              clock,
		logger:             logger,
	}
}

// TargetRequest names a distributor by id or code. Both empty means the
// distributor selected in the operator session.
type TargetRequest struct {
	DistribuidorID string `json:"distribuidor_id"`
	CodigoBT       string `json:"codigo_bt"`
}

// CaptureRequest represents a bulk capture. An empty ICCID list submits the
// ICCIDs pending in the session.
type CaptureRequest struct {
	TargetRequest
	ICCIDs        []string `json:"iccids"`
	FechaEnvio    string   `json:"fecha_envio"`
	Observaciones *string  `json:"observaciones"`
}

// Capture registers new ICCIDs for one distributor
func (h *EnvioHandlers) Capture(c echo.Context) error {
	var req CaptureRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	fecha, err := common.ParseDate(req.FechaEnvio, "fecha_envio", h.clock.Location())
	if err != nil {
		return common.SendValidationError(c, "fecha_envio", err.Error())
	}

	ctx := c.Request().Context()
	session := h.currentSession(c)

	iccids := req.ICCIDs
	fromSession := false
	if len(iccids) == 0 && session != nil && len(session.PendingICCIDs) > 0 {
		iccids = session.PendingICCIDs
		fromSession = true
	}

	target, err := h.resolveTarget(c, req.TargetRequest, session)
	if err != nil {
		return h.targetError(c, err)
	}

	result, err := h.envioService.Capture(ctx, models.CaptureRequest{
		ICCIDs:        iccids,
		Distribuidor:  target,
		FechaEnvio:    fecha,
		Observaciones: req.Observaciones,
		Usuario:       actorFrom(c),
	})
	if err != nil {
		return respondError(c, h.logger, err, "Failed to capture envios")
	}

	if fromSession {
		if _, err := h.sessionService.SetPendingICCIDs(ctx, session.ID, session.Actor, nil); err != nil {
			h.logger.Warn("failed to clear pending iccids", zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, result)
}

// GetEnvio returns the latest assignment of an ICCID
func (h *EnvioHandlers) GetEnvio(c echo.Context) error {
	envio, err := h.envioService.GetByICCID(c.Request().Context(), c.Param("iccid"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get envio")
	}
	if envio == nil {
		return common.SendNotFoundError(c, "Envio")
	}
	return c.JSON(http.StatusOK, envio)
}

// GetHistory returns every assignment row and reassignment of an ICCID
func (h *EnvioHandlers) GetHistory(c echo.Context) error {
	history, err := h.envioService.History(c.Request().Context(), c.Param("iccid"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get envio history")
	}
	return c.JSON(http.StatusOK, history)
}

// ICCIDListRequest carries raw pasted ICCIDs
type ICCIDListRequest struct {
	ICCIDs []string `json:"iccids"`
}

// Candidates classifies pasted ICCIDs by the status of their latest assignment
func (h *EnvioHandlers) Candidates(c echo.Context) error {
	var req ICCIDListRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	candidates, err := h.envioService.ActiveCandidates(c.Request().Context(), req.ICCIDs)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to classify iccids")
	}
	return c.JSON(http.StatusOK, candidates)
}

// ChangeRequest moves one ICCID to another distributor
type ChangeRequest struct {
	TargetRequest
	ICCID  string `json:"iccid"`
	Motivo string `json:"motivo"`
}

// BulkChangeRequest moves many ICCIDs to the same distributor
type BulkChangeRequest struct {
	TargetRequest
	ICCIDs []string `json:"iccids"`
	Motivo string   `json:"motivo"`
}

// Correct rewrites the distributor of an assignment in place
func (h *EnvioHandlers) Correct(c echo.Context) error {
	var req ChangeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.ICCID, "iccid"); err != nil {
		return common.SendValidationError(c, "iccid", err.Error())
	}

	target, err := h.resolveTarget(c, req.TargetRequest, h.currentSession(c))
	if err != nil {
		return h.targetError(c, err)
	}

	envio, err := h.envioService.Correct(c.Request().Context(), req.ICCID, target, req.Motivo, actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to correct envio")
	}
	return c.JSON(http.StatusOK, envio)
}

func (h *EnvioHandlers) CorrectMany(c echo.Context) error {
	var req BulkChangeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	target, err := h.resolveTarget(c, req.TargetRequest, h.currentSession(c))
	if err != nil {
		return h.targetError(c, err)
	}

	result, err := h.envioService.CorrectMany(c.Request().Context(), req.ICCIDs, target, req.Motivo, actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to correct envios")
	}
	return c.JSON(http.StatusOK, result)
}

// Reassign retires the active assignment and records the move in history
func (h *EnvioHandlers) Reassign(c echo.Context) error {
	var req ChangeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.ICCID, "iccid"); err != nil {
		return common.SendValidationError(c, "iccid", err.Error())
	}
	if err := common.ValidateRequiredString(req.Motivo, "motivo"); err != nil {
		return common.SendValidationError(c, "motivo", err.Error())
	}

	target, err := h.resolveTarget(c, req.TargetRequest, h.currentSession(c))
	if err != nil {
		return h.targetError(c, err)
	}

	result, err := h.envioService.Reassign(c.Request().Context(), req.ICCID, target, req.Motivo, actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to reassign envio")
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *EnvioHandlers) ReassignMany(c echo.Context) error {
	var req BulkChangeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Motivo, "motivo"); err != nil {
		return common.SendValidationError(c, "motivo", err.Error())
	}

	target, err := h.resolveTarget(c, req.TargetRequest, h.currentSession(c))
	if err != nil {
		return h.targetError(c, err)
	}

	result, err := h.envioService.ReassignMany(c.Request().Context(), req.ICCIDs, target, req.Motivo, actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to reassign envios")
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteRequest permanently removes every row of the listed ICCIDs
type DeleteRequest struct {
	ICCIDs  []string `json:"iccids"`
	Confirm bool     `json:"confirm"`
}

func (h *EnvioHandlers) DeleteMany(c echo.Context) error {
	var req DeleteRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if !req.Confirm {
		return common.SendValidationError(c, "confirm", "deletion must be confirmed")
	}

	result, err := h.envioService.DeleteMany(c.Request().Context(), req.ICCIDs, actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to delete envios")
	}
	return c.JSON(http.StatusOK, result)
}

// DateCorrectionRequest sets a new fecha_envio on the latest row of each ICCID
type DateCorrectionRequest struct {
	ICCIDs     []string `json:"iccids"`
	FechaEnvio string   `json:"fecha_envio"`
	Motivo     string   `json:"motivo"`
}

func (h *EnvioHandlers) CorrectDates(c echo.Context) error {
	var req DateCorrectionRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	fecha, err := common.ParseDate(req.FechaEnvio, "fecha_envio", h.clock.Location())
	if err != nil {
		return common.SendValidationError(c, "fecha_envio", err.Error())
	}
	if fecha == nil {
		return common.SendValidationError(c, "fecha_envio", "fecha_envio is required")
	}

	result, err := h.envioService.CorrectDates(c.Request().Context(), req.ICCIDs, *fecha, req.Motivo, actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to correct dates")
	}
	return c.JSON(http.StatusOK, result)
}

// CancelRequest carries the optional cancellation reason
type CancelRequest struct {
	Motivo string `json:"motivo"`
}

func (h *EnvioHandlers) Cancel(c echo.Context) error {
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	envio, err := h.envioService.Cancel(c.Request().Context(), c.Param("iccid"), req.Motivo, actorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to cancel envio")
	}
	return c.JSON(http.StatusOK, envio)
}

// currentSession returns the operator session named by the request, or nil.
func (h *EnvioHandlers) currentSession(c echo.Context) *models.OperatorSession {
	id, ok := common.GetSessionIDFromContext(c.Request().Context())
	if !ok || h.sessionService == nil {
		return nil
	}
	session, err := h.sessionService.Get(c.Request().Context(), id, actorFrom(c))
	if err != nil {
		if !errors.Is(err, services.ErrSessionNotFound) {
			h.logger.Warn("failed to load session", zap.String("session_id", id), zap.Error(err))
		}
		return nil
	}
	return session
}

// resolveTarget looks up the distributor named in req, falling back to the
// distributor selected in session.
func (h *EnvioHandlers) resolveTarget(c echo.Context, req TargetRequest, session *models.OperatorSession) (models.DistributorSnapshot, error) {
	ctx := c.Request().Context()

	var (
		d   *models.Distributor
		err error
	)
	switch {
	case strings.TrimSpace(req.DistribuidorID) != "":
		var id uuid.UUID
		if id, err = uuid.Parse(strings.TrimSpace(req.DistribuidorID)); err != nil {
			return models.DistributorSnapshot{}, services.NewValidationError("distribuidor_id", "distribuidor_id is not a valid UUID")
		}
		d, err = h.distributorService.GetByID(ctx, id)
	case strings.TrimSpace(req.CodigoBT) != "":
		d, err = h.distributorService.GetByCode(ctx, req.CodigoBT)
	case session != nil && session.SelectedDistributor != nil:
		return *session.SelectedDistributor, nil
	default:
		return models.DistributorSnapshot{}, errNoTarget
	}
	if err != nil {
		return models.DistributorSnapshot{}, err
	}
	if d == nil {
		return models.DistributorSnapshot{}, services.ErrDistributorNotFound
	}
	return d.Snapshot(), nil
}

func (h *EnvioHandlers) targetError(c echo.Context, err error) error {
	if errors.Is(err, errNoTarget) {
		return common.SendValidationError(c, "distribuidor", "select a distributor or send distribuidor_id or codigo_bt")
	}
	return respondError(c, h.logger, err, "Failed to load distributor")
}
