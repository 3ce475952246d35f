package handlers

import (
	"net/http"

	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DistributorHandlers handles distributor directory requests
type DistributorHandlers struct {
	distributorService services.DistributorService
	logger             *zap.Logger
}

// NewDistributorHandlers creates a new distributor handlers instance
func NewDistributorHandlers(distributorService services.DistributorService, logger *zap.Logger) *DistributorHandlers {
	return &DistributorHandlers{
		distributorService: distributorService,
		logger:             logger,
	}
}

// SearchDistributorsRequest represents query parameters for the directory search
type SearchDistributorsRequest struct {
	Query  string `query:"q"`
	Status string `query:"status"`
	Limit  int    `query:"limit"`
}

// SearchDistributors matches q against code, name and plaza
func (h *DistributorHandlers) SearchDistributors(c echo.Context) error {
	var req SearchDistributorsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	distributors, err := h.distributorService.Search(c.Request().Context(), req.Query, req.Status, req.Limit)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to search distributors")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"distributors": distributors,
		"count":        len(distributors),
	})
}

// ListAllDistributors returns the full directory ordered by code
func (h *DistributorHandlers) ListAllDistributors(c echo.Context) error {
	distributors, err := h.distributorService.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list distributors")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"distributors": distributors,
		"count":        len(distributors),
	})
}

// NextCode suggests the next BT code; it is not reserved
func (h *DistributorHandlers) NextCode(c echo.Context) error {
	code, err := h.distributorService.SuggestNextCode(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to suggest distributor code")
	}
	return c.JSON(http.StatusOK, map[string]string{"codigo_bt": code})
}

func (h *DistributorHandlers) GetStatistics(c echo.Context) error {
	stats, err := h.distributorService.Statistics(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to compute distributor statistics")
	}
	return c.JSON(http.StatusOK, stats)
}

// GetDistributor handles getting distributor details by ID
func (h *DistributorHandlers) GetDistributor(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	distributor, err := h.distributorService.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get distributor")
	}
	if distributor == nil {
		return common.SendNotFoundError(c, "Distributor")
	}
	return c.JSON(http.StatusOK, distributor)
}

func (h *DistributorHandlers) GetDistributorByCode(c echo.Context) error {
	distributor, err := h.distributorService.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get distributor")
	}
	if distributor == nil {
		return common.SendNotFoundError(c, "Distributor")
	}
	return c.JSON(http.StatusOK, distributor)
}

// CreateDistributor handles registering a new distributor
func (h *DistributorHandlers) CreateDistributor(c echo.Context) error {
	var req models.DistributorInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	distributor, err := h.distributorService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create distributor")
	}
	return c.JSON(http.StatusCreated, distributor)
}

// UpdateDistributor applies a partial update; absent fields are kept
func (h *DistributorHandlers) UpdateDistributor(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var patch models.DistributorPatch
	if err := c.Bind(&patch); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if patch.Empty() {
		return common.SendClientError(c, "No fields to update")
	}

	distributor, err := h.distributorService.Update(c.Request().Context(), id, patch)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update distributor")
	}
	return c.JSON(http.StatusOK, distributor)
}

// DeleteDistributor permanently removes a distributor. Requires ?confirm=true.
func (h *DistributorHandlers) DeleteDistributor(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	if c.QueryParam("confirm") != "true" {
		return common.SendValidationError(c, "confirm", "deletion must be confirmed with confirm=true")
	}

	if err := h.distributorService.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, err, "Failed to delete distributor")
	}
	return c.NoContent(http.StatusNoContent)
}
