package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"simledger/internal/common"
	"simledger/internal/jobs"
	"simledger/internal/models"
	"simledger/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportingService is the read side the report endpoints serve from.
type ReportingService interface {
	SearchEnvios(ctx context.Context, filter models.EnvioFilter) ([]*models.Envio, error)
	Statistics(ctx context.Context) (*models.EnvioStats, error)
	AssignmentsForDistributor(ctx context.Context, codigoBT, estatus string) ([]*models.Envio, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	MonthlySupply(ctx context.Context, year int, codigoBT string) (*models.MonthlySupply, error)
	PeriodAnalysis(ctx context.Context, from, to time.Time) (*models.PeriodAnalysis, error)
}

// ReportDownloader hands out links to archived monthly snapshots.
type ReportDownloader interface {
	DownloadURL(ctx context.Context, year int, month time.Month) (string, error)
}

// ReportHandlers serves the reporting endpoints
type ReportHandlers struct {
	reports ReportingService
	archive ReportDownloader
	clock   common.Clock
	logger  *zap.Logger
}

func NewReportHandlers(reports ReportingService, archive ReportDownloader, clock common.Clock, logger *zap.Logger) *ReportHandlers {
	return &ReportHandlers{
		reports: reports,
		archive: archive,
		clock:   clock,
		logger:  logger,
	}
}

// SearchEnviosRequest represents query parameters for the envío search
type SearchEnviosRequest struct {
	ICCID    string `query:"iccid"`
	CodigoBT string `query:"codigo_bt"`
	From     string `query:"from"`
	To       string `query:"to"`
	Estatus  string `query:"estatus"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

// SearchEnvios lists envíos matching every supplied filter, newest first
func (h *ReportHandlers) SearchEnvios(c echo.Context) error {
	var req SearchEnviosRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	from, to, err := h.parseRange(req.From, req.To)
	if err != nil {
		return respondError(c, h.logger, err, "Invalid date range")
	}

	envios, err := h.reports.SearchEnvios(c.Request().Context(), models.EnvioFilter{
		ICCID:    req.ICCID,
		CodigoBT: req.CodigoBT,
		From:     from,
		To:       to,
		Estatus:  req.Estatus,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Failed to search envios")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"envios": envios,
		"count":  len(envios),
	})
}

func (h *ReportHandlers) GetStatistics(c echo.Context) error {
	stats, err := h.reports.Statistics(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to compute statistics")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *ReportHandlers) GetDashboard(c echo.Context) error {
	dashboard, err := h.reports.Dashboard(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to build dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

// DistributorEnvios lists the assignments of one distributor code, ACTIVO by default
func (h *ReportHandlers) DistributorEnvios(c echo.Context) error {
	envios, err := h.reports.AssignmentsForDistributor(c.Request().Context(), c.Param("code"), c.QueryParam("estatus"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list distributor envios")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"envios": envios,
		"count":  len(envios),
	})
}

// MonthlySupply reports month-by-month supply for ?year= (default current year)
func (h *ReportHandlers) MonthlySupply(c echo.Context) error {
	year := h.clock.Today().Year()
	if raw := c.QueryParam("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return common.SendValidationError(c, "year", "year must be a number")
		}
		year = parsed
	}

	report, err := h.reports.MonthlySupply(c.Request().Context(), year, c.QueryParam("code"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to build monthly supply report")
	}
	return c.JSON(http.StatusOK, report)
}

// PeriodAnalysis summarizes ?from=&to=; both default to the last 30 days
func (h *ReportHandlers) PeriodAnalysis(c echo.Context) error {
	from, to, err := h.parseRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return respondError(c, h.logger, err, "Invalid date range")
	}

	today := h.clock.Today()
	if to == nil {
		to = &today
	}
	if from == nil {
		start := to.AddDate(0, 0, -29)
		from = &start
	}

	report, err := h.reports.PeriodAnalysis(c.Request().Context(), *from, *to)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to build period analysis")
	}
	return c.JSON(http.StatusOK, report)
}

// ArchivedReport returns a presigned link to the stored snapshot of a month
func (h *ReportHandlers) ArchivedReport(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return common.SendValidationError(c, "year", "year must be a number")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return common.SendValidationError(c, "month", "month must be between 1 and 12")
	}

	url, err := h.archive.DownloadURL(c.Request().Context(), year, time.Month(month))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to locate archived report")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"year":       year,
		"month":      month,
		"url":        url,
		"expires_in": int(jobs.DownloadExpiry.Seconds()),
	})
}

// parseRange parses optional from/to dates in the regional timezone.
func (h *ReportHandlers) parseRange(rawFrom, rawTo string) (*time.Time, *time.Time, error) {
	loc := h.clock.Location()
	from, err := common.ParseDate(rawFrom, "from", loc)
	if err != nil {
		return nil, nil, services.NewValidationError("from", err.Error())
	}
	to, err := common.ParseDate(rawTo, "to", loc)
	if err != nil {
		return nil, nil, services.NewValidationError("to", err.Error())
	}
	if from != nil && to != nil {
		if err := common.ValidateDateRange(*from, *to); err != nil {
			return nil, nil, services.NewValidationError("to", err.Error())
		}
	}
	return from, to, nil
}
