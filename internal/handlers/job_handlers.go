package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"simledger/internal/common"
	"simledger/internal/jobs"
	"simledger/internal/jobs/background"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JobRunner triggers and lists the scheduled background jobs.
type JobRunner interface {
	RunNow(name string) error
	GetJobStatus() []background.JobStatus
}

// ReportArchive writes monthly report snapshots on demand.
type ReportArchive interface {
	ArchiveMonth(ctx context.Context, year int, month time.Month, overwrite bool) (*jobs.ArchiveResult, error)
}

// JobHandlers exposes manual triggers for the background jobs
type JobHandlers struct {
	runner  JobRunner
	archive ReportArchive
	logger  *zap.Logger
}

// NewJobHandlers creates new job handlers
func NewJobHandlers(runner JobRunner, archive ReportArchive, logger *zap.Logger) *JobHandlers {
	return &JobHandlers{
		runner:  runner,
		archive: archive,
		logger:  logger,
	}
}

// ListJobs returns the registered jobs with their last and next run
func (h *JobHandlers) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"jobs": h.runner.GetJobStatus(),
	})
}

// RunJob queues an immediate run of a scheduled job
func (h *JobHandlers) RunJob(c echo.Context) error {
	name := c.Param("name")
	if err := h.runner.RunNow(name); err != nil {
		if errors.Is(err, background.ErrUnknownJob) {
			return common.SendNotFoundError(c, "Job")
		}
		h.logger.Error("failed to trigger job", zap.String("job", name), zap.Error(err))
		return common.SendServerError(c, "Failed to trigger job")
	}

	h.logger.Info("job triggered manually",
		zap.String("job", name),
		zap.String("actor", actorFrom(c)))
	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Job triggered",
		"job":     name,
	})
}

// ArchiveMonth writes the snapshot of a past month. Existing snapshots are
// kept unless overwrite=true.
func (h *JobHandlers) ArchiveMonth(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		return common.SendValidationError(c, "year", "year must be a positive number")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return common.SendValidationError(c, "month", "month must be between 1 and 12")
	}
	overwrite := false
	if raw := c.QueryParam("overwrite"); raw != "" {
		overwrite, err = strconv.ParseBool(raw)
		if err != nil {
			return common.SendValidationError(c, "overwrite", "overwrite must be true or false")
		}
	}

	result, err := h.archive.ArchiveMonth(c.Request().Context(), year, time.Month(month), overwrite)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to archive report")
	}

	h.logger.Info("report archived manually",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Bool("overwrite", overwrite),
		zap.Bool("skipped", result.Skipped),
		zap.String("actor", actorFrom(c)))
	return c.JSON(http.StatusOK, result)
}
