package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/services"

	"go.uber.org/zap"
)

// ErrReportNotArchived is returned when a month has no stored snapshot.
var ErrReportNotArchived = errors.New("monthly report not archived")

// DownloadExpiry is the lifetime of presigned report links.
const DownloadExpiry = 24 * time.Hour

// PeriodSource is the reporting surface the archiver reads from.
type PeriodSource interface {
	PeriodAnalysis(ctx context.Context, from, to time.Time) (*models.PeriodAnalysis, error)
	SearchEnvios(ctx context.Context, filter models.EnvioFilter) ([]*models.Envio, error)
}

// MonthlyReport is the JSON document stored per archived month.
type MonthlyReport struct {
	Year        int                    `json:"year"`
	Month       int                    `json:"month"`
	GeneratedAt time.Time              `json:"generated_at"`
	Resumen     *models.PeriodAnalysis `json:"resumen"`
	Envios      []*models.Envio        `json:"envios"`
}

type ArchiveResult struct {
	Object  string `json:"object"`
	Records int    `json:"records"`
	Skipped bool   `json:"skipped"`
}

type ReportArchiver struct {
	source PeriodSource
	store  services.ReportStore
	clock  common.Clock
	logger *zap.Logger
}

func NewReportArchiver(source PeriodSource, store services.ReportStore, clock common.Clock, logger *zap.Logger) *ReportArchiver {
	return &ReportArchiver{source: source, store: store, clock: clock, logger: logger}
}

// ArchiveMonth snapshots every envío dated in the month into the object store.
// An existing snapshot is kept unless overwrite is set.
func (r *ReportArchiver) ArchiveMonth(ctx context.Context, year int, month time.Month, overwrite bool) (*ArchiveResult, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	object := services.MonthlyReportObject(year, month)

	if !overwrite {
		exists, err := r.store.ReportExists(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to check archived report: %w", err)
		}
		if exists {
			r.logger.Debug("monthly report already archived", zap.String("object", object))
			return &ArchiveResult{Object: object, Skipped: true}, nil
		}
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, r.clock.Location())
	to := from.AddDate(0, 1, -1)

	summary, err := r.source.PeriodAnalysis(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s: %w", from.Format("2006-01"), err)
	}
	envios, err := r.source.SearchEnvios(ctx, models.EnvioFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to collect envios for %s: %w", from.Format("2006-01"), err)
	}

	data, err := json.Marshal(MonthlyReport{
		Year:        year,
		Month:       int(month),
		GeneratedAt: r.clock.Now(),
		Resumen:     summary,
		Envios:      envios,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	if err := r.store.PutReport(ctx, object, data); err != nil {
		return nil, err
	}

	r.logger.Info("monthly report archived",
		zap.String("object", object),
		zap.Int("records", len(envios)),
		zap.Int("bytes", len(data)),
	)
	return &ArchiveResult{Object: object, Records: len(envios)}, nil
}

// DownloadURL returns a presigned link to an archived month.
func (r *ReportArchiver) DownloadURL(ctx context.Context, year int, month time.Month) (string, error) {
	object := services.MonthlyReportObject(year, month)
	exists, err := r.store.ReportExists(ctx, object)
	if err != nil {
		return "", fmt.Errorf("failed to check archived report: %w", err)
	}
	if !exists {
		return "", ErrReportNotArchived
	}
	return r.store.GetPresignedURL(ctx, object, DownloadExpiry)
}

// ScheduledArchive archives the month before the current regional date.
func (r *ReportArchiver) ScheduledArchive(ctx context.Context) error {
	today := r.clock.Today()
	previous := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, -1, 0)
	_, err := r.ArchiveMonth(ctx, previous.Year(), previous.Month(), false)
	if err != nil {
		r.logger.Error("scheduled report archive failed", zap.Error(err))
	}
	return err
}
