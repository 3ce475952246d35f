package jobs

import (
	"context"
	"time"

	"simledger/internal/models"

	"go.uber.org/zap"
)

// DashboardSource recomputes the operations overview and caches it.
type DashboardSource interface {
	RefreshDashboard(ctx context.Context) (*models.Dashboard, error)
}

type DashboardRefreshService struct {
	source DashboardSource
	logger *zap.Logger
}

type DashboardRefreshResult struct {
	ActiveAssignments int
	DailyPoints       int
	LastRefreshAt     time.Time
}

func NewDashboardRefreshService(source DashboardSource, logger *zap.Logger) *DashboardRefreshService {
	return &DashboardRefreshService{source: source, logger: logger}
}

// Refresh recomputes the dashboard so request handlers find a warm cache.
func (d *DashboardRefreshService) Refresh(ctx context.Context) (*DashboardRefreshResult, error) {
	dashboard, err := d.source.RefreshDashboard(ctx)
	if err != nil {
		d.logger.Error("dashboard refresh failed", zap.Error(err))
		return nil, err
	}

	result := &DashboardRefreshResult{
		ActiveAssignments: dashboard.Envios.Activos,
		DailyPoints:       len(dashboard.ActividadDiaria),
		LastRefreshAt:     dashboard.GeneratedAt,
	}
	d.logger.Info("dashboard refreshed",
		zap.Int("activos", result.ActiveAssignments),
		zap.Int("daily_points", result.DailyPoints),
	)
	return result, nil
}

// ScheduledRefresh is the scheduler entry point.
func (d *DashboardRefreshService) ScheduledRefresh(ctx context.Context) error {
	start := time.Now()
	defer func() {
		d.logger.Debug("scheduled dashboard refresh finished", zap.Duration("elapsed", time.Since(start)))
	}()

	_, err := d.Refresh(ctx)
	return err
}
