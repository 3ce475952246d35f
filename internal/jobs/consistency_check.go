package jobs

import (
	"context"

	"go.uber.org/zap"
)

// DefaultOrphanLimit caps how many orphaned ICCIDs one check reports.
const DefaultOrphanLimit = 500

// OrphanSource finds ICCIDs whose latest row is REASIGNADO with no ACTIVO
// replacement, the footprint of a reassignment that stopped halfway.
type OrphanSource interface {
	OrphanedReassignments(ctx context.Context, limit int) ([]string, error)
}

type ConsistencyCheckService struct {
	source OrphanSource
	logger *zap.Logger
}

type OrphanAlert struct {
	ICCID string
}

func NewConsistencyCheckService(source OrphanSource, logger *zap.Logger) *ConsistencyCheckService {
	return &ConsistencyCheckService{source: source, logger: logger}
}

func (c *ConsistencyCheckService) CheckOrphans(ctx context.Context, limit int) ([]OrphanAlert, error) {
	if limit <= 0 {
		limit = DefaultOrphanLimit
	}

	iccids, err := c.source.OrphanedReassignments(ctx, limit)
	if err != nil {
		c.logger.Error("failed to look up orphaned reassignments", zap.Error(err))
		return nil, err
	}

	alerts := make([]OrphanAlert, 0, len(iccids))
	for _, iccid := range iccids {
		alerts = append(alerts, OrphanAlert{ICCID: iccid})
	}
	return alerts, nil
}

func (c *ConsistencyCheckService) LogOrphans(alerts []OrphanAlert) {
	if len(alerts) == 0 {
		c.logger.Debug("no orphaned reassignments found")
		return
	}

	c.logger.Warn("orphaned reassignments found", zap.Int("count", len(alerts)))
	for _, alert := range alerts {
		c.logger.Warn("iccid has no ACTIVO row after reassignment", zap.String("iccid", alert.ICCID))
	}
}

// ScheduledCheck is the scheduler entry point.
func (c *ConsistencyCheckService) ScheduledCheck(ctx context.Context) error {
	alerts, err := c.CheckOrphans(ctx, DefaultOrphanLimit)
	if err != nil {
		return err
	}
	c.LogOrphans(alerts)
	return nil
}
