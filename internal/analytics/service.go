package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simledger/internal/caching"
	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/repositories"

	"go.uber.org/zap"
)

const (
	// pageSize is the backend's practical per-request row cap.
	pageSize = 1000

	// CacheTTL bounds how stale a cached aggregate may be.
	CacheTTL = 5 * time.Minute

	dashboardWindowDays = 30
	dashboardTopLimit   = 10
	periodTopLimit      = 15
)

// ErrInvalidFilter marks report parameters rejected before any query runs.
var ErrInvalidFilter = errors.New("invalid report filter")

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// AnalyticsService handles read-only reporting over the ledger and caching of
// the aggregate views.
type AnalyticsService struct {
	envioRepo       repositories.EnvioRepository
	distributorRepo repositories.DistributorRepository
	cacheService    caching.CacheService
	clock           common.Clock
	logger          *zap.Logger
}

// NewAnalyticsService wires the reporting layer. cacheService may be nil.
func NewAnalyticsService(envioRepo repositories.EnvioRepository, distributorRepo repositories.DistributorRepository, cacheService caching.CacheService, clock common.Clock, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		envioRepo:       envioRepo,
		distributorRepo: distributorRepo,
		cacheService:    cacheService,
		clock:           clock,
		logger:          logger,
	}
}

// SearchEnvios runs a filtered search ordered by creation time, newest first.
// A limit outside (0, 1000] fetches page after page of 1000 rows until a short
// page arrives or, for limits above 1000, the requested number is reached.
func (a *AnalyticsService) SearchEnvios(ctx context.Context, filter models.EnvioFilter) ([]*models.Envio, error) {
	if filter.Estatus != "" && !models.ValidEnvioStatus(filter.Estatus) {
		return nil, fmt.Errorf("%w: unknown estatus %q", ErrInvalidFilter, filter.Estatus)
	}
	filter.ICCID = common.SanitizeSearchQuery(filter.ICCID)
	filter.CodigoBT = common.SanitizeSearchQuery(filter.CodigoBT)

	if filter.Limit > 0 && filter.Limit <= pageSize {
		return a.envioRepo.Search(ctx, filter)
	}

	want := filter.Limit
	all := []*models.Envio{}
	page := filter
	page.Limit = pageSize
	for {
		rows, err := a.envioRepo.Search(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch envios at offset %d: %w", page.Offset, err)
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			break
		}
		if want > 0 && len(all) >= want {
			break
		}
		page.Offset += pageSize
	}
	if want > 0 && len(all) > want {
		all = all[:want]
	}
	return all, nil
}

// Statistics counts envíos per status.
func (a *AnalyticsService) Statistics(ctx context.Context) (*models.EnvioStats, error) {
	if a.cacheService != nil {
		cached, err := a.cacheService.GetEnvioStats(ctx)
		if err != nil {
			a.logger.Warn("envio stats cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	counts, err := a.envioRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count envios: %w", err)
	}
	stats := envioStats(counts)

	if a.cacheService != nil {
		if err := a.cacheService.SetEnvioStats(ctx, stats, CacheTTL); err != nil {
			a.logger.Warn("envio stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// AssignmentsForDistributor lists a distributor's envíos, ACTIVO by default,
// most recent fecha_envio first.
func (a *AnalyticsService) AssignmentsForDistributor(ctx context.Context, codigoBT, estatus string) ([]*models.Envio, error) {
	if estatus == "" {
		estatus = models.EnvioActive
	}
	if !models.ValidEnvioStatus(estatus) {
		return nil, fmt.Errorf("%w: unknown estatus %q", ErrInvalidFilter, estatus)
	}
	return a.envioRepo.ListByDistributor(ctx, codigoBT, estatus)
}

// Dashboard returns the operations overview, from cache when warm.
func (a *AnalyticsService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	if a.cacheService != nil {
		cached, err := a.cacheService.GetDashboard(ctx)
		if err != nil {
			a.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}
	return a.RefreshDashboard(ctx)
}

// RefreshDashboard recomputes the overview and stores it in the cache.
func (a *AnalyticsService) RefreshDashboard(ctx context.Context) (*models.Dashboard, error) {
	counts, err := a.envioRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count envios: %w", err)
	}
	distributorCounts, err := a.distributorRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count distributors: %w", err)
	}

	today := a.clock.Today()
	since := today.AddDate(0, 0, -dashboardWindowDays)
	recent, err := a.envioRepo.CountSince(ctx, models.EnvioActive, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent envios: %w", err)
	}
	daily, err := a.envioRepo.DailyCounts(ctx, models.EnvioActive, since, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily activity: %w", err)
	}
	top, err := a.envioRepo.TopDistributors(ctx, models.EnvioActive, nil, nil, dashboardTopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank distributors: %w", err)
	}

	dashboard := &models.Dashboard{
		Envios:                *envioStats(counts),
		DistribuidoresActivos: distributorCounts[models.DistributorActive],
		Asignaciones30Dias:    recent,
		ActividadDiaria:       daily,
		TopDistribuidores:     top,
		GeneratedAt:           a.clock.Now(),
	}

	if a.cacheService != nil {
		if err := a.cacheService.SetDashboard(ctx, dashboard, CacheTTL); err != nil {
			a.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return dashboard, nil
}

// MonthlySupply buckets every envío dated in year by month, optionally for a
// single distributor code.
func (a *AnalyticsService) MonthlySupply(ctx context.Context, year int, codigoBT string) (*models.MonthlySupply, error) {
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: year %d out of range", ErrInvalidFilter, year)
	}
	loc := a.clock.Location()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)

	envios, err := a.SearchEnvios(ctx, models.EnvioFilter{CodigoBT: codigoBT, From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	report := &models.MonthlySupply{
		Year:     year,
		CodigoBT: codigoBT,
		Meses:    make([]models.MonthCount, 12),
	}
	for i := range report.Meses {
		report.Meses[i] = models.MonthCount{Mes: i + 1, Nombre: monthNames[i]}
	}

	distributors := make(map[string]struct{})
	for _, e := range envios {
		if e.FechaEnvio.Year() != year {
			continue
		}
		report.Meses[e.FechaEnvio.Month()-1].Cantidad++
		report.Total++
		distributors[e.CodigoBT] = struct{}{}
	}
	report.Distribuidores = len(distributors)
	report.PromedioMes = float64(report.Total) / 12

	for i := range report.Meses {
		m := report.Meses[i]
		if m.Cantidad > 0 && (report.MesMaximo == nil || m.Cantidad > report.MesMaximo.Cantidad) {
			report.MesMaximo = &m
		}
	}
	return report, nil
}

// PeriodAnalysis summarizes every envío dated within [from, to].
func (a *AnalyticsService) PeriodAnalysis(ctx context.Context, from, to time.Time) (*models.PeriodAnalysis, error) {
	from = common.DateOnly(from.In(a.clock.Location()))
	to = common.DateOnly(to.In(a.clock.Location()))
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period end %s is before start %s", ErrInvalidFilter, to.Format(common.DateLayout), from.Format(common.DateLayout))
	}

	envios, err := a.SearchEnvios(ctx, models.EnvioFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	top, err := a.envioRepo.TopDistributors(ctx, "", &from, &to, periodTopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank distributors: %w", err)
	}

	analysis := &models.PeriodAnalysis{
		From:              from,
		To:                to,
		Diario:            []models.DailyCount{},
		TopDistribuidores: top,
	}

	distributors := make(map[string]struct{})
	perDay := make(map[string]int)
	for _, e := range envios {
		analysis.Total++
		if e.Estatus == models.EnvioActive {
			analysis.Activas++
		}
		distributors[e.CodigoBT] = struct{}{}
		perDay[e.FechaEnvio.Format(common.DateLayout)]++
	}
	analysis.Distribuidores = len(distributors)

	days := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days++
		if n, ok := perDay[d.Format(common.DateLayout)]; ok {
			analysis.Diario = append(analysis.Diario, models.DailyCount{Fecha: d, Cantidad: n})
		}
	}
	analysis.PromedioDia = float64(analysis.Total) / float64(days)
	return analysis, nil
}

// OrphanedReassignments lists ICCIDs left REASIGNADO without a replacement row.
func (a *AnalyticsService) OrphanedReassignments(ctx context.Context, limit int) ([]string, error) {
	return a.envioRepo.OrphanedReassignments(ctx, common.ClampLimit(limit, 100, pageSize))
}

func envioStats(counts map[string]int) *models.EnvioStats {
	stats := &models.EnvioStats{
		Activos:     counts[models.EnvioActive],
		Reasignados: counts[models.EnvioReassigned],
		Cancelados:  counts[models.EnvioCancelled],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats
}
