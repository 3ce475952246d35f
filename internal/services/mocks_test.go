package services

import (
	"context"
	"time"

	"simledger/internal/models"
	"simledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockDistributorRepository struct {
	mock.Mock
}

func (m *MockDistributorRepository) Create(ctx context.Context, distributor *models.Distributor) error {
	args := m.Called(ctx, distributor)
	return args.Error(0)
}

func (m *MockDistributorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distributor), args.Error(1)
}

func (m *MockDistributorRepository) GetByCode(ctx context.Context, codigoBT string) (*models.Distributor, error) {
	args := m.Called(ctx, codigoBT)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distributor), args.Error(1)
}

func (m *MockDistributorRepository) Update(ctx context.Context, distributor *models.Distributor) error {
	args := m.Called(ctx, distributor)
	return args.Error(0)
}

func (m *MockDistributorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDistributorRepository) Search(ctx context.Context, query, estatus string, limit int) ([]*models.Distributor, error) {
	args := m.Called(ctx, query, estatus, limit)
	return args.Get(0).([]*models.Distributor), args.Error(1)
}

func (m *MockDistributorRepository) ListAll(ctx context.Context) ([]*models.Distributor, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Distributor), args.Error(1)
}

func (m *MockDistributorRepository) LastCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDistributorRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockEnvioRepository struct {
	mock.Mock
}

func (m *MockEnvioRepository) ExistingICCIDs(ctx context.Context, iccids []string) ([]string, error) {
	args := m.Called(ctx, iccids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEnvioRepository) InsertBatch(ctx context.Context, envios []*models.Envio) (int64, error) {
	args := m.Called(ctx, envios)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEnvioRepository) Insert(ctx context.Context, envio *models.Envio) error {
	args := m.Called(ctx, envio)
	return args.Error(0)
}

func (m *MockEnvioRepository) GetLatestByICCID(ctx context.Context, iccid string) (*models.Envio, error) {
	args := m.Called(ctx, iccid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Envio), args.Error(1)
}

func (m *MockEnvioRepository) GetLatestByICCIDForUpdate(ctx context.Context, iccid string) (*models.Envio, error) {
	args := m.Called(ctx, iccid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Envio), args.Error(1)
}

func (m *MockEnvioRepository) LatestByICCIDs(ctx context.Context, iccids []string) ([]*models.Envio, error) {
	args := m.Called(ctx, iccids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Envio), args.Error(1)
}

func (m *MockEnvioRepository) ListByICCID(ctx context.Context, iccid string) ([]*models.Envio, error) {
	args := m.Called(ctx, iccid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Envio), args.Error(1)
}

func (m *MockEnvioRepository) UpdateStatus(ctx context.Context, id uuid.UUID, estatus string, observaciones *string) error {
	args := m.Called(ctx, id, estatus, observaciones)
	return args.Error(0)
}

func (m *MockEnvioRepository) UpdateDistributor(ctx context.Context, id uuid.UUID, snapshot models.DistributorSnapshot, note string, appendNote bool) error {
	args := m.Called(ctx, id, snapshot, note, appendNote)
	return args.Error(0)
}

func (m *MockEnvioRepository) UpdateFechaEnvio(ctx context.Context, id uuid.UUID, fecha time.Time, note string) error {
	args := m.Called(ctx, id, fecha, note)
	return args.Error(0)
}

func (m *MockEnvioRepository) DeleteByICCID(ctx context.Context, iccid string) (int64, error) {
	args := m.Called(ctx, iccid)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEnvioRepository) Search(ctx context.Context, filter models.EnvioFilter) ([]*models.Envio, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Envio), args.Error(1)
}

func (m *MockEnvioRepository) ListByDistributor(ctx context.Context, codigoBT, estatus string) ([]*models.Envio, error) {
	args := m.Called(ctx, codigoBT, estatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Envio), args.Error(1)
}

func (m *MockEnvioRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockEnvioRepository) CountSince(ctx context.Context, estatus string, since time.Time) (int, error) {
	args := m.Called(ctx, estatus, since)
	return args.Int(0), args.Error(1)
}

func (m *MockEnvioRepository) DailyCounts(ctx context.Context, estatus string, from, to time.Time) ([]models.DailyCount, error) {
	args := m.Called(ctx, estatus, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DailyCount), args.Error(1)
}

func (m *MockEnvioRepository) TopDistributors(ctx context.Context, estatus string, from, to *time.Time, limit int) ([]models.DistributorCount, error) {
	args := m.Called(ctx, estatus, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DistributorCount), args.Error(1)
}

func (m *MockEnvioRepository) OrphanedReassignments(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, entry *models.HistorialCambio) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByICCID(ctx context.Context, iccid string) ([]*models.HistorialCambio, error) {
	args := m.Called(ctx, iccid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HistorialCambio), args.Error(1)
}

// fakeTxRunner hands the mocked repositories to fn and records whether the
// unit of work would have committed.
type fakeTxRunner struct {
	envios    repositories.EnvioRepository
	history   repositories.HistoryRepository
	commits   int
	rollbacks int
}

func (f *fakeTxRunner) WithinTx(ctx context.Context, fn func(stores repositories.TxStores) error) error {
	if err := fn(repositories.TxStores{Envios: f.envios, History: f.history}); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetDistributorStats(ctx context.Context) (*models.DistributorStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DistributorStats), args.Error(1)
}

func (m *MockCacheService) SetDistributorStats(ctx context.Context, stats *models.DistributorStats, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetEnvioStats(ctx context.Context) (*models.EnvioStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnvioStats), args.Error(1)
}

func (m *MockCacheService) SetEnvioStats(ctx context.Context, stats *models.EnvioStats, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dashboard), args.Error(1)
}

func (m *MockCacheService) SetDashboard(ctx context.Context, dashboard *models.Dashboard, ttl time.Duration) error {
	args := m.Called(ctx, dashboard, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateAggregates(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) SetSession(ctx context.Context, session *models.OperatorSession, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetSession(ctx context.Context, sessionID string) (*models.OperatorSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OperatorSession), args.Error(1)
}

func (m *MockCacheService) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
