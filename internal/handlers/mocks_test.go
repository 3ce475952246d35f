package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"simledger/internal/common"
	"simledger/internal/jobs"
	"simledger/internal/jobs/background"
	"simledger/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

type MockDistributorService struct {
	mock.Mock
}

func (m *MockDistributorService) Search(ctx context.Context, query, estatus string, limit int) ([]*models.Distributor, error) {
	args := m.Called(ctx, query, estatus, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Distributor), args.Error(1)
}

func (m *MockDistributorService) GetByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distributor), args.Error(1)
}

func (m *MockDistributorService) GetByCode(ctx context.Context, codigoBT string) (*models.Distributor, error) {
	args := m.Called(ctx, codigoBT)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distributor), args.Error(1)
}

func (m *MockDistributorService) Create(ctx context.Context, input models.DistributorInput) (*models.Distributor, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distributor), args.Error(1)
}

func (m *MockDistributorService) Update(ctx context.Context, id uuid.UUID, patch models.DistributorPatch) (*models.Distributor, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distributor), args.Error(1)
}

func (m *MockDistributorService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDistributorService) SuggestNextCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDistributorService) Statistics(ctx context.Context) (*models.DistributorStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DistributorStats), args.Error(1)
}

func (m *MockDistributorService) ListAll(ctx context.Context) ([]*models.Distributor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Distributor), args.Error(1)
}

type MockEnvioService struct {
	mock.Mock
}

func (m *MockEnvioService) Capture(ctx context.Context, req models.CaptureRequest) (*models.CaptureResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CaptureResult), args.Error(1)
}

func (m *MockEnvioService) Correct(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason, actor string) (*models.Envio, error) {
	args := m.Called(ctx, iccid, snapshot, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Envio), args.Error(1)
}

func (m *MockEnvioService) CorrectMany(ctx context.Context, iccids []string, snapshot models.DistributorSnapshot, reason, actor string) (*models.BulkOperationResult, error) {
	args := m.Called(ctx, iccids, snapshot, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkOperationResult), args.Error(1)
}

func (m *MockEnvioService) Reassign(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason, actor string) (*models.ReassignmentResult, error) {
	args := m.Called(ctx, iccid, snapshot, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReassignmentResult), args.Error(1)
}

func (m *MockEnvioService) ReassignMany(ctx context.Context, iccids []string, snapshot models.DistributorSnapshot, reason, actor string) (*models.BulkOperationResult, error) {
	args := m.Called(ctx, iccids, snapshot, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkOperationResult), args.Error(1)
}

func (m *MockEnvioService) DeleteMany(ctx context.Context, iccids []string, actor string) (*models.DeleteResult, error) {
	args := m.Called(ctx, iccids, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeleteResult), args.Error(1)
}

func (m *MockEnvioService) CorrectDates(ctx context.Context, iccids []string, fecha time.Time, reason, actor string) (*models.DateCorrectionResult, error) {
	args := m.Called(ctx, iccids, fecha, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DateCorrectionResult), args.Error(1)
}

func (m *MockEnvioService) Cancel(ctx context.Context, iccid, reason, actor string) (*models.Envio, error) {
	args := m.Called(ctx, iccid, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Envio), args.Error(1)
}

func (m *MockEnvioService) GetByICCID(ctx context.Context, iccid string) (*models.Envio, error) {
	args := m.Called(ctx, iccid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Envio), args.Error(1)
}

func (m *MockEnvioService) History(ctx context.Context, iccid string) (*models.EnvioHistory, error) {
	args := m.Called(ctx, iccid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnvioHistory), args.Error(1)
}

func (m *MockEnvioService) ActiveCandidates(ctx context.Context, raw []string) (*models.ActiveCandidates, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActiveCandidates), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Open(ctx context.Context, actor string) (*models.OperatorSession, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OperatorSession), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, sessionID, actor string) (*models.OperatorSession, error) {
	args := m.Called(ctx, sessionID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OperatorSession), args.Error(1)
}

func (m *MockSessionService) SelectDistributor(ctx context.Context, sessionID, actor string, snapshot models.DistributorSnapshot) (*models.OperatorSession, error) {
	args := m.Called(ctx, sessionID, actor, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OperatorSession), args.Error(1)
}

func (m *MockSessionService) SetPendingICCIDs(ctx context.Context, sessionID, actor string, raw []string) (*models.OperatorSession, error) {
	args := m.Called(ctx, sessionID, actor, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OperatorSession), args.Error(1)
}

func (m *MockSessionService) Close(ctx context.Context, sessionID, actor string) error {
	return m.Called(ctx, sessionID, actor).Error(0)
}

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) SearchEnvios(ctx context.Context, filter models.EnvioFilter) ([]*models.Envio, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Envio), args.Error(1)
}

func (m *MockReportingService) Statistics(ctx context.Context) (*models.EnvioStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnvioStats), args.Error(1)
}

func (m *MockReportingService) AssignmentsForDistributor(ctx context.Context, codigoBT, estatus string) ([]*models.Envio, error) {
	args := m.Called(ctx, codigoBT, estatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Envio), args.Error(1)
}

func (m *MockReportingService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dashboard), args.Error(1)
}

func (m *MockReportingService) MonthlySupply(ctx context.Context, year int, codigoBT string) (*models.MonthlySupply, error) {
	args := m.Called(ctx, year, codigoBT)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlySupply), args.Error(1)
}

func (m *MockReportingService) PeriodAnalysis(ctx context.Context, from, to time.Time) (*models.PeriodAnalysis, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PeriodAnalysis), args.Error(1)
}

type MockReportDownloader struct {
	mock.Mock
}

func (m *MockReportDownloader) DownloadURL(ctx context.Context, year int, month time.Month) (string, error) {
	args := m.Called(ctx, year, month)
	return args.String(0), args.Error(1)
}

type MockJobRunner struct {
	mock.Mock
}

func (m *MockJobRunner) RunNow(name string) error {
	return m.Called(name).Error(0)
}

func (m *MockJobRunner) GetJobStatus() []background.JobStatus {
	return m.Called().Get(0).([]background.JobStatus)
}

type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) ArchiveMonth(ctx context.Context, year int, month time.Month, overwrite bool) (*jobs.ArchiveResult, error) {
	args := m.Called(ctx, year, month, overwrite)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobs.ArchiveResult), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// newRequest builds a request carrying actor and, when non-empty, a session id
// the way the auth middleware would.
func newRequest(method, target, body, actor, sessionID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	ctx := req.Context()
	if actor != "" {
		ctx = common.WithActor(ctx, actor)
	}
	if sessionID != "" {
		ctx = common.WithSessionID(ctx, sessionID)
	}
	return req.WithContext(ctx)
}

func decodeError(rec *httptest.ResponseRecorder) common.ErrorResponse {
	var resp common.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp
}
