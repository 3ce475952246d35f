package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type DistributorServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockDistributorRepository
	mockCache *MockCacheService
	now       time.Time
	service   DistributorService
	ctx       context.Context
}

func (suite *DistributorServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockDistributorRepository{}
	suite.mockCache = &MockCacheService{}
	suite.mockRepo.Test(suite.T())
	suite.mockCache.Test(suite.T())

	suite.now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	suite.service = NewDistributorService(suite.mockRepo, suite.mockCache, common.NewFixedClock(suite.now), zap.NewNop())
	suite.ctx = context.Background()
}

func (suite *DistributorServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestDistributorServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DistributorServiceTestSuite))
}

func (suite *DistributorServiceTestSuite) TestCreate_NormalizesFields() {
	phone := " 222 123 4567 "
	email := "  Ventas@Luna.MX "
	input := models.DistributorInput{
		CodigoBT: " bt005-pue ",
		Nombre:   "papelería luna",
		Plaza:    "puebla",
		Telefono: &phone,
		Email:    &email,
	}

	suite.mockRepo.On("GetByCode", suite.ctx, "BT005-PUE").Return(nil, repositories.ErrNotFound)
	suite.mockRepo.On("Create", suite.ctx, mock.MatchedBy(func(d *models.Distributor) bool {
		return d.CodigoBT == "BT005-PUE" &&
			d.Nombre == "PAPELERÍA LUNA" &&
			d.Plaza == "PUEBLA" &&
			*d.Telefono == "222 123 4567" &&
			*d.Email == "ventas@luna.mx" &&
			d.Estatus == models.DistributorActive &&
			d.FechaAlta.Equal(suite.now) &&
			d.ID != uuid.Nil
	})).Return(nil)
	suite.mockCache.On("InvalidateAggregates", suite.ctx).Return(nil)

	d, err := suite.service.Create(suite.ctx, input)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "BT005-PUE", d.CodigoBT)
}

func (suite *DistributorServiceTestSuite) TestCreate_DuplicateCodePrecheck() {
	existing := &models.Distributor{ID: uuid.New(), CodigoBT: "BT005-PUE"}
	suite.mockRepo.On("GetByCode", suite.ctx, "BT005-PUE").Return(existing, nil)

	_, err := suite.service.Create(suite.ctx, models.DistributorInput{CodigoBT: "BT005-PUE", Nombre: "X", Plaza: "Y"})
	assert.ErrorIs(suite.T(), err, ErrDuplicateCode)
	suite.mockRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *DistributorServiceTestSuite) TestCreate_DuplicateCodeRace() {
	suite.mockRepo.On("GetByCode", suite.ctx, "BT005-PUE").Return(nil, repositories.ErrNotFound)
	suite.mockRepo.On("Create", suite.ctx, mock.Anything).Return(repositories.ErrDuplicate)

	_, err := suite.service.Create(suite.ctx, models.DistributorInput{CodigoBT: "BT005-PUE", Nombre: "X", Plaza: "Y"})
	assert.ErrorIs(suite.T(), err, ErrDuplicateCode)
}

func (suite *DistributorServiceTestSuite) TestCreate_ValidationFailsBeforeStore() {
	_, err := suite.service.Create(suite.ctx, models.DistributorInput{CodigoBT: "BT005-PUE", Nombre: " ", Plaza: "PUEBLA"})
	assert.ErrorIs(suite.T(), err, ErrValidation)
	field, _, ok := ValidationField(err)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "nombre", field)

	_, err = suite.service.Create(suite.ctx, models.DistributorInput{CodigoBT: "BT005-PUE", Nombre: "X", Plaza: "Y", Estatus: "vigente"})
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *DistributorServiceTestSuite) TestUpdate_AppliesPatchAndClearsEmail() {
	id := uuid.New()
	email := "old@luna.mx"
	current := &models.Distributor{ID: id, CodigoBT: "BT005-PUE", Nombre: "LUNA", Plaza: "PUEBLA", Email: &email, Estatus: models.DistributorActive}
	suite.mockRepo.On("GetByID", suite.ctx, id).Return(current, nil)
	suite.mockRepo.On("Update", suite.ctx, mock.MatchedBy(func(d *models.Distributor) bool {
		return d.Estatus == models.DistributorSuspended &&
			d.Email == nil &&
			d.Nombre == "LUNA" &&
			d.FechaModificacion != nil && d.FechaModificacion.Equal(suite.now)
	})).Return(nil)
	suite.mockCache.On("InvalidateAggregates", suite.ctx).Return(nil)

	status, blank := "suspendido", ""
	d, err := suite.service.Update(suite.ctx, id, models.DistributorPatch{Estatus: &status, Email: &blank})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.DistributorSuspended, d.Estatus)
}

func (suite *DistributorServiceTestSuite) TestUpdate_NotFound() {
	id := uuid.New()
	suite.mockRepo.On("GetByID", suite.ctx, id).Return(nil, repositories.ErrNotFound)

	name := "X"
	_, err := suite.service.Update(suite.ctx, id, models.DistributorPatch{Nombre: &name})
	assert.ErrorIs(suite.T(), err, ErrDistributorNotFound)
}

func (suite *DistributorServiceTestSuite) TestGetByCode_NotFoundIsNil() {
	suite.mockRepo.On("GetByCode", suite.ctx, "BT404-X").Return(nil, repositories.ErrNotFound)

	d, err := suite.service.GetByCode(suite.ctx, "bt404-x")
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), d)
}

func (suite *DistributorServiceTestSuite) TestSuggestNextCode() {
	suite.mockRepo.On("LastCode", suite.ctx).Return("BT041-MTY", nil).Once()
	code, err := suite.service.SuggestNextCode(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "BT042-", code)
}

func (suite *DistributorServiceTestSuite) TestSuggestNextCode_BackendError() {
	suite.mockRepo.On("LastCode", suite.ctx).Return("", errors.New("timeout"))
	_, err := suite.service.SuggestNextCode(suite.ctx)
	assert.Error(suite.T(), err)
}

func TestNextCode(t *testing.T) {
	tests := map[string]string{
		"":            "BT001-",
		"XYZ":         "BT001-",
		"BT009-QRO":   "BT010-",
		"BT999-GDL":   "BT1000-",
		"BT0041-CDMX": "BT042-",
	}
	for last, want := range tests {
		assert.Equal(t, want, nextCode(last), "last=%q", last)
	}
}

func (suite *DistributorServiceTestSuite) TestDelete_NotFound() {
	id := uuid.New()
	suite.mockRepo.On("Delete", suite.ctx, id).Return(repositories.ErrNotFound)

	err := suite.service.Delete(suite.ctx, id)
	assert.ErrorIs(suite.T(), err, ErrDistributorNotFound)
}

func (suite *DistributorServiceTestSuite) TestStatistics_ComputesAndCaches() {
	suite.mockCache.On("GetDistributorStats", suite.ctx).Return(nil, nil)
	suite.mockRepo.On("CountByStatus", suite.ctx).Return(map[string]int{
		models.DistributorActive:    10,
		models.DistributorRetired:   2,
		models.DistributorSuspended: 1,
	}, nil)
	want := &models.DistributorStats{Total: 13, Activos: 10, Baja: 2, Suspendidos: 1}
	suite.mockCache.On("SetDistributorStats", suite.ctx, want, AggregateTTL).Return(nil)

	stats, err := suite.service.Statistics(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), want, stats)
}

func (suite *DistributorServiceTestSuite) TestStatistics_ServedFromCache() {
	cached := &models.DistributorStats{Total: 3, Activos: 3}
	suite.mockCache.On("GetDistributorStats", suite.ctx).Return(cached, nil)

	stats, err := suite.service.Statistics(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Same(suite.T(), cached, stats)
	suite.mockRepo.AssertNotCalled(suite.T(), "CountByStatus", mock.Anything)
}

func (suite *DistributorServiceTestSuite) TestSearch_ClampsLimitAndRejectsUnknownStatus() {
	suite.mockRepo.On("Search", suite.ctx, "luna", "", maxSearchLimit).Return([]*models.Distributor{}, nil)

	got, err := suite.service.Search(suite.ctx, "luna", "", 5000)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), got)

	_, err = suite.service.Search(suite.ctx, "luna", "otro", 10)
	assert.ErrorIs(suite.T(), err, ErrValidation)
}
