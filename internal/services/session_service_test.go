package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"simledger/internal/common"
	"simledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionService_OpenStoresWithTTL(t *testing.T) {
	cache := &MockCacheService{}
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	svc := NewSessionService(cache, common.NewFixedClock(now))
	ctx := context.Background()

	cache.On("SetSession", ctx, mock.MatchedBy(func(s *models.OperatorSession) bool {
		return s.ID != "" && s.Actor == "maria" && s.ExpiresAt.Equal(now.Add(SessionTTL))
	}), SessionTTL).Return(nil)

	session, err := svc.Open(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, now, session.CreatedAt)
	cache.AssertExpectations(t)
}

func TestSessionService_GetMissing(t *testing.T) {
	cache := &MockCacheService{}
	svc := NewSessionService(cache, common.NewFixedClock(time.Now()))
	ctx := context.Background()

	cache.On("GetSession", ctx, "gone").Return(nil, nil)
	_, err := svc.Get(ctx, "gone", "maria")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	cache.On("GetSession", ctx, "broken").Return(nil, errors.New("redis down"))
	_, err = svc.Get(ctx, "broken", "maria")
	assert.ErrorContains(t, err, "redis down")
}

func TestSessionService_SelectDistributorSlidesExpiry(t *testing.T) {
	cache := &MockCacheService{}
	opened := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	now := opened.Add(3 * time.Hour)
	svc := NewSessionService(cache, common.NewFixedClock(now))
	ctx := context.Background()

	stored := &models.OperatorSession{ID: "s1", Actor: "maria", CreatedAt: opened, ExpiresAt: opened.Add(SessionTTL)}
	target := models.DistributorSnapshot{ID: uuid.New(), CodigoBT: "bt011-qro", Nombre: "norte"}
	cache.On("GetSession", ctx, "s1").Return(stored, nil)
	cache.On("SetSession", ctx, mock.MatchedBy(func(s *models.OperatorSession) bool {
		return s.SelectedDistributor != nil &&
			s.SelectedDistributor.CodigoBT == "BT011-QRO" &&
			s.ExpiresAt.Equal(now.Add(SessionTTL))
	}), SessionTTL).Return(nil)

	session, err := svc.SelectDistributor(ctx, "s1", "maria", target)
	require.NoError(t, err)
	assert.Equal(t, "NORTE", session.SelectedDistributor.Nombre)
	cache.AssertExpectations(t)
}

func TestSessionService_SelectDistributorRequiresTarget(t *testing.T) {
	cache := &MockCacheService{}
	svc := NewSessionService(cache, common.NewFixedClock(time.Now()))

	_, err := svc.SelectDistributor(context.Background(), "s1", "maria", models.DistributorSnapshot{})
	assert.ErrorIs(t, err, ErrValidation)
	cache.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
}

func TestSessionService_SetPendingICCIDs(t *testing.T) {
	cache := &MockCacheService{}
	svc := NewSessionService(cache, common.NewFixedClock(time.Now()))
	ctx := context.Background()

	cache.On("GetSession", ctx, "s1").Return(&models.OperatorSession{ID: "s1", Actor: "maria"}, nil)
	cache.On("SetSession", ctx, mock.Anything, SessionTTL).Return(nil)

	session, err := svc.SetPendingICCIDs(ctx, "s1", "maria", []string{"a1, b2\nc3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2", "C3"}, session.PendingICCIDs)
}

func TestSessionService_Close(t *testing.T) {
	cache := &MockCacheService{}
	svc := NewSessionService(cache, common.NewFixedClock(time.Now()))
	ctx := context.Background()

	cache.On("GetSession", ctx, "s1").Return(&models.OperatorSession{ID: "s1", Actor: "maria"}, nil)
	cache.On("DeleteSession", ctx, "s1").Return(nil)
	require.NoError(t, svc.Close(ctx, "s1", "maria"))
	cache.AssertExpectations(t)
}

func TestSessionService_OtherActorsSessionIsHidden(t *testing.T) {
	cache := &MockCacheService{}
	svc := NewSessionService(cache, common.NewFixedClock(time.Now()))
	ctx := context.Background()

	juan := &models.OperatorSession{ID: "s-juan", Actor: "juan", PendingICCIDs: []string{"8952140061234567890"}}
	cache.On("GetSession", ctx, "s-juan").Return(juan, nil)

	_, err := svc.Get(ctx, "s-juan", "maria")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.SetPendingICCIDs(ctx, "s-juan", "maria", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = svc.Close(ctx, "s-juan", "maria")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	cache.AssertNotCalled(t, "SetSession", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "DeleteSession", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"8952140061234567890"}, juan.PendingICCIDs)
}
