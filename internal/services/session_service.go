package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simledger/internal/caching"
	"simledger/internal/common"
	"simledger/internal/models"

	"github.com/google/uuid"
)

// SessionTTL bounds how long an idle operator session survives.
const SessionTTL = 8 * time.Hour

var ErrSessionNotFound = errors.New("session not found or expired")

// SessionService keeps per-operator interaction state (selected distributor,
// pending ICCIDs) in the shared cache instead of process memory. A session is
// visible only to the actor that opened it; anyone else gets ErrSessionNotFound.
type SessionService interface {
	Open(ctx context.Context, actor string) (*models.OperatorSession, error)
	Get(ctx context.Context, sessionID, actor string) (*models.OperatorSession, error)
	SelectDistributor(ctx context.Context, sessionID, actor string, snapshot models.DistributorSnapshot) (*models.OperatorSession, error)
	SetPendingICCIDs(ctx context.Context, sessionID, actor string, raw []string) (*models.OperatorSession, error)
	Close(ctx context.Context, sessionID, actor string) error
}

type sessionService struct {
	cache caching.CacheService
	clock common.Clock
}

func NewSessionService(cache caching.CacheService, clock common.Clock) SessionService {
	return &sessionService{cache: cache, clock: clock}
}

func (s *sessionService) Open(ctx context.Context, actor string) (*models.OperatorSession, error) {
	now := s.clock.Now()
	session := &models.OperatorSession{
		ID:        uuid.NewString(),
		Actor:     actor,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.cache.SetSession(ctx, session, SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID, actor string) (*models.OperatorSession, error) {
	session, err := s.cache.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.Actor != actor {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) SelectDistributor(ctx context.Context, sessionID, actor string, snapshot models.DistributorSnapshot) (*models.OperatorSession, error) {
	snapshot, err := normalizeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sessionID, actor, func(session *models.OperatorSession) {
		session.SelectedDistributor = &snapshot
	})
}

func (s *sessionService) SetPendingICCIDs(ctx context.Context, sessionID, actor string, raw []string) (*models.OperatorSession, error) {
	iccids := ParseICCIDs(raw...)
	return s.update(ctx, sessionID, actor, func(session *models.OperatorSession) {
		session.PendingICCIDs = iccids
	})
}

func (s *sessionService) Close(ctx context.Context, sessionID, actor string) error {
	if _, err := s.Get(ctx, sessionID, actor); err != nil {
		return err
	}
	return s.cache.DeleteSession(ctx, sessionID)
}

// update applies fn and slides the expiry forward.
func (s *sessionService) update(ctx context.Context, sessionID, actor string, fn func(*models.OperatorSession)) (*models.OperatorSession, error) {
	session, err := s.Get(ctx, sessionID, actor)
	if err != nil {
		return nil, err
	}
	fn(session)
	session.ExpiresAt = s.clock.Now().Add(SessionTTL)
	if err := s.cache.SetSession(ctx, session, SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}
