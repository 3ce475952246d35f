package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"simledger/internal/caching"
	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 100
	maxSearchLimit     = 1000
	// AggregateTTL is how long cached statistics and dashboards stay fresh.
	AggregateTTL = 5 * time.Minute
)

var codeNumberPattern = regexp.MustCompile(`BT(\d+)`)

type DistributorService interface {
	Search(ctx context.Context, query, estatus string, limit int) ([]*models.Distributor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error)
	GetByCode(ctx context.Context, codigoBT string) (*models.Distributor, error)
	Create(ctx context.Context, input models.DistributorInput) (*models.Distributor, error)
	Update(ctx context.Context, id uuid.UUID, patch models.DistributorPatch) (*models.Distributor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SuggestNextCode(ctx context.Context) (string, error)
	Statistics(ctx context.Context) (*models.DistributorStats, error)
	ListAll(ctx context.Context) ([]*models.Distributor, error)
}

type distributorService struct {
	distributorRepo repositories.DistributorRepository
	cache           caching.CacheService
	clock           common.Clock
	logger          *zap.Logger
}

// NewDistributorService builds the directory. cache may be nil.
func NewDistributorService(distributorRepo repositories.DistributorRepository, cache caching.CacheService, clock common.Clock, logger *zap.Logger) DistributorService {
	return &distributorService{
		distributorRepo: distributorRepo,
		cache:           cache,
		clock:           clock,
		logger:          logger,
	}
}

func (s *distributorService) Search(ctx context.Context, query, estatus string, limit int) ([]*models.Distributor, error) {
	estatus = strings.ToUpper(strings.TrimSpace(estatus))
	if estatus != "" && !models.ValidDistributorStatus(estatus) {
		return nil, NewValidationError("estatus", "must be one of ACTIVO, SUSPENDIDO, BAJA")
	}
	limit = common.ClampLimit(limit, defaultSearchLimit, maxSearchLimit)

	return s.distributorRepo.Search(ctx, common.SanitizeSearchQuery(query), estatus, limit)
}

func (s *distributorService) GetByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	d, err := s.distributorRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return d, err
}

func (s *distributorService) GetByCode(ctx context.Context, codigoBT string) (*models.Distributor, error) {
	d, err := s.distributorRepo.GetByCode(ctx, normalizeUpper(codigoBT))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return d, err
}

func (s *distributorService) Create(ctx context.Context, input models.DistributorInput) (*models.Distributor, error) {
	d := &models.Distributor{
		ID:        uuid.New(),
		CodigoBT:  normalizeUpper(input.CodigoBT),
		Nombre:    normalizeUpper(input.Nombre),
		Plaza:     normalizeUpper(input.Plaza),
		Telefono:  normalizePhone(input.Telefono),
		Email:     normalizeEmail(input.Email),
		Estatus:   normalizeUpper(input.Estatus),
		FechaAlta: s.clock.Now(),
	}
	if d.Estatus == "" {
		d.Estatus = models.DistributorActive
	}
	if err := validateDistributor(d); err != nil {
		return nil, err
	}

	// Advisory pre-check; the unique constraint on codigo_bt is authoritative.
	existing, err := s.distributorRepo.GetByCode(ctx, d.CodigoBT)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check distributor code: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateCode
	}

	if err := s.distributorRepo.Create(ctx, d); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to create distributor: %w", err)
	}

	s.invalidate(ctx)
	s.logger.Info("distributor created", zap.String("codigo_bt", d.CodigoBT), zap.String("id", d.ID.String()))
	return d, nil
}

func (s *distributorService) Update(ctx context.Context, id uuid.UUID, patch models.DistributorPatch) (*models.Distributor, error) {
	d, err := s.distributorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDistributorNotFound
		}
		return nil, err
	}

	if patch.CodigoBT != nil {
		d.CodigoBT = normalizeUpper(*patch.CodigoBT)
	}
	if patch.Nombre != nil {
		d.Nombre = normalizeUpper(*patch.Nombre)
	}
	if patch.Plaza != nil {
		d.Plaza = normalizeUpper(*patch.Plaza)
	}
	if patch.Telefono != nil {
		d.Telefono = normalizePhone(patch.Telefono)
	}
	if patch.Email != nil {
		d.Email = normalizeEmail(patch.Email)
	}
	if patch.Estatus != nil {
		d.Estatus = normalizeUpper(*patch.Estatus)
	}
	if err := validateDistributor(d); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	d.FechaModificacion = &now

	if err := s.distributorRepo.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrDistributorNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to update distributor: %w", err)
	}

	s.invalidate(ctx)
	return d, nil
}

// Delete removes the distributor permanently. Envíos keep their denormalized copy.
func (s *distributorService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.distributorRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrDistributorNotFound
		}
		return fmt.Errorf("failed to delete distributor: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("distributor deleted", zap.String("id", id.String()))
	return nil
}

// SuggestNextCode proposes BT###- from the greatest existing code. The
// suggestion is not reserved.
func (s *distributorService) SuggestNextCode(ctx context.Context) (string, error) {
	last, err := s.distributorRepo.LastCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read last distributor code: %w", err)
	}
	return nextCode(last), nil
}

func nextCode(last string) string {
	match := codeNumberPattern.FindStringSubmatch(last)
	if match == nil {
		return "BT001-"
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return "BT001-"
	}
	return fmt.Sprintf("BT%03d-", n+1)
}

func (s *distributorService) Statistics(ctx context.Context) (*models.DistributorStats, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetDistributorStats(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("distributor stats cache read failed", zap.Error(err))
		}
	}

	counts, err := s.distributorRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count distributors: %w", err)
	}

	stats := &models.DistributorStats{
		Activos:     counts[models.DistributorActive],
		Baja:        counts[models.DistributorRetired],
		Suspendidos: counts[models.DistributorSuspended],
	}
	for _, n := range counts {
		stats.Total += n
	}

	if s.cache != nil {
		if err := s.cache.SetDistributorStats(ctx, stats, AggregateTTL); err != nil {
			s.logger.Warn("distributor stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *distributorService) ListAll(ctx context.Context) ([]*models.Distributor, error) {
	return s.distributorRepo.ListAll(ctx)
}

func (s *distributorService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAggregates(ctx); err != nil {
		s.logger.Warn("failed to invalidate aggregate cache", zap.Error(err))
	}
}

func validateDistributor(d *models.Distributor) error {
	if d.CodigoBT == "" {
		return NewValidationError("codigo_bt", "is required")
	}
	if d.Nombre == "" {
		return NewValidationError("nombre", "is required")
	}
	if d.Plaza == "" {
		return NewValidationError("plaza", "is required")
	}
	if !models.ValidDistributorStatus(d.Estatus) {
		return NewValidationError("estatus", "must be one of ACTIVO, SUSPENDIDO, BAJA")
	}
	return nil
}

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizePhone trims; blank input clears the value.
func normalizePhone(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// normalizeEmail lowercases and trims; blank input clears the value.
func normalizeEmail(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}
