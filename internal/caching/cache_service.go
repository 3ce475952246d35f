package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"simledger/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "simledger:"

const (
	distributorStatsKey = keyPrefix + "stats:distribuidores"
	envioStatsKey       = keyPrefix + "stats:envios"
	dashboardKey        = keyPrefix + "dashboard"
)

type CacheService interface {
	// Aggregate views
	GetDistributorStats(ctx context.Context) (*models.DistributorStats, error)
	SetDistributorStats(ctx context.Context, stats *models.DistributorStats, ttl time.Duration) error
	GetEnvioStats(ctx context.Context) (*models.EnvioStats, error)
	SetEnvioStats(ctx context.Context, stats *models.EnvioStats, ttl time.Duration) error
	GetDashboard(ctx context.Context) (*models.Dashboard, error)
	SetDashboard(ctx context.Context, dashboard *models.Dashboard, ttl time.Duration) error

	// InvalidateAggregates drops every cached aggregate after a ledger write.
	InvalidateAggregates(ctx context.Context) error

	// Operator sessions
	SetSession(ctx context.Context, session *models.OperatorSession, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*models.OperatorSession, error)
	DeleteSession(ctx context.Context, sessionID string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisClient accepts either host:port or a redis:// / rediss:// URL.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if opts, err := redis.ParseURL(addr); err == nil {
			if password != "" {
				opts.Password = password
			}
			return redis.NewClient(opts)
		}
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	return redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCacheService(client redis.UniversalClient, logger *zap.Logger) CacheService {
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", zap.Error(pingErr))
	} else {
		logger.Debug("redis connection established")
	}
	return &redisCacheService{client: client, logger: logger}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("%ssession:%s", keyPrefix, sessionID)
}

// getJSON decodes key into dest. A miss reports found=false with no error.
func (r *redisCacheService) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetDistributorStats(ctx context.Context) (*models.DistributorStats, error) {
	var stats models.DistributorStats
	found, err := r.getJSON(ctx, distributorStatsKey, &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetDistributorStats(ctx context.Context, stats *models.DistributorStats, ttl time.Duration) error {
	return r.setJSON(ctx, distributorStatsKey, stats, ttl)
}

func (r *redisCacheService) GetEnvioStats(ctx context.Context) (*models.EnvioStats, error) {
	var stats models.EnvioStats
	found, err := r.getJSON(ctx, envioStatsKey, &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetEnvioStats(ctx context.Context, stats *models.EnvioStats, ttl time.Duration) error {
	return r.setJSON(ctx, envioStatsKey, stats, ttl)
}

func (r *redisCacheService) GetDashboard(ctx context.Context) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	found, err := r.getJSON(ctx, dashboardKey, &dashboard)
	if err != nil || !found {
		return nil, err
	}
	return &dashboard, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, dashboard *models.Dashboard, ttl time.Duration) error {
	return r.setJSON(ctx, dashboardKey, dashboard, ttl)
}

func (r *redisCacheService) InvalidateAggregates(ctx context.Context) error {
	return r.client.Del(ctx, distributorStatsKey, envioStatsKey, dashboardKey).Err()
}

func (r *redisCacheService) SetSession(ctx context.Context, session *models.OperatorSession, ttl time.Duration) error {
	return r.setJSON(ctx, sessionKey(session.ID), session, ttl)
}

func (r *redisCacheService) GetSession(ctx context.Context, sessionID string) (*models.OperatorSession, error) {
	var session models.OperatorSession
	found, err := r.getJSON(ctx, sessionKey(sessionID), &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

func (r *redisCacheService) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
