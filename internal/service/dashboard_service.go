package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/models"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardCounter interface {
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int, error)
	CountUrgentOpen(ctx context.Context) (int, error)
}

// DashboardService serves the request-count overview, cached in Redis for a
// short TTL. A cache failure degrades to a direct database read.
type DashboardService struct {
	requests dashboardCounter
	cache    *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(requests dashboardCounter, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{requests: requests, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns the dashboard aggregates.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, dashboardCacheKey).Result()
		if err == nil {
			var summary models.DashboardSummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	urgent, err := s.requests.CountUrgentOpen(ctx)
	if err != nil {
		return nil, err
	}

	totalOpen := 0
	for status, count := range byStatus {
		if !status.Terminal() {
			totalOpen += count
		}
	}
	summary := &models.DashboardSummary{
		ByStatus:    byStatus,
		UrgentOpen:  urgent,
		TotalOpen:   totalOpen,
		GeneratedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}
