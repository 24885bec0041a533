package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"claims-service/internal/database/redis"
	"claims-service/internal/models"
	"claims-service/internal/repository"
)

const utilizationCacheTTL = 5 * time.Minute

// CachedUtilizationSource serves year-to-date utilization snapshots from
// Redis, falling through to the policy repository on a miss. Cache failures
// never fail a lookup, only slow it down.
type CachedUtilizationSource struct {
	policies *repository.PolicyRepository
	cache    *redis.Client
}

func NewCachedUtilizationSource(policies *repository.PolicyRepository, cache *redis.Client) *CachedUtilizationSource {
	return &CachedUtilizationSource{policies: policies, cache: cache}
}

func (s *CachedUtilizationSource) GetUtilization(ctx context.Context, policyID string) (*models.PolicyUtilization, error) {
	key := utilizationKey(policyID)

	if s.cache != nil {
		raw, err := s.cache.GetClient().Get(ctx, key).Result()
		if err == nil {
			var utilization models.PolicyUtilization
			if err := json.Unmarshal([]byte(raw), &utilization); err == nil {
				return &utilization, nil
			}
			slog.Warn("corrupt utilization cache entry, refetching", "policy_id", policyID)
		} else if err != goredis.Nil {
			slog.Warn("utilization cache read failed", "policy_id", policyID, "error", err)
		}
	}

	utilization, err := s.policies.GetUtilization(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if utilization == nil {
		return nil, nil
	}

	if s.cache != nil {
		if raw, err := json.Marshal(utilization); err == nil {
			if err := s.cache.GetClient().Set(ctx, key, raw, utilizationCacheTTL).Err(); err != nil {
				slog.Warn("utilization cache write failed", "policy_id", policyID, "error", err)
			}
		}
	}
	return utilization, nil
}

// Invalidate drops the cached snapshot after the year-to-date total changes.
func (s *CachedUtilizationSource) Invalidate(ctx context.Context, policyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.GetClient().Del(ctx, utilizationKey(policyID)).Err(); err != nil {
		slog.Warn("utilization cache invalidation failed", "policy_id", policyID, "error", err)
	}
}

func utilizationKey(policyID string) string {
	return fmt.Sprintf("claims:utilization:%s", policyID)
}
