package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

const keyPrefix = "adcore:criteria:adgroup:"

var _ port.CriterionRepository = (*CriteriaCache)(nil)

// CriteriaCache is a read-through cache of targeting criteria per ad group in
// front of another CriterionRepository. Cached lists live under a per group
// version; writes go to the wrapped repository first and then bump the
// version, so a list loaded before the write can never be served after it.
// Redis failures degrade to the wrapped repository.
type CriteriaCache struct {
	next   port.CriterionRepository
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCriteriaCache(next port.CriterionRepository, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CriteriaCache {
	return &CriteriaCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func versionKey(adGroupID int64) string {
	return fmt.Sprintf("%s%d:version", keyPrefix, adGroupID)
}

func cacheKey(adGroupID, version int64) string {
	return fmt.Sprintf("%s%d:v%d", keyPrefix, adGroupID, version)
}

// currentKey resolves the key of the live cache entry for an ad group.
func (c *CriteriaCache) currentKey(ctx context.Context, adGroupID int64) (string, error) {
	version, err := c.rdb.Get(ctx, versionKey(adGroupID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return cacheKey(adGroupID, version), nil
}

func (c *CriteriaCache) ListCriteriaByAdGroup(ctx context.Context, adGroupID int64) ([]domain.TargetingCriterion, error) {
	key, err := c.currentKey(ctx, adGroupID)
	if err != nil {
		c.logger.Warn("criteria cache version read failed",
			slog.Int64("ad_group_id", adGroupID), slog.Any("error", err))
		return c.next.ListCriteriaByAdGroup(ctx, adGroupID)
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []domain.TargetingCriterion
		if err = json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("drop undecodable criteria cache entry", slog.String("key", key), slog.Any("error", err))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("criteria cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	list, err := c.next.ListCriteriaByAdGroup(ctx, adGroupID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(list); err == nil {
		if err = c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("criteria cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return list, nil
}

func (c *CriteriaCache) GetCriterion(ctx context.Context, id int64) (*domain.TargetingCriterion, error) {
	return c.next.GetCriterion(ctx, id)
}

func (c *CriteriaCache) CreateCriterion(ctx context.Context, tc *domain.TargetingCriterion) error {
	if err := c.next.CreateCriterion(ctx, tc); err != nil {
		return err
	}
	c.invalidate(ctx, tc.AdGroupID)
	return nil
}

func (c *CriteriaCache) UpdateCriterion(ctx context.Context, tc *domain.TargetingCriterion) error {
	if err := c.next.UpdateCriterion(ctx, tc); err != nil {
		return err
	}
	c.invalidate(ctx, tc.AdGroupID)
	return nil
}

func (c *CriteriaCache) DeleteCriterion(ctx context.Context, id int64) error {
	tc, err := c.next.GetCriterion(ctx, id)
	if err != nil {
		return err
	}
	if err = c.next.DeleteCriterion(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, tc.AdGroupID)
	return nil
}

// AdGroups wraps an ad group repository so that deleting an ad group also
// drops its cached criteria.
func (c *CriteriaCache) AdGroups(next port.AdGroupRepository) port.AdGroupRepository {
	return adGroups{AdGroupRepository: next, cache: c}
}

type adGroups struct {
	port.AdGroupRepository
	cache *CriteriaCache
}

func (r adGroups) DeleteAdGroup(ctx context.Context, id int64) error {
	if err := r.AdGroupRepository.DeleteAdGroup(ctx, id); err != nil {
		return err
	}
	r.cache.invalidate(ctx, id)
	return nil
}

// invalidate bumps the group version. Entries under older versions are never
// read again and expire with their TTL.
func (c *CriteriaCache) invalidate(ctx context.Context, adGroupID int64) {
	if err := c.rdb.Incr(context.WithoutCancel(ctx), versionKey(adGroupID)).Err(); err != nil {
		c.logger.Error("criteria cache invalidation failed",
			slog.Int64("ad_group_id", adGroupID), slog.Any("error", err))
	}
}
