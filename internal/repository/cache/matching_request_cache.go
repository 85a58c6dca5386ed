package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix        = "room_sharing:request:"
	generationPrefix = "room_sharing:request_gen:"
	generationTTL    = time.Hour
)

// matchingRequestCache serves GetByID from redis and drops the entry on every
// write. Redis errors degrade to the underlying repository.
//
// Decisions must not start from a cached row; they read through Uncached.
type matchingRequestCache struct {
	next   repository.MatchingRequestRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewMatchingRequestCache(next repository.MatchingRequestRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) repository.MatchingRequestRepository {
	return &matchingRequestCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func key(id string) string {
	return keyPrefix + id
}

func generationKey(id string) string {
	return generationPrefix + id
}

func (c *matchingRequestCache) Create(ctx context.Context, req *domain.MatchingRequest) error {
	return c.next.Create(ctx, req)
}

func (c *matchingRequestCache) GetByID(ctx context.Context, id string) (*domain.MatchingRequest, error) {
	data, err := c.rdb.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		var req domain.MatchingRequest
		if err := json.Unmarshal(data, &req); err == nil {
			return &req, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("request_id", id))
		c.invalidate(ctx, id)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.String("request_id", id), zap.Error(err))
	}

	return c.fill(ctx, id)
}

// fill loads the request and caches it only if no invalidation happened
// while it was loading. Invalidations bump the generation key, which the
// fill watches.
func (c *matchingRequestCache) fill(ctx context.Context, id string) (*domain.MatchingRequest, error) {
	var (
		req     *domain.MatchingRequest
		loadErr error
		loaded  bool
	)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		req, loadErr = c.next.GetByID(ctx, id)
		loaded = true
		if loadErr != nil {
			return nil
		}
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(id), data, c.ttl)
			return nil
		})
		return err
	}, generationKey(id))

	if !loaded {
		req, loadErr = c.next.GetByID(ctx, id)
	}
	if loadErr != nil {
		return nil, loadErr
	}

	switch {
	case errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("cache fill skipped, request changed while loading", zap.String("request_id", id))
	case err != nil:
		c.logger.Warn("cache write failed", zap.String("request_id", id), zap.Error(err))
	}
	return req, nil
}

func (c *matchingRequestCache) HasActive(ctx context.Context, seekerID, roomID int) (bool, error) {
	return c.next.HasActive(ctx, seekerID, roomID)
}

func (c *matchingRequestCache) Transition(ctx context.Context, from domain.Status, next *domain.MatchingRequest) error {
	err := c.next.Transition(ctx, from, next)
	// A lost race also means the cached copy may be stale.
	c.invalidate(ctx, next.ID)
	return err
}

func (c *matchingRequestCache) List(ctx context.Context, filter repository.ListFilter) ([]*domain.MatchingRequest, error) {
	return c.next.List(ctx, filter)
}

// Uncached exposes the repository behind the cache for reads that must see
// the committed row.
func (c *matchingRequestCache) Uncached() repository.MatchingRequestRepository {
	return c.next
}

func (c *matchingRequestCache) invalidate(ctx context.Context, id string) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key(id))
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), generationTTL)
		return nil
	})
	if err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("request_id", id), zap.Error(err))
	}
}
