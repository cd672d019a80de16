// Package refdata caches reference-data label lookups in redis.
// Reference rows change rarely and are read on every ticket creation, so
// label hits are served from cache with a short TTL; anything else, and
// any cache failure, falls through to postgres.
package refdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Cache is a read-through decorator over a ReferenceStore.
type Cache struct {
	inner  repository.ReferenceStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps the store. A nil client disables caching entirely.
func NewCache(inner repository.ReferenceStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *Cache) GetStatusByLabel(ctx context.Context, label string) (*domain.Status, error) {
	var s domain.Status
	if c.lookup(ctx, "refdata:status:label:"+label, &s) {
		return &s, nil
	}
	found, err := c.inner.GetStatusByLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	c.store(ctx, "refdata:status:label:"+label, found)
	return found, nil
}

func (c *Cache) GetStatusByID(ctx context.Context, id int64) (*domain.Status, error) {
	return c.inner.GetStatusByID(ctx, id)
}

func (c *Cache) GetPriorityByLabel(ctx context.Context, label string) (*domain.Priority, error) {
	var p domain.Priority
	if c.lookup(ctx, "refdata:priority:label:"+label, &p) {
		return &p, nil
	}
	found, err := c.inner.GetPriorityByLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	c.store(ctx, "refdata:priority:label:"+label, found)
	return found, nil
}

func (c *Cache) GetCategoryByLabel(ctx context.Context, label string) (*domain.Category, error) {
	var cat domain.Category
	if c.lookup(ctx, "refdata:category:label:"+label, &cat) {
		return &cat, nil
	}
	found, err := c.inner.GetCategoryByLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	c.store(ctx, "refdata:category:label:"+label, found)
	return found, nil
}

func (c *Cache) GetSLAForPriority(ctx context.Context, priorityID int64) (*domain.SLAPolicy, error) {
	return c.inner.GetSLAForPriority(ctx, priorityID)
}

func (c *Cache) GetSLAByID(ctx context.Context, id int64) (*domain.SLAPolicy, error) {
	return c.inner.GetSLAByID(ctx, id)
}

func (c *Cache) FindAssignmentGroup(ctx context.Context, prefix string, locationID int64) (*domain.AssignmentGroup, error) {
	return c.inner.FindAssignmentGroup(ctx, prefix, locationID)
}

// lookup reports whether the key was found and decoded. Misses and redis
// outages both read as "not found".
func (c *Cache) lookup(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Debug("refdata cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Debug("refdata cache write failed", zap.String("key", key), zap.Error(err))
	}
}
