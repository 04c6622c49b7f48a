package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-tenant-cart/internal/cache"
	"github.com/noah-isme/toko-tenant-cart/internal/models"
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// PartitionFunc names the storage partition a context routes to.
type PartitionFunc func(context.Context) string

// Cache keeps product snapshots in Redis under the partition the calling
// context routes to. A nil Cache, or one without a client, caches nothing.
type Cache struct {
	client    *redis.Client
	ttl       time.Duration
	partition PartitionFunc
}

// NewCache returns a product cache. A non-positive ttl defaults to five
// minutes. partition should be the store router's partition lookup; nil
// keys by the context tenant.
func NewCache(client *redis.Client, ttl time.Duration, partition PartitionFunc) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if partition == nil {
		partition = tenant.OrDefault
	}
	return &Cache{client: client, ttl: ttl, partition: partition}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

func (c *Cache) key(ctx context.Context, id uuid.UUID) string {
	return cache.KeyProduct(c.partition(ctx), id.String())
}

// Product returns the cached snapshot of id, reporting whether there was one.
func (c *Cache) Product(ctx context.Context, id uuid.UUID) (models.Product, bool, error) {
	if !c.enabled() {
		return models.Product{}, false, nil
	}
	data, err := c.client.Get(ctx, c.key(ctx, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, err
	}
	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Product{}, false, err
	}
	return p, true, nil
}

// Put stores p for the configured ttl.
func (c *Cache) Put(ctx context.Context, p models.Product) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(ctx, p.ID), data, c.ttl).Err()
}

// Forget drops the snapshot of id.
func (c *Cache) Forget(ctx context.Context, id uuid.UUID) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, c.key(ctx, id)).Err()
}
