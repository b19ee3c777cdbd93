package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bike-resale-api/internal/domain"
)

const versionKey = "listings:version"

// ListingCache caches listing pages. Every entry embeds the current
// generation counter, so bumping it orphans all cached pages at once and the
// orphans expire through their TTL.
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewListingCache(rdb *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{rdb: rdb, ttl: ttl}
}

// Generation returns the current cache generation. Callers read it once and
// pass it to both GetPage and SetPage, so a page computed before an
// Invalidate is only ever stored under the generation it was read from.
func (c *ListingCache) Generation(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// GetPage returns the cached page for (filterKey, page, limit) within gen, if any.
func (c *ListingCache) GetPage(ctx context.Context, gen int64, filterKey string, page, limit int) (*domain.BikePage, bool, error) {
	raw, err := c.rdb.Get(ctx, PageKey(gen, filterKey, page, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p domain.BikePage
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (c *ListingCache) SetPage(ctx context.Context, gen int64, filterKey string, page, limit int, p *domain.BikePage) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, PageKey(gen, filterKey, page, limit), b, c.ttl).Err()
}

// Invalidate moves every reader to a fresh generation.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, versionKey).Err()
}

// PageKey is the cache key of one page within generation v.
func PageKey(v int64, filterKey string, page, limit int) string {
	sum := sha1.Sum([]byte(filterKey))
	return fmt.Sprintf("listings:v%d:%s:p%d:l%d", v, hex.EncodeToString(sum[:8]), page, limit)
}
