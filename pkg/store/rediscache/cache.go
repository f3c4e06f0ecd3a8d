package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/confstore/pkg/observability"
	"github.com/platinummonkey/confstore/pkg/store"
)

const (
	// DefaultVersionedTTL applies to versioned reads. Versions never change
	// once written, so the TTL only bounds memory, not staleness.
	DefaultVersionedTTL = 1 * time.Hour

	// DefaultLatestTTL applies to latest reads. Kept short so a missed
	// invalidation self-heals quickly.
	DefaultLatestTTL = 30 * time.Second
)

// Config holds TTL settings for the read cache
type Config struct {
	VersionedTTL time.Duration
	LatestTTL    time.Duration
}

// DefaultCacheConfig returns the default TTL settings
func DefaultCacheConfig() Config {
	return Config{
		VersionedTTL: DefaultVersionedTTL,
		LatestTTL:    DefaultLatestTTL,
	}
}

// Cache is a read-through caching decorator over a ConfigurationRepository
type Cache struct {
	next    store.ConfigurationRepository
	client  *redis.Client
	config  Config
	logger  *observability.Logger
	metrics *observability.Metrics
}

// New creates the caching decorator. metrics may be nil.
func New(next store.ConfigurationRepository, client *redis.Client, config Config, logger *observability.Logger, metrics *observability.Metrics) *Cache {
	if config.VersionedTTL <= 0 {
		config.VersionedTTL = DefaultVersionedTTL
	}
	if config.LatestTTL <= 0 {
		config.LatestTTL = DefaultLatestTTL
	}
	return &Cache{
		next:    next,
		client:  client,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func entryKey(tenant, repository, key string, version int64) string {
	if version == store.LatestVersion {
		return fmt.Sprintf("entry:%s:%s:%s:latest", tenant, repository, key)
	}
	return fmt.Sprintf("entry:%s:%s:%s:%d", tenant, repository, key, version)
}

func (c *Cache) hit(kind string) {
	if c.metrics != nil {
		c.metrics.ReadCacheHitsTotal.WithLabelValues(kind).Inc()
	}
}

func (c *Cache) miss(kind string) {
	if c.metrics != nil {
		c.metrics.ReadCacheMissesTotal.WithLabelValues(kind).Inc()
	}
}

// lookup returns the cached document, or nil on a miss. Redis errors and
// corrupt entries count as misses.
func (c *Cache) lookup(ctx context.Context, cacheKey, kind string) *store.Document {
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		c.miss(kind)
		return nil
	}
	if err != nil {
		c.logger.WithError(err).Warn("Read cache lookup failed, falling back to store")
		c.miss(kind)
		return nil
	}

	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.client.Del(ctx, cacheKey)
		c.logger.WithError(err).WithField("cache_key", cacheKey).Warn("Dropped corrupt read cache entry")
		c.miss(kind)
		return nil
	}

	c.hit(kind)
	return &doc
}

// fill stores a document under cacheKey. Failures are logged, never surfaced.
func (c *Cache) fill(ctx context.Context, cacheKey string, doc *store.Document, ttl time.Duration) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Read cache fill failed")
	}
}

// CreateRepository passes straight through; provisioning is never cached
func (c *Cache) CreateRepository(ctx context.Context, repo store.Repository) error {
	return c.next.CreateRepository(ctx, repo)
}

// Read serves the document from Redis when present and falls back to the
// underlying repository, filling the cache on the way out.
func (c *Cache) Read(ctx context.Context, tenant, repository, key string, version int64) (*store.Document, error) {
	kind := "versioned"
	ttl := c.config.VersionedTTL
	if version == store.LatestVersion {
		kind = "latest"
		ttl = c.config.LatestTTL
	}

	cacheKey := entryKey(tenant, repository, key, version)
	if doc := c.lookup(ctx, cacheKey, kind); doc != nil {
		return doc, nil
	}

	doc, err := c.next.Read(ctx, tenant, repository, key, version)
	if err != nil {
		return nil, err
	}

	c.fill(ctx, cacheKey, doc, ttl)
	if version == store.LatestVersion {
		// the same document is immutable under its concrete version
		c.fill(ctx, entryKey(tenant, repository, key, doc.Version), doc, c.config.VersionedTTL)
	}
	return doc, nil
}

// ReadAll is not cached; listings hit the repository directly
func (c *Cache) ReadAll(ctx context.Context, tenant, repository string) ([]store.Document, error) {
	return c.next.ReadAll(ctx, tenant, repository)
}

// ReadHistory is not cached; histories grow and are rarely re-read
func (c *Cache) ReadHistory(ctx context.Context, tenant, repository, key string) ([]store.Document, error) {
	return c.next.ReadHistory(ctx, tenant, repository, key)
}

// Save writes through the repository, then caches the new version and drops
// the latest pointer so the next latest read observes the write.
func (c *Cache) Save(ctx context.Context, tenant, repository string, doc store.Document) (*store.Document, error) {
	stored, err := c.next.Save(ctx, tenant, repository, doc)
	if err != nil {
		return nil, err
	}

	c.fill(ctx, entryKey(tenant, repository, stored.Key, stored.Version), stored, c.config.VersionedTTL)
	if err := c.client.Del(ctx, entryKey(tenant, repository, stored.Key, store.LatestVersion)).Err(); err != nil {
		c.logger.WithError(err).Warn("Read cache invalidation failed after save")
	}
	return stored, nil
}

// Delete removes the key from the repository and evicts every cached version
func (c *Cache) Delete(ctx context.Context, tenant, repository, key string) error {
	if err := c.next.Delete(ctx, tenant, repository, key); err != nil {
		return err
	}
	c.invalidateEntry(ctx, tenant, repository, key)
	return nil
}

// globEscape quotes redis glob metacharacters so a SCAN pattern matches the
// embedded string literally. Entry keys are arbitrary client input and may
// contain * ? [ ] themselves.
func globEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// invalidateEntry scans out all cached versions of an entry, the latest
// pointer included.
func (c *Cache) invalidateEntry(ctx context.Context, tenant, repository, key string) {
	pattern := fmt.Sprintf("entry:%s:%s:%s:*", globEscape(tenant), globEscape(repository), globEscape(key))
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.WithError(err).WithField("cache_key", iter.Val()).Warn("Read cache eviction failed")
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).Warn("Read cache invalidation scan failed")
	}
}

// compile-time interface check
var _ store.ConfigurationRepository = (*Cache)(nil)
