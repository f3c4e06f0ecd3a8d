package keys

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/confstore/pkg/observability"
)

const (
	// DefaultCacheSize caps the number of cached verification keys
	DefaultCacheSize = 10000
	// DefaultExpiry is the hard ceiling on serving a cached key after write
	DefaultExpiry = 5 * time.Minute
	// DefaultRefreshAfter is how long after write a background reload kicks in
	DefaultRefreshAfter = 1 * time.Minute
)

// CacheConfig controls the caching decorator
type CacheConfig struct {
	Size         int
	Expiry       time.Duration
	RefreshAfter time.Duration
	// FetchTimeout bounds background refresh calls to the delegate
	FetchTimeout time.Duration
}

// DefaultCacheConfig returns the standard cache settings
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size:         DefaultCacheSize,
		Expiry:       DefaultExpiry,
		RefreshAfter: DefaultRefreshAfter,
		FetchTimeout: 5 * time.Second,
	}
}

type cachedEntry struct {
	key      *VerificationKey
	loadedAt time.Time
}

// CachedProvider decorates a Provider with a bounded write-expiry cache and
// asynchronous write-refresh. Entries older than RefreshAfter are reloaded in
// the background while the stale value keeps being served; entries older than
// Expiry are evicted outright. Concurrent loads and refreshes of the same key
// collapse into one delegate call.
type CachedProvider struct {
	delegate Provider
	cache    *expirable.LRU[string, cachedEntry]
	group    singleflight.Group
	config   CacheConfig
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewCachedProvider wraps delegate with the caching decorator. metrics may be
// nil when the cache is used outside a metered process (e.g. tests).
func NewCachedProvider(delegate Provider, config CacheConfig, logger *observability.Logger, metrics *observability.Metrics) *CachedProvider {
	if config.Size <= 0 {
		config.Size = DefaultCacheSize
	}
	if config.Expiry <= 0 {
		config.Expiry = DefaultExpiry
	}
	if config.RefreshAfter <= 0 {
		config.RefreshAfter = DefaultRefreshAfter
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 5 * time.Second
	}

	cp := &CachedProvider{
		delegate: delegate,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
	cp.cache = expirable.NewLRU[string, cachedEntry](config.Size, func(string, cachedEntry) {
		if cp.metrics != nil {
			cp.metrics.KeyCacheEvictionsTotal.Inc()
		}
	}, config.Expiry)

	return cp
}

// Get returns the cached key, triggering a background refresh when the entry
// is past its refresh interval. On a miss it loads from the delegate, with
// concurrent misses for the same key deduplicated to a single upstream call.
func (cp *CachedProvider) Get(ctx context.Context, keyID string) (*VerificationKey, error) {
	if entry, ok := cp.cache.Get(keyID); ok {
		if cp.metrics != nil {
			cp.metrics.KeyCacheHitsTotal.Inc()
		}
		if time.Since(entry.loadedAt) > cp.config.RefreshAfter {
			cp.refreshAsync(keyID)
		}
		return entry.key, nil
	}

	if cp.metrics != nil {
		cp.metrics.KeyCacheMissesTotal.Inc()
	}

	v, err, _ := cp.group.Do(keyID, func() (interface{}, error) {
		// a concurrent flight may have populated the cache already
		if entry, ok := cp.cache.Get(keyID); ok {
			return entry.key, nil
		}
		key, err := cp.delegate.Get(ctx, keyID)
		if err != nil {
			return nil, err
		}
		cp.cache.Add(keyID, cachedEntry{key: key, loadedAt: time.Now()})
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*VerificationKey), nil
}

// refreshAsync reloads a key in the background. A failed reload keeps the
// stale entry; write-expiry remains the hard ceiling on staleness.
func (cp *CachedProvider) refreshAsync(keyID string) {
	go func() {
		_, _, _ = cp.group.Do("refresh\x00"+keyID, func() (interface{}, error) {
			// entry may have been refreshed while this flight was queued
			if entry, ok := cp.cache.Get(keyID); ok {
				if time.Since(entry.loadedAt) <= cp.config.RefreshAfter {
					return entry.key, nil
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), cp.config.FetchTimeout)
			defer cancel()

			key, err := cp.delegate.Get(ctx, keyID)
			if err != nil {
				cp.logger.WithError(err).WithField("key_id", keyID).Warn("Background key refresh failed, serving cached key")
				return nil, err
			}

			cp.cache.Add(keyID, cachedEntry{key: key, loadedAt: time.Now()})
			if cp.metrics != nil {
				cp.metrics.KeyCacheRefreshesTotal.Inc()
			}
			return key, nil
		})
	}()
}

// Len reports the number of cached keys
func (cp *CachedProvider) Len() int {
	return cp.cache.Len()
}
