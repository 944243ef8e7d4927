package catalog

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/phrazzld/arcana/internal/domain"
)

const (
	defaultCacheSize = 4
	defaultCacheTTL  = 10 * time.Minute
	catalogKey       = "catalog"
)

type cacheEntry struct {
	cards    []domain.Card
	storedAt time.Time
}

// CachedSource wraps a Source with a TTL-checked LRU cache. It is safe for
// concurrent use and is typically shared by every session of a process.
type CachedSource struct {
	delegate Source
	cache    *lru.Cache[string, cacheEntry]
	ttl      time.Duration
	now      func() time.Time

	// Serializes misses so concurrent sessions trigger a single fetch.
	mu sync.Mutex
}

// NewCachedSource creates a cache in front of src. Non-positive size or ttl
// fall back to defaults.
func NewCachedSource(src Source, size int, ttl time.Duration) *CachedSource {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	// lru.New only errors on a non-positive size, which is guarded above.
	cache, _ := lru.New[string, cacheEntry](size)
	return &CachedSource{
		delegate: src,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
	}
}

// ListCatalog returns the cached catalog, fetching from the delegate when the
// entry is missing or older than the TTL. Failed fetches are not cached.
func (c *CachedSource) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	if cards, ok := c.fresh(); ok {
		return cards, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cards, ok := c.fresh(); ok {
		return cards, nil
	}

	cards, err := c.delegate.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	stored := append([]domain.Card(nil), cards...)
	c.cache.Add(catalogKey, cacheEntry{cards: stored, storedAt: c.now()})
	return append([]domain.Card(nil), stored...), nil
}

// Invalidate drops the cached catalog.
func (c *CachedSource) Invalidate() {
	c.cache.Remove(catalogKey)
}

func (c *CachedSource) fresh() ([]domain.Card, bool) {
	entry, ok := c.cache.Get(catalogKey)
	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return append([]domain.Card(nil), entry.cards...), true
}
