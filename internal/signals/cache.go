package signals

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/models"
)

// CacheKey identifies a signal bundle computed from a specific quote set
type CacheKey struct {
	GameID string
	Market models.MarketType
	// Fingerprint changes whenever the inputs change
	Fingerprint string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.GameID, k.Market, k.Fingerprint)
}

// BundleCache provides in-memory caching for derived signal bundles.
// Bundles are never the source of truth; a miss simply recomputes.
type BundleCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewBundleCache creates a new bundle cache. A zero TTL disables caching.
func NewBundleCache(ttl time.Duration) *BundleCache {
	if ttl <= 0 {
		return &BundleCache{}
	}
	return &BundleCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a copy of a cached bundle
func (bc *BundleCache) Get(key CacheKey) (*models.SignalBundle, bool) {
	if bc.cache == nil {
		return nil, false
	}
	if result, found := bc.cache.Get(key.String()); found {
		if bundle, ok := result.(*models.SignalBundle); ok {
			bc.hitCount.Add(1)
			metrics.RecordSignalCacheHit()
			return cloneBundle(bundle), true
		}
	}
	bc.missCount.Add(1)
	return nil, false
}

// Set stores a copy of the bundle
func (bc *BundleCache) Set(key CacheKey, bundle *models.SignalBundle) {
	if bc.cache == nil {
		return
	}
	bc.cache.Set(key.String(), cloneBundle(bundle), bc.ttl)
}

// Invalidate removes all cache entries for a game
func (bc *BundleCache) Invalidate(gameID string) {
	if bc.cache == nil {
		return
	}
	prefix := gameID + ":"
	for k := range bc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			bc.cache.Delete(k)
		}
	}
}

// Stats returns cache statistics
func (bc *BundleCache) Stats() (hits, misses uint64, ratio float64) {
	hits = bc.hitCount.Load()
	misses = bc.missCount.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (bc *BundleCache) ItemCount() int {
	if bc.cache == nil {
		return 0
	}
	return bc.cache.ItemCount()
}

func cloneBundle(b *models.SignalBundle) *models.SignalBundle {
	cp := *b
	if b.SharpDivergence != nil {
		v := *b.SharpDivergence
		cp.SharpDivergence = &v
	}
	if b.PublicPct != nil {
		v := *b.PublicPct
		cp.PublicPct = &v
	}
	return &cp
}
