package scanner

import (
	"sync"
	"time"

	"market-opportunity-scanner/internal/exchange"
)

// CandleCache holds fetched candle series with a TTL so that several
// symbols sharing a scan cycle do not refetch the same series.
type CandleCache struct {
	mu    sync.RWMutex
	cache map[string]*cachedCandles // key: symbol_interval
	ttl   time.Duration
	now   func() time.Time
}

type cachedCandles struct {
	candles   []exchange.Kline
	expiresAt time.Time
}

// NewCandleCache creates a cache with the given TTL.
func NewCandleCache(ttl time.Duration) *CandleCache {
	return &CandleCache{
		cache: make(map[string]*cachedCandles),
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetClock overrides the cache clock, for tests.
func (cc *CandleCache) SetClock(now func() time.Time) {
	cc.mu.Lock()
	cc.now = now
	cc.mu.Unlock()
}

// Get returns the cached series for the key, or nil if missing or
// expired.
func (cc *CandleCache) Get(key string) []exchange.Kline {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	cached, exists := cc.cache[key]
	if !exists {
		return nil
	}
	if cc.now().After(cached.expiresAt) {
		return nil
	}
	return cached.candles
}

// Set stores a candle series under the key with the cache TTL.
func (cc *CandleCache) Set(key string, candles []exchange.Kline) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.cache[key] = &cachedCandles{
		candles:   candles,
		expiresAt: cc.now().Add(cc.ttl),
	}
}

// Clear removes all cached series.
func (cc *CandleCache) Clear() {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.cache = make(map[string]*cachedCandles)
}

// CleanupExpired removes expired entries.
func (cc *CandleCache) CleanupExpired() {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	now := cc.now()
	for key, cached := range cc.cache {
		if now.After(cached.expiresAt) {
			delete(cc.cache, key)
		}
	}
}
