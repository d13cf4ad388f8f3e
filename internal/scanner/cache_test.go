package scanner

import (
	"testing"
	"time"

	"market-opportunity-scanner/internal/exchange"
)

// TestCacheHitWithinTTL verifies a stored series survives until expiry
func TestCacheHitWithinTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCandleCache(60 * time.Second)
	cache.SetClock(func() time.Time { return now })

	candles := []exchange.Kline{{Open: 100, Close: 101}}
	cache.Set("BTCUSDT_1h", candles)

	now = now.Add(30 * time.Second)
	got := cache.Get("BTCUSDT_1h")
	if got == nil {
		t.Fatal("Expected a cache hit inside the TTL")
	}
	if len(got) != 1 || got[0].Close != 101 {
		t.Error("Cached series should round-trip unchanged")
	}
}

// TestCacheExpiry verifies the TTL boundary
func TestCacheExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCandleCache(60 * time.Second)
	cache.SetClock(func() time.Time { return now })

	cache.Set("BTCUSDT_1h", []exchange.Kline{{Close: 101}})

	now = now.Add(61 * time.Second)
	if cache.Get("BTCUSDT_1h") != nil {
		t.Error("Expected a miss after the TTL")
	}
}

// TestCacheMiss verifies unknown keys miss
func TestCacheMiss(t *testing.T) {
	cache := NewCandleCache(60 * time.Second)
	if cache.Get("ETHUSDT_4h") != nil {
		t.Error("Expected a miss for an unknown key")
	}
}

// TestCleanupExpired verifies expired entries are dropped while live
// ones survive
func TestCleanupExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCandleCache(60 * time.Second)
	cache.SetClock(func() time.Time { return now })

	cache.Set("OLD_1h", []exchange.Kline{{Close: 1}})

	now = now.Add(45 * time.Second)
	cache.Set("NEW_1h", []exchange.Kline{{Close: 2}})

	now = now.Add(30 * time.Second)
	cache.CleanupExpired()

	if cache.Get("OLD_1h") != nil {
		t.Error("Expired entry should be gone")
	}
	if cache.Get("NEW_1h") == nil {
		t.Error("Live entry should survive cleanup")
	}
}
