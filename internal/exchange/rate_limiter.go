package exchange

import (
	"fmt"
	"sync"
	"time"
)

// Request weights for the public endpoints we call, per Binance docs.
const (
	weightKlines  = 2
	weightPrice   = 2
	weightTickers = 80
)

// RateLimiter tracks weight usage against the per-minute budget and
// opens a circuit when the exchange signals a limit violation. Scans
// are background work, so the limiter refuses requests proactively at
// a safety margin rather than risking an IP ban.
type RateLimiter struct {
	mu sync.Mutex

	currentWeight int
	weightResetAt time.Time
	maxWeight     int

	circuitOpen   bool
	circuitOpenAt time.Time
	cooloffPeriod time.Duration
}

// NewRateLimiter creates a rate limiter with the spot API defaults.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		maxWeight:     6000, // spot limit is 6000 weight/minute
		weightResetAt: time.Now().Add(time.Minute),
		cooloffPeriod: 2 * time.Minute,
	}
}

// Acquire reserves weight for a request, or returns an error when the
// budget is exhausted or the circuit is open. Callers treat the error
// as a transient source failure and skip the affected fetch.
func (rl *RateLimiter) Acquire(weight int) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if rl.circuitOpen {
		if now.Sub(rl.circuitOpenAt) < rl.cooloffPeriod {
			return fmt.Errorf("rate limit circuit open, retry after %v",
				rl.cooloffPeriod-now.Sub(rl.circuitOpenAt))
		}
		rl.circuitOpen = false
	}

	if now.After(rl.weightResetAt) {
		rl.currentWeight = 0
		rl.weightResetAt = now.Add(time.Minute)
	}

	// Background scanning stays below 80% of the budget so interactive
	// requests from the host process always have headroom.
	budget := rl.maxWeight * 80 / 100
	if rl.currentWeight+weight > budget {
		return fmt.Errorf("weight budget exhausted (%d/%d), resets in %v",
			rl.currentWeight, budget, time.Until(rl.weightResetAt))
	}

	rl.currentWeight += weight
	return nil
}

// ObserveStatus records an HTTP status from the exchange. 429 and 418
// open the circuit immediately.
func (rl *RateLimiter) ObserveStatus(status int) {
	if status != 429 && status != 418 {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.circuitOpen = true
	rl.circuitOpenAt = time.Now()
}
