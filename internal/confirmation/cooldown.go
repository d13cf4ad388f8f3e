package confirmation

import (
	"sync"
	"time"
)

// CooldownStore is anything that can hold per-symbol cooldowns. The
// in-memory tracker below is the default; a shared store can back it
// when multiple scanner instances run against the same market.
type CooldownStore interface {
	Active(symbol string) bool
	Touch(symbol string)
}

// CooldownTracker blocks repeat signals per symbol for a fixed
// window. Every accepted signal refreshes the window regardless of
// how its confirmation turns out.
type CooldownTracker struct {
	mu     sync.Mutex
	window time.Duration
	until  map[string]time.Time
	now    func() time.Time
}

// NewCooldownTracker creates a tracker with the given window.
// Non-positive windows fall back to 30 minutes.
func NewCooldownTracker(window time.Duration) *CooldownTracker {
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &CooldownTracker{
		window: window,
		until:  make(map[string]time.Time),
		now:    time.Now,
	}
}

// SetClock overrides the tracker clock, for tests.
func (ct *CooldownTracker) SetClock(now func() time.Time) {
	ct.mu.Lock()
	ct.now = now
	ct.mu.Unlock()
}

// Active reports whether the symbol is still inside its cooldown.
func (ct *CooldownTracker) Active(symbol string) bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	until, ok := ct.until[symbol]
	if !ok {
		return false
	}
	if ct.now().Before(until) {
		return true
	}
	delete(ct.until, symbol)
	return false
}

// Touch starts or resets the symbol's cooldown window.
func (ct *CooldownTracker) Touch(symbol string) {
	ct.mu.Lock()
	ct.until[symbol] = ct.now().Add(ct.window)
	ct.mu.Unlock()
}
