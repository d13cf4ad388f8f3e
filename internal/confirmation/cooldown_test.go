package confirmation

import (
	"testing"
	"time"
)

// TestCooldownBlocksRepeatSignals verifies the 30-minute window
func TestCooldownBlocksRepeatSignals(t *testing.T) {
	now := signalTime
	tracker := NewCooldownTracker(30 * time.Minute)
	tracker.SetClock(func() time.Time { return now })

	if tracker.Active("BTCUSDT") {
		t.Error("Fresh tracker should have no active cooldowns")
	}

	tracker.Touch("BTCUSDT")

	if !tracker.Active("BTCUSDT") {
		t.Error("Symbol should be cooling down after Touch")
	}

	// 29 minutes later: still blocked
	now = signalTime.Add(29 * time.Minute)
	if !tracker.Active("BTCUSDT") {
		t.Error("Cooldown should hold at 29 minutes")
	}

	// 31 minutes later: expired
	now = signalTime.Add(31 * time.Minute)
	if tracker.Active("BTCUSDT") {
		t.Error("Cooldown should expire after 30 minutes")
	}
}

// TestCooldownPerSymbol verifies symbols cool down independently
func TestCooldownPerSymbol(t *testing.T) {
	now := signalTime
	tracker := NewCooldownTracker(30 * time.Minute)
	tracker.SetClock(func() time.Time { return now })

	tracker.Touch("BTCUSDT")

	if tracker.Active("ETHUSDT") {
		t.Error("ETHUSDT should not inherit BTCUSDT's cooldown")
	}
}

// TestCooldownRefreshedOnTouch verifies re-touching resets the window
func TestCooldownRefreshedOnTouch(t *testing.T) {
	now := signalTime
	tracker := NewCooldownTracker(30 * time.Minute)
	tracker.SetClock(func() time.Time { return now })

	tracker.Touch("BTCUSDT")

	// Touch again 20 minutes in; the window restarts
	now = signalTime.Add(20 * time.Minute)
	tracker.Touch("BTCUSDT")

	now = signalTime.Add(45 * time.Minute)
	if !tracker.Active("BTCUSDT") {
		t.Error("Cooldown refreshed at minute 20 should hold at minute 45")
	}

	now = signalTime.Add(51 * time.Minute)
	if tracker.Active("BTCUSDT") {
		t.Error("Refreshed cooldown should expire at minute 50")
	}
}
