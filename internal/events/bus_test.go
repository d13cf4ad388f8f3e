package events

import (
	"testing"
	"time"
)

// TestOutcomePayload verifies the confirmed-signal event carries the
// full sink payload including per-stage evidence
func TestOutcomePayload(t *testing.T) {
	bus := NewEventBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventSignalConfirmed, func(e Event) {
		received <- e
	})

	signalTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	stages := []map[string]interface{}{
		{"stage": 1, "passed": true},
		{"stage": 2, "passed": true},
		{"stage": 3, "passed": true},
		{"stage": 4, "passed": true},
	}
	bus.PublishOutcome("BTCUSDT", "BULLISH", 65000, signalTime, true, 92.5, stages)

	select {
	case e := <-received:
		if e.Data["symbol"] != "BTCUSDT" {
			t.Errorf("Expected symbol BTCUSDT, got %v", e.Data["symbol"])
		}
		if e.Data["price"] != 65000.0 {
			t.Errorf("Expected price 65000, got %v", e.Data["price"])
		}
		if e.Data["signal_time"] != signalTime {
			t.Errorf("Expected signal time %v, got %v", signalTime, e.Data["signal_time"])
		}
		if e.Data["stage_evidence"] == nil {
			t.Error("Expected stage evidence in the outcome payload")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Outcome event was not delivered")
	}
}

// TestRejectedOutcomeType verifies the unconfirmed outcome publishes
// under the rejected event type
func TestRejectedOutcomeType(t *testing.T) {
	bus := NewEventBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventSignalRejected, func(e Event) {
		received <- e
	})

	bus.PublishOutcome("ETHUSDT", "BEARISH", 3200, time.Now(), false, 40, nil)

	select {
	case e := <-received:
		if e.Type != EventSignalRejected {
			t.Errorf("Expected SIGNAL_REJECTED, got %s", e.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Rejected event was not delivered")
	}
}
