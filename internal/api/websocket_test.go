package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"market-opportunity-scanner/internal/events"
)

// TestHubBroadcast verifies a registered client receives broadcast
// payloads as JSON
func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	cl := &client{send: make(chan []byte, 4)}
	hub.register <- cl

	hub.Broadcast(events.Event{
		Type: events.EventSignalGenerated,
		Data: map[string]interface{}{"symbol": "BTCUSDT"},
	})

	select {
	case raw := <-cl.send:
		var event events.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("Broadcast payload should be JSON: %v", err)
		}
		if event.Type != events.EventSignalGenerated {
			t.Errorf("Expected SIGNAL_GENERATED, got %s", event.Type)
		}
		if event.Data["symbol"] != "BTCUSDT" {
			t.Errorf("Expected symbol BTCUSDT, got %v", event.Data["symbol"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Client did not receive the broadcast")
	}
}

// TestHubDropsSlowClient verifies a client with a full queue does not
// block other deliveries
func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Stop()

	slow := &client{send: make(chan []byte)} // No buffer, never drained
	fast := &client{send: make(chan []byte, 8)}
	hub.register <- slow
	hub.register <- fast

	hub.Broadcast(events.Event{Type: events.EventScanCompleted})

	select {
	case <-fast.send:
	case <-time.After(2 * time.Second):
		t.Fatal("Fast client should receive the event despite the slow one")
	}
}
