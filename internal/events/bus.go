package events

import (
	"sync"
	"time"
)

// EventType represents the lifecycle events emitted by the scanner
type EventType string

const (
	EventScanStarted       EventType = "SCAN_STARTED"
	EventScanCompleted     EventType = "SCAN_COMPLETED"
	EventOpportunityScored EventType = "OPPORTUNITY_SCORED"
	EventSignalGenerated   EventType = "SIGNAL_GENERATED"
	EventSignalSuppressed  EventType = "SIGNAL_SUPPRESSED"
	EventStageEvaluated    EventType = "STAGE_EVALUATED"
	EventSignalConfirmed   EventType = "SIGNAL_CONFIRMED"
	EventSignalRejected    EventType = "SIGNAL_REJECTED"
	EventError             EventType = "ERROR"
)

// Event is a single lifecycle event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishSignal publishes a signal generated event
func (eb *EventBus) PublishSignal(symbol, direction, classification string, score, price float64) {
	eb.Publish(Event{
		Type: EventSignalGenerated,
		Data: map[string]interface{}{
			"symbol":         symbol,
			"direction":      direction,
			"classification": classification,
			"score":          score,
			"price":          price,
		},
	})
}

// PublishSuppressed publishes a cooldown suppression event
func (eb *EventBus) PublishSuppressed(symbol string, score float64) {
	eb.Publish(Event{
		Type: EventSignalSuppressed,
		Data: map[string]interface{}{
			"symbol": symbol,
			"score":  score,
		},
	})
}

// PublishStage publishes a stage evaluation event
func (eb *EventBus) PublishStage(symbol string, stage int, passed bool, confidence float64) {
	eb.Publish(Event{
		Type: EventStageEvaluated,
		Data: map[string]interface{}{
			"symbol":     symbol,
			"stage":      stage,
			"passed":     passed,
			"confidence": confidence,
		},
	})
}

// PublishOutcome publishes the terminal state of a confirmation record
// together with its per-stage evidence.
func (eb *EventBus) PublishOutcome(symbol, direction string, price float64, signalTime time.Time, confirmed bool, combinedConfidence float64, stageEvidence interface{}) {
	eventType := EventSignalRejected
	if confirmed {
		eventType = EventSignalConfirmed
	}
	eb.Publish(Event{
		Type: eventType,
		Data: map[string]interface{}{
			"symbol":              symbol,
			"direction":           direction,
			"price":               price,
			"signal_time":         signalTime,
			"combined_confidence": combinedConfidence,
			"stage_evidence":      stageEvidence,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
