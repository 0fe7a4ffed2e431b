package services

import (
	"sync"
	"time"
)

// Event is a real-time notification for one competitor. Events exist purely
// to tell a client that something happened; no operation in the core awaits
// delivery, and dropped events are acceptable.
type Event struct {
	Type         string                 `json:"type"` // e.g., "trade_completed", "tier_up"
	CompetitorID string                 `json:"competitor_id"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

const eventBufferSize = 16

// EventBroker is an in-process pub/sub fan-out keyed by competitor.
// Publish never blocks: a subscriber with a full buffer misses the event.
type EventBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewEventBroker() *EventBroker {
	return &EventBroker{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a channel for one competitor's events. The returned
// func unsubscribes and closes the channel.
func (b *EventBroker) Subscribe(competitorID string) (<-chan Event, func()) {
	ch := make(chan Event, eventBufferSize)

	b.mu.Lock()
	if b.subs[competitorID] == nil {
		b.subs[competitorID] = make(map[chan Event]struct{})
	}
	b.subs[competitorID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[competitorID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, competitorID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans an event out to the competitor's subscribers, fire-and-forget
func (b *EventBroker) Publish(evt Event) {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[evt.CompetitorID] {
		select {
		case ch <- evt:
		default: // slow consumer, drop
		}
	}
}
