package events

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sort"
	"sync"
)

// EventListener processes events
type EventListener interface {
	HandleEvent(event Event) error
	Priority() int
	ID() string
}

// Publisher is what services depend on to announce committed changes
type Publisher interface {
	Emit(event Event) error
}

// Bus manages event distribution
type Bus struct {
	listeners map[EventType][]EventListener
	mu        sync.RWMutex
}

var _ Publisher = (*Bus)(nil)

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]EventListener),
	}
}

// Subscribe adds a listener for specific event types
func (b *Bus) Subscribe(eventType EventType, listener EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[eventType] = append(b.listeners[eventType], listener)

	// Lower priority runs first; equal priorities keep subscription order
	sort.SliceStable(b.listeners[eventType], func(i, j int) bool {
		return b.listeners[eventType][i].Priority() < b.listeners[eventType][j].Priority()
	})

	log.Printf("EventBus: Subscribed listener %s to event %s with priority %d",
		listener.ID(), eventType, listener.Priority())
}

// SubscribeAll adds a listener for each of the given event types
func (b *Bus) SubscribeAll(eventTypes []EventType, listener EventListener) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, listener)
	}
}

// Unsubscribe removes a listener
func (b *Bus) Unsubscribe(eventType EventType, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := len(b.listeners[eventType])
	b.listeners[eventType] = slices.DeleteFunc(b.listeners[eventType], func(l EventListener) bool {
		return l.ID() == listenerID
	})
	if len(b.listeners[eventType]) != before {
		log.Printf("EventBus: Unsubscribed listener %s from event %s", listenerID, eventType)
	}
}

// Emit sends an event to all registered listeners in priority order. A
// failing listener does not stop the others; their errors are joined.
func (b *Bus) Emit(event Event) error {
	b.mu.RLock()
	listeners := slices.Clone(b.listeners[event.GetType()])
	b.mu.RUnlock()

	log.Printf("EventBus: Emitting event %s for session %s with %d listeners",
		event.GetType(), event.GetSessionID(), len(listeners))

	var errs []error
	for _, listener := range listeners {
		if event.IsCancelled() {
			log.Printf("EventBus: Event %s cancelled, stopping propagation", event.GetType())
			break
		}

		if err := listener.HandleEvent(event); err != nil {
			errs = append(errs, fmt.Errorf("listener %s failed: %w", listener.ID(), err))
		}
	}

	return errors.Join(errs...)
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]EventListener)
	log.Printf("EventBus: Cleared all listeners")
}
