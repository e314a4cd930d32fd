// Package events provides the in-process event system connecting the session
// loop to the console and the web monitor.
package events

import (
	"fmt"
	"sync"
	"time"
)

// Event is a single session occurrence forwarded to subscribers.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Event types published by the session loop.
const (
	TypeSessionStarted    = "session_started"
	TypeIterationStarted  = "iteration_started"
	TypePlanProduced      = "plan_produced"
	TypeToolApplied       = "tool_applied"
	TypeToolFailed        = "tool_failed"
	TypeFileChanged       = "file_changed"
	TypeIterationFinished = "iteration_finished"
	TypeSessionFinished   = "session_finished"
	TypeError             = "error"
)

// Bus distributes events to named subscribers. Slow subscribers drop events
// rather than blocking the publisher.
type Bus struct {
	subscribers map[string]chan Event
	mutex       sync.RWMutex
	nextID      int64
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]chan Event)}
}

// Subscribe adds a named subscriber and returns its channel.
func (b *Bus) Subscribe(name string) <-chan Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := make(chan Event, 100)
	b.subscribers[name] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(name string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if ch, exists := b.subscribers[name]; exists {
		delete(b.subscribers, name)
		close(ch)
	}
}

// Publish broadcasts an event to all subscribers.
func (b *Bus) Publish(eventType string, data any) {
	b.mutex.Lock()
	b.nextID++
	event := Event{
		ID:        fmt.Sprintf("evt_%d_%d", time.Now().UnixNano(), b.nextID),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	subscribers := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subscribers = append(subscribers, ch)
	}
	b.mutex.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			// Channel is full; drop rather than block the session loop.
		}
	}
}
