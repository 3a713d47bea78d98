package notifications

import (
	"sync"
	"time"
)

// EventType represents the type of notification event
type EventType string

const (
	EventLogChanged     EventType = "log-changed"
	EventTasksChanged   EventType = "tasks-changed"
	EventClientsChanged EventType = "clients-changed"
	EventConnected      EventType = "connected"
)

// Event represents a notification event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Date      string    `json:"date,omitempty"` // day log date key, for log-changed
	Data      any       `json:"data,omitempty"`
}

// Service manages SSE subscriptions and event broadcasting
type Service struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

var (
	service     *Service
	serviceOnce sync.Once
)

// GetService returns the singleton notification service
func GetService() *Service {
	serviceOnce.Do(func() {
		service = NewService()
	})
	return service
}

// NewService creates a new notification service
func NewService() *Service {
	return &Service{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe creates a new subscription channel
// Returns the event channel and an unsubscribe function
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 10)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, exists := s.subscribers[ch]; exists {
			delete(s.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// Notify broadcasts an event to all subscribers
func (s *Service) Notify(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip this subscriber
		}
	}
}

// NotifyLogChanged sends a log-changed event for a day log's date key
func (s *Service) NotifyLogChanged(date string) {
	s.Notify(Event{Type: EventLogChanged, Date: date})
}

// NotifyTasksChanged sends a tasks-changed event
func (s *Service) NotifyTasksChanged() {
	s.Notify(Event{Type: EventTasksChanged})
}

// NotifyClientsChanged sends a clients-changed event
func (s *Service) NotifyClientsChanged() {
	s.Notify(Event{Type: EventClientsChanged})
}

// Shutdown closes all subscriber channels
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}
