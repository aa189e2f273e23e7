package application

import (
	"log/slog"
	"time"
)

// StateChangeEvent notifies collaborators that a booking moved between
// lifecycle states. From is empty for creation.
type StateChangeEvent struct {
	BookingID  string
	ResourceID string
	UserID     string
	From       Status
	To         Status
	OccurredAt time.Time
}

// EventSink receives state-change events. Publish must not block: events are
// fire-and-forget signals outside the transactional unit, and a slow sink
// must never delay a transition.
type EventSink interface {
	Publish(event StateChangeEvent)
}

// NopSink discards every event.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(StateChangeEvent) {}

// LogSink writes events to the structured log. Useful as a default sink and
// in development.
type LogSink struct {
	Logger *slog.Logger
}

// Publish implements EventSink.
func (s LogSink) Publish(event StateChangeEvent) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("booking state changed",
		"booking_id", event.BookingID,
		"resource_id", event.ResourceID,
		"user_id", event.UserID,
		"from", string(event.From),
		"to", string(event.To),
		"occurred_at", event.OccurredAt,
	)
}

// AsyncSink decouples publishing from delivery through a buffered channel.
// Events are dropped, counted and logged when the buffer is full rather than
// blocking the transition that produced them.
type AsyncSink struct {
	events chan StateChangeEvent
	next   EventSink
	logger *slog.Logger
	done   chan struct{}
}

// NewAsyncSink starts a single delivery goroutine draining into next.
func NewAsyncSink(next EventSink, buffer int, logger *slog.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = 64
	}
	if next == nil {
		next = NopSink{}
	}
	sink := &AsyncSink{
		events: make(chan StateChangeEvent, buffer),
		next:   next,
		logger: logger,
		done:   make(chan struct{}),
	}
	go sink.run()
	return sink
}

// Publish implements EventSink.
func (s *AsyncSink) Publish(event StateChangeEvent) {
	select {
	case s.events <- event:
	default:
		logger := s.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("event buffer full, dropping state change",
			"booking_id", event.BookingID, "to", string(event.To))
	}
}

// Close stops delivery after draining buffered events.
func (s *AsyncSink) Close() {
	close(s.events)
	<-s.done
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for event := range s.events {
		s.next.Publish(event)
	}
}
