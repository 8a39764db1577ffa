// Package audit records conversation and calendar events for after-the-fact
// review. Recording is fire-and-forget: a failing sink never fails the turn
// that produced the event.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightsmile/frontdesk/pkg/logging"
)

// EventType identifies what happened.
type EventType string

const (
	EventTurnHandled           EventType = "turn_handled"
	EventBookingOffered        EventType = "booking_offered"
	EventBookingCommitted      EventType = "booking_committed"
	EventBookingDeclined       EventType = "booking_declined"
	EventRecheckFailed         EventType = "booking_recheck_failed"
	EventCancellationCommitted EventType = "cancellation_committed"
	EventCancellationDeclined  EventType = "cancellation_declined"
	EventExternalFailure       EventType = "external_failure"
	EventSessionEnded          EventType = "session_ended"
)

// Event is one audit record.
type Event struct {
	ID             string    `json:"id"`
	EventType      EventType `json:"event_type"`
	ConversationID string    `json:"conversation_id"`
	ContactID      string    `json:"contact_id,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Sink persists audit events.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Recorder wraps a sink with the fire-and-forget contract: it fills in
// bookkeeping fields and swallows sink errors after logging them.
type Recorder struct {
	sink   Sink
	logger *logging.Logger
}

// NewRecorder creates a recorder. A nil sink yields a recorder that drops
// every event, which keeps call sites unconditional.
func NewRecorder(sink Sink, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{sink: sink, logger: logger}
}

// Record persists the event, logging and continuing on failure.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.sink == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := r.sink.Record(ctx, event); err != nil {
		r.logger.Error("failed to record audit event",
			"error", err,
			"event_type", event.EventType,
			"conversation_id", event.ConversationID,
		)
	}
}

// LogSink writes audit events to the structured log.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink backed by the application logger.
func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger}
}

// Record logs the event.
func (s *LogSink) Record(_ context.Context, event Event) error {
	s.logger.Info("audit event",
		"event_id", event.ID,
		"event_type", event.EventType,
		"conversation_id", event.ConversationID,
		"contact_id", event.ContactID,
		"detail", event.Detail,
	)
	return nil
}

// Fanout records to multiple sinks, returning the first error.
type Fanout []Sink

// Record forwards the event to every sink.
func (f Fanout) Record(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range f {
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
