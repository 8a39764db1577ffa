package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	events []Event
	err    error
}

func (s *captureSink) Record(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return s.err
}

func TestRecorderFillsBookkeepingFields(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(sink, nil)

	rec.Record(context.Background(), Event{
		EventType:      EventBookingCommitted,
		ConversationID: "c1",
	})

	require.Len(t, sink.events, 1)
	assert.NotEmpty(t, sink.events[0].ID)
	assert.False(t, sink.events[0].CreatedAt.IsZero())
}

func TestRecorderSwallowsSinkErrors(t *testing.T) {
	sink := &captureSink{err: errors.New("db down")}
	rec := NewRecorder(sink, nil)

	// Must not panic or propagate.
	rec.Record(context.Background(), Event{EventType: EventTurnHandled, ConversationID: "c1"})
	require.Len(t, sink.events, 1)
}

func TestRecorderNilSink(t *testing.T) {
	rec := NewRecorder(nil, nil)
	rec.Record(context.Background(), Event{EventType: EventTurnHandled})

	var nilRec *Recorder
	nilRec.Record(context.Background(), Event{EventType: EventTurnHandled})
}

func TestFanout(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{err: errors.New("boom")}
	c := &captureSink{}

	err := Fanout{a, b, c}.Record(context.Background(), Event{EventType: EventTurnHandled})

	assert.EqualError(t, err, "boom")
	assert.Len(t, a.events, 1)
	assert.Len(t, c.events, 1)
}

func TestPostgresSinkRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := Event{
		ID:             "11111111-1111-1111-1111-111111111111",
		EventType:      EventBookingCommitted,
		ConversationID: "c1",
		ContactID:      "+15550001",
		Detail:         "cleaning with Dr. Lovell",
		CreatedAt:      time.Now(),
	}

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs(event.ID, string(event.EventType), event.ConversationID,
			sqlmock.AnyArg(), sqlmock.AnyArg(), event.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sink := NewPostgresSink(db)
	require.NoError(t, sink.Record(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkRecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnError(errors.New("connection reset"))

	sink := NewPostgresSink(db)
	err = sink.Record(context.Background(), Event{ID: "x", EventType: EventTurnHandled, CreatedAt: time.Now()})
	assert.ErrorContains(t, err, "audit: failed to insert event")
}

func TestNewPostgresSinkNilDB(t *testing.T) {
	sink := NewPostgresSink(nil)
	assert.Nil(t, sink)
	assert.NoError(t, sink.Record(context.Background(), Event{}))
}
