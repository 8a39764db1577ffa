package engine

import (
	"context"
	"io"
	"time"

	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/nlu"
	"github.com/brightsmile/frontdesk/internal/scheduling"
	"github.com/brightsmile/frontdesk/pkg/logging"
)

// Fixed reference days for engine tests (2026-09-07 is a Monday).
var (
	testMonday  = time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	testTuesday = testMonday.AddDate(0, 0, 1)
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func open(p clinic.Provider, start time.Time, minutes int) scheduling.Slot {
	return scheduling.Slot{Provider: p, Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// scriptedExtractor returns canned fields per exact message text.
type scriptedExtractor struct {
	byText map[string]nlu.Fields
}

func (s *scriptedExtractor) Extract(_ context.Context, text string, _ []nlu.TurnMessage) (nlu.Fields, error) {
	if s == nil || s.byText == nil {
		return nlu.Fields{}, nil
	}
	return s.byText[text], nil
}

// scriptedParser returns canned preferences per exact preference text.
type scriptedParser struct {
	byText map[string]scheduling.Preference
}

func (s *scriptedParser) Parse(_ context.Context, text string, _ time.Time) (scheduling.Preference, error) {
	if s == nil || s.byText == nil {
		return scheduling.Preference{}, nil
	}
	return s.byText[text], nil
}

// flakyCalendar wraps a calendar and injects failures per operation.
type flakyCalendar struct {
	calendar.Calendar
	listErr   error
	commitErr error
	cancelErr error
	findErr   error
}

func (f *flakyCalendar) ListOpenSlots(ctx context.Context, t clinic.Treatment, ps []clinic.Provider) ([]scheduling.Slot, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Calendar.ListOpenSlots(ctx, t, ps)
}

func (f *flakyCalendar) Commit(ctx context.Context, req calendar.CommitRequest) (calendar.Appointment, error) {
	if f.commitErr != nil {
		return calendar.Appointment{}, f.commitErr
	}
	return f.Calendar.Commit(ctx, req)
}

func (f *flakyCalendar) Cancel(ctx context.Context, p clinic.Provider, id string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	return f.Calendar.Cancel(ctx, p, id)
}

func (f *flakyCalendar) FindByContact(ctx context.Context, contactID string) ([]calendar.Appointment, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.Calendar.FindByContact(ctx, contactID)
}

type engineFixture struct {
	engine    *Engine
	store     *SessionStore
	extractor *scriptedExtractor
	parser    *scriptedParser
}

func newFixture(cal calendar.Calendar) *engineFixture {
	extractor := &scriptedExtractor{byText: map[string]nlu.Fields{}}
	parser := &scriptedParser{byText: map[string]scheduling.Preference{}}
	store := NewSessionStore(10*time.Minute, time.Minute, logging.NewWithWriter("error", io.Discard))
	eng := NewEngine(Deps{
		Store:     store,
		Calendar:  cal,
		Extractor: extractor,
		Parser:    parser,
		Logger:    logging.NewWithWriter("error", io.Discard),
	})
	return &engineFixture{engine: eng, store: store, extractor: extractor, parser: parser}
}

func (f *engineFixture) turn(conversationID, text string) string {
	return f.engine.HandleTurn(context.Background(), conversationID, text, "+15550001")
}

func (f *engineFixture) session(conversationID string) Session {
	return f.store.Get(conversationID)
}
