// Package calendar defines the appointment calendar boundary. The engine
// consumes the Calendar interface; real backends (Google Calendar, an EMR)
// live behind it, and MemoryCalendar serves development and tests.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

var (
	// ErrNotFound indicates the referenced appointment does not exist.
	ErrNotFound = errors.New("calendar: appointment not found")
	// ErrSlotUnavailable indicates the requested interval is no longer open.
	ErrSlotUnavailable = errors.New("calendar: slot unavailable")
)

// Appointment is a committed booking on a provider's calendar.
type Appointment struct {
	// ID is the opaque handle this system hands around.
	ID string `json:"id"`
	// EventID is the backend's native event identifier.
	EventID     string          `json:"event_id"`
	Provider    clinic.Provider `json:"provider"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	PatientName string          `json:"patient_name"`
	Treatment   clinic.Treatment `json:"treatment"`
	ContactID   string          `json:"contact_id"`
	BookedAt    time.Time       `json:"booked_at"`
}

// Slot returns the appointment's interval as a scheduling slot.
func (a Appointment) Slot() scheduling.Slot {
	return scheduling.Slot{Provider: a.Provider, Start: a.Start, End: a.End}
}

// CommitRequest is the payload for creating an appointment.
type CommitRequest struct {
	Provider    clinic.Provider
	Start       time.Time
	End         time.Time
	PatientName string
	Treatment   clinic.Treatment
	ContactID   string
}

// Calendar is the external appointment resource. Its writes are
// authoritative: the engine's recheck-then-commit sequence relies on Commit
// rejecting an interval that is no longer open.
type Calendar interface {
	// ListOpenSlots returns current open intervals for the given providers.
	ListOpenSlots(ctx context.Context, treatment clinic.Treatment, providers []clinic.Provider) ([]scheduling.Slot, error)
	// Commit books an appointment, or fails if the interval is taken.
	Commit(ctx context.Context, req CommitRequest) (Appointment, error)
	// Cancel removes an appointment and reopens its interval.
	Cancel(ctx context.Context, provider clinic.Provider, appointmentID string) error
	// FindByContact returns the contact's appointments, most recent booking
	// first.
	FindByContact(ctx context.Context, contactID string) ([]Appointment, error)
}
