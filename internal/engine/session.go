// Package engine implements the conversation core: the per-conversation
// session, the booking/cancellation/reschedule state machines, and the turn
// orchestrator that is the module's single entry point.
package engine

import (
	"time"

	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/nlu"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

// PendingKind tags the single in-flight action awaiting the caller.
type PendingKind string

const (
	PendingNone         PendingKind = "none"
	PendingBooking      PendingKind = "booking"
	PendingCancellation PendingKind = "cancellation"
	PendingReschedule   PendingKind = "reschedule"
)

// ReschedulePhase tracks where a reschedule stands.
type ReschedulePhase string

const (
	// PhaseChoose: several appointments exist and the caller must pick one.
	PhaseChoose ReschedulePhase = "choose"
	// PhaseCancel: the appointment is presented, awaiting cancel confirmation.
	PhaseCancel ReschedulePhase = "cancel"
	// PhaseBook: the old slot is gone and a new slot is offered.
	PhaseBook ReschedulePhase = "book"
)

// PendingAction is a tagged variant: exactly one action can be pending, and
// each kind carries only its own payload. Constructing through the helpers
// below keeps the mutual-exclusion invariant structural.
type PendingAction struct {
	Kind PendingKind

	// Booking: the offered slot. Also the offered slot in reschedule
	// PhaseBook.
	Slot scheduling.Slot

	// Cancellation / reschedule: the appointment being acted on.
	Appointment calendar.Appointment

	// Reschedule only.
	Phase             ReschedulePhase
	Candidates        []calendar.Appointment
	ExcludedSlot      scheduling.Slot
	PreservedProvider clinic.Provider
}

// None reports whether nothing is pending.
func (p PendingAction) None() bool { return p.Kind == "" || p.Kind == PendingNone }

func pendingBooking(slot scheduling.Slot) PendingAction {
	return PendingAction{Kind: PendingBooking, Slot: slot}
}

func pendingCancellation(appt calendar.Appointment) PendingAction {
	return PendingAction{Kind: PendingCancellation, Appointment: appt}
}

// Session is the per-conversation state. One value per conversation id,
// fetched once at turn entry and written back once at turn exit.
type Session struct {
	ConversationID string
	ContactID      string

	// Caller profile, accumulated across turns.
	PatientName  string
	Treatment    clinic.Treatment
	HasTreatment bool
	Provider     clinic.Provider
	HasProvider  bool
	UnitCount    int
	DateTimeText string

	// Collecting marks a booking in its info-gathering state, before a slot
	// has been offered.
	Collecting bool

	// The single in-flight action.
	Pending PendingAction

	// Set iff a commit call returned success for the current attempt.
	CommittedAppointmentID string

	// Open-slot cache for display/matching only; the commit path never
	// reads it.
	SlotCache   []scheduling.Slot
	SlotCacheAt time.Time

	CreatedAt    time.Time
	LastActiveAt time.Time

	// Bounded turn history, context for the AI collaborator only.
	History []nlu.TurnMessage
}

// BookingPending reports whether a booking offer awaits confirmation.
func (s Session) BookingPending() bool { return s.Pending.Kind == PendingBooking }

// CancellationPending reports whether a cancellation awaits confirmation.
func (s Session) CancellationPending() bool { return s.Pending.Kind == PendingCancellation }

// ReschedulePending reports whether a reschedule is in flight.
func (s Session) ReschedulePending() bool { return s.Pending.Kind == PendingReschedule }

// SelectedSlot returns the slot awaiting confirmation, if any.
func (s Session) SelectedSlot() (scheduling.Slot, bool) {
	switch s.Pending.Kind {
	case PendingBooking:
		return s.Pending.Slot, true
	case PendingReschedule:
		if s.Pending.Phase == PhaseBook {
			return s.Pending.Slot, true
		}
	}
	return scheduling.Slot{}, false
}

// clearPending drops the in-flight action.
func (s *Session) clearPending() {
	s.Pending = PendingAction{Kind: PendingNone}
}

// appendHistory records a turn message, keeping at most limit entries.
func (s *Session) appendHistory(role, content string, at time.Time, limit int) {
	s.History = append(s.History, nlu.TurnMessage{Role: role, Content: content, At: at})
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// cachedSlots returns the open-slot cache when still fresh.
func (s *Session) cachedSlots(now time.Time, ttl time.Duration) ([]scheduling.Slot, bool) {
	if ttl <= 0 || s.SlotCache == nil || now.Sub(s.SlotCacheAt) > ttl {
		return nil, false
	}
	return s.SlotCache, true
}
