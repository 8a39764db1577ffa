package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

// MemoryCalendar is an in-process Calendar. It keeps open intervals per
// provider and splits them as appointments are committed, so the
// offer/recheck/commit race behaves like a real backend: once an interval is
// taken, a second Commit against it fails.
type MemoryCalendar struct {
	mu           sync.Mutex
	open         map[clinic.Provider][]scheduling.Slot
	appointments map[string]Appointment
}

// NewMemoryCalendar returns an empty in-memory calendar.
func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{
		open:         make(map[clinic.Provider][]scheduling.Slot),
		appointments: make(map[string]Appointment),
	}
}

// AddOpenSlot registers an open interval for a provider.
func (c *MemoryCalendar) AddOpenSlot(s scheduling.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open[s.Provider] = append(c.open[s.Provider], s)
	c.sortOpenLocked(s.Provider)
}

// RemoveOpenSlot withdraws an open interval, simulating a competing booking
// taking it out from under an offer.
func (c *MemoryCalendar) RemoveOpenSlot(s scheduling.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slots := c.open[s.Provider]
	for i, candidate := range slots {
		if candidate.SameInterval(s) {
			c.open[s.Provider] = append(slots[:i], slots[i+1:]...)
			return
		}
	}
}

// ListOpenSlots returns open intervals for the given providers, earliest
// first. The treatment argument exists for backend parity; the in-memory
// calendar does not partition slots by service.
func (c *MemoryCalendar) ListOpenSlots(_ context.Context, _ clinic.Treatment, providers []clinic.Provider) ([]scheduling.Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []scheduling.Slot
	for _, p := range providers {
		out = append(out, c.open[p]...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Commit books [req.Start, req.End) if an open interval still contains it,
// splitting the interval around the appointment.
func (c *MemoryCalendar) Commit(_ context.Context, req CommitRequest) (Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slots := c.open[req.Provider]
	idx := -1
	for i, s := range slots {
		if !s.Start.After(req.Start) && !s.End.Before(req.End) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Appointment{}, ErrSlotUnavailable
	}

	// Rebuild into a fresh slice: appending the remainders in place would
	// alias the backing array and clobber the intervals after idx.
	host := slots[idx]
	out := make([]scheduling.Slot, 0, len(slots)+1)
	out = append(out, slots[:idx]...)
	if host.Start.Before(req.Start) {
		out = append(out, scheduling.Slot{Provider: req.Provider, Start: host.Start, End: req.Start})
	}
	if host.End.After(req.End) {
		out = append(out, scheduling.Slot{Provider: req.Provider, Start: req.End, End: host.End})
	}
	out = append(out, slots[idx+1:]...)
	c.open[req.Provider] = out
	c.sortOpenLocked(req.Provider)

	appt := Appointment{
		ID:          uuid.NewString(),
		EventID:     uuid.NewString(),
		Provider:    req.Provider,
		Start:       req.Start,
		End:         req.End,
		PatientName: req.PatientName,
		Treatment:   req.Treatment,
		ContactID:   req.ContactID,
		BookedAt:    time.Now(),
	}
	c.appointments[appt.ID] = appt
	return appt, nil
}

// Cancel removes the appointment and reopens its interval.
func (c *MemoryCalendar) Cancel(_ context.Context, provider clinic.Provider, appointmentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	appt, ok := c.appointments[appointmentID]
	if !ok || appt.Provider != provider {
		return ErrNotFound
	}
	delete(c.appointments, appointmentID)
	c.open[provider] = append(c.open[provider], appt.Slot())
	c.mergeOpenLocked(provider)
	return nil
}

// FindByContact returns the contact's appointments, most recently booked
// first.
func (c *MemoryCalendar) FindByContact(_ context.Context, contactID string) ([]Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Appointment
	for _, appt := range c.appointments {
		if appt.ContactID == contactID {
			out = append(out, appt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BookedAt.After(out[j].BookedAt) })
	return out, nil
}

// Seed books an appointment directly, bypassing the open-slot bookkeeping.
// Intended for test fixtures representing pre-existing bookings.
func (c *MemoryCalendar) Seed(appt Appointment) Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.EventID == "" {
		appt.EventID = uuid.NewString()
	}
	if appt.BookedAt.IsZero() {
		appt.BookedAt = time.Now()
	}
	c.appointments[appt.ID] = appt
	return appt
}

func (c *MemoryCalendar) sortOpenLocked(p clinic.Provider) {
	slots := c.open[p]
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
}

// mergeOpenLocked coalesces contiguous or overlapping open intervals so a
// freed slot can host bookings longer than the slot itself.
func (c *MemoryCalendar) mergeOpenLocked(p clinic.Provider) {
	c.sortOpenLocked(p)
	slots := c.open[p]
	if len(slots) < 2 {
		return
	}
	merged := slots[:1]
	for _, s := range slots[1:] {
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	c.open[p] = merged
}

var _ Calendar = (*MemoryCalendar)(nil)
