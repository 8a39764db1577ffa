package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/brightsmile/frontdesk/internal/audit"
	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/nlu"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

// startReschedule locates the caller's appointments and either presents the
// single match for cancellation or asks the caller to pick one. The provider
// preference expressed with the reschedule request is preserved here and
// carried into the later slot match.
func (e *Engine) startReschedule(ctx context.Context, sess *Session) (string, string) {
	appts, err := e.cal.FindByContact(ctx, sess.ContactID)
	if err != nil {
		e.metrics.ObserveExternalFailure("calendar")
		e.recordEvent(ctx, sess, audit.EventExternalFailure, "find by contact: "+err.Error())
		return replyCalendarTrouble, "external_failure"
	}
	if len(appts) == 0 {
		return replyNoAppointment, "no_appointment"
	}

	var preserved clinic.Provider
	if sess.HasProvider {
		preserved = sess.Provider
	}

	if len(appts) == 1 {
		sess.Pending = PendingAction{
			Kind:              PendingReschedule,
			Phase:             PhaseCancel,
			Appointment:       appts[0],
			PreservedProvider: preserved,
		}
		return replyReschedulePrompt(appts[0]), "reschedule_offered"
	}

	sess.Pending = PendingAction{
		Kind:              PendingReschedule,
		Phase:             PhaseChoose,
		Candidates:        appts,
		PreservedProvider: preserved,
	}
	return replyChoosePrompt(appts), "reschedule_choose"
}

// resolveReschedule consumes the turn while a reschedule is in flight.
func (e *Engine) resolveReschedule(ctx context.Context, sess *Session, text string) (string, string) {
	switch sess.Pending.Phase {
	case PhaseChoose:
		return e.resolveRescheduleChoice(sess, text)
	case PhaseCancel:
		return e.resolveRescheduleCancel(ctx, sess, text)
	case PhaseBook:
		return e.resolveRescheduleBook(ctx, sess, text)
	default:
		sess.clearPending()
		return replyApology, "error"
	}
}

func (e *Engine) resolveRescheduleChoice(sess *Session, text string) (string, string) {
	appt, ok := pickAppointment(sess.Pending.Candidates, text)
	if !ok {
		return replyChoosePrompt(sess.Pending.Candidates), "reschedule_choose_retry"
	}
	sess.Pending = PendingAction{
		Kind:              PendingReschedule,
		Phase:             PhaseCancel,
		Appointment:       appt,
		PreservedProvider: sess.Pending.PreservedProvider,
	}
	return replyReschedulePrompt(appt), "reschedule_offered"
}

func (e *Engine) resolveRescheduleCancel(ctx context.Context, sess *Session, text string) (string, string) {
	appt := sess.Pending.Appointment
	preserved := sess.Pending.PreservedProvider

	switch e.confirm.Detect(ctx, text, "rescheduling "+appt.Slot().Format()) {
	case nlu.ConfirmationYes:
		if err := e.cal.Cancel(ctx, appt.Provider, appt.ID); err != nil {
			sess.clearPending()
			e.metrics.ObserveCommit("cancellation", "failure")
			e.metrics.ObserveExternalFailure("calendar")
			e.recordEvent(ctx, sess, audit.EventExternalFailure, "reschedule cancel: "+err.Error())
			return replyCancelFailed, "cancel_failed"
		}
		e.metrics.ObserveCommit("cancellation", "success")
		e.recordEvent(ctx, sess, audit.EventCancellationCommitted, appt.ID)
		return e.offerRescheduleSlot(ctx, sess, appt, preserved)
	case nlu.ConfirmationNo:
		sess.clearPending()
		e.recordEvent(ctx, sess, audit.EventCancellationDeclined, appt.ID)
		return replyRescheduleAbandoned, "reschedule_declined"
	default:
		return replyReschedulePrompt(appt), "reschedule_reoffer"
	}
}

// offerRescheduleSlot runs the booking phase after the old appointment is
// gone: the preserved provider preference feeds the match, and the
// just-cancelled interval is excluded so the caller is never re-offered the
// slot they just gave up.
func (e *Engine) offerRescheduleSlot(ctx context.Context, sess *Session, appt calendar.Appointment, preserved clinic.Provider) (string, string) {
	if sess.PatientName == "" {
		sess.PatientName = appt.PatientName
	}
	if !sess.HasTreatment {
		sess.Treatment = appt.Treatment
		sess.HasTreatment = true
	}
	if preserved != "" {
		sess.Provider = preserved
		sess.HasProvider = true
	}

	excluded := appt.Slot()
	// The cached list predates the cancellation; fetch fresh so the freed
	// interval shows up only as an exclusion, not as a stale absence.
	sess.SlotCache = nil

	slot, ok, err := e.matchSlot(ctx, sess, []scheduling.Slot{excluded})
	if err != nil {
		sess.clearPending()
		e.metrics.ObserveExternalFailure("calendar")
		e.recordEvent(ctx, sess, audit.EventExternalFailure, "reschedule match: "+err.Error())
		return replyCalendarTrouble, "external_failure"
	}
	if !ok {
		sess.clearPending()
		return replyCancelledNoNewSlot, "reschedule_no_slot"
	}

	sess.Pending = PendingAction{
		Kind:              PendingReschedule,
		Phase:             PhaseBook,
		Slot:              slot,
		Appointment:       appt,
		ExcludedSlot:      excluded,
		PreservedProvider: preserved,
	}
	e.recordEvent(ctx, sess, audit.EventBookingOffered, slot.Format())
	return replyOffer(slot), "reschedule_slot_offered"
}

func (e *Engine) resolveRescheduleBook(ctx context.Context, sess *Session, text string) (string, string) {
	slot := sess.Pending.Slot
	switch e.confirm.Detect(ctx, text, "booking "+slot.Format()) {
	case nlu.ConfirmationYes:
		// commitBooking keeps the reschedule exclusion through any
		// recheck-triggered re-offer and clears it on success.
		return e.commitBooking(ctx, sess)
	case nlu.ConfirmationNo:
		// Abandoning the reschedule clears the exclusion with the pending
		// action.
		sess.clearPending()
		e.recordEvent(ctx, sess, audit.EventBookingDeclined, slot.Format())
		return replyRescheduleAbandoned, "reschedule_declined"
	default:
		return replyOffer(slot), "reschedule_reoffer"
	}
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
}

// pickAppointment resolves a disambiguation reply by ordinal ("2", "second")
// or by a date/time fragment ("monday", "9:00 am") that identifies exactly
// one candidate.
func pickAppointment(appts []calendar.Appointment, text string) (calendar.Appointment, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if trimmed == "" {
		return calendar.Appointment{}, false
	}

	if n, err := strconv.Atoi(strings.TrimSuffix(trimmed, ".")); err == nil {
		if n >= 1 && n <= len(appts) {
			return appts[n-1], true
		}
		return calendar.Appointment{}, false
	}
	for word, n := range ordinalWords {
		if strings.Contains(trimmed, word) && n <= len(appts) {
			return appts[n-1], true
		}
	}

	var matches []calendar.Appointment
	for _, appt := range appts {
		for _, key := range appointmentKeys(appt) {
			if strings.Contains(trimmed, key) {
				matches = append(matches, appt)
				break
			}
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return calendar.Appointment{}, false
}

// appointmentKeys lists lowercase fragments a caller might use to name the
// appointment.
func appointmentKeys(appt calendar.Appointment) []string {
	start := appt.Start
	return []string{
		strings.ToLower(start.Weekday().String()),
		strings.ToLower(start.Format("jan 2")),
		strings.ToLower(start.Format("3:04 pm")),
		start.Format("15:04"),
	}
}
