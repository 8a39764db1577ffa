package engine

import (
	"context"

	"github.com/brightsmile/frontdesk/internal/audit"
	"github.com/brightsmile/frontdesk/internal/nlu"
)

// startCancellation locates the caller's appointment by contact identifier
// and presents it. Several appointments resolve to the most recent booking.
func (e *Engine) startCancellation(ctx context.Context, sess *Session) (string, string) {
	appts, err := e.cal.FindByContact(ctx, sess.ContactID)
	if err != nil {
		e.metrics.ObserveExternalFailure("calendar")
		e.recordEvent(ctx, sess, audit.EventExternalFailure, "find by contact: "+err.Error())
		return replyCalendarTrouble, "external_failure"
	}
	if len(appts) == 0 {
		return replyNoAppointment, "no_appointment"
	}

	appt := appts[0]
	sess.Pending = pendingCancellation(appt)
	return replyCancelPrompt(appt), "cancel_offered"
}

// resolveCancellation consumes the turn after an appointment was presented
// for cancellation. A resource rejection is fatal from the conversation's
// point of view: pending state is cleared and the caller is pointed at
// staff, with no retry.
func (e *Engine) resolveCancellation(ctx context.Context, sess *Session, text string) (string, string) {
	appt := sess.Pending.Appointment
	switch e.confirm.Detect(ctx, text, "cancelling "+appt.Slot().Format()) {
	case nlu.ConfirmationYes:
		if err := e.cal.Cancel(ctx, appt.Provider, appt.ID); err != nil {
			sess.clearPending()
			e.metrics.ObserveCommit("cancellation", "failure")
			e.metrics.ObserveExternalFailure("calendar")
			e.recordEvent(ctx, sess, audit.EventExternalFailure, "cancel: "+err.Error())
			return replyCancelFailed, "cancel_failed"
		}
		sess.clearPending()
		if sess.CommittedAppointmentID == appt.ID {
			sess.CommittedAppointmentID = ""
		}
		e.metrics.ObserveCommit("cancellation", "success")
		e.recordEvent(ctx, sess, audit.EventCancellationCommitted, appt.ID)
		return replyCancelled(appt), "cancelled"
	case nlu.ConfirmationNo:
		sess.clearPending()
		e.recordEvent(ctx, sess, audit.EventCancellationDeclined, appt.ID)
		return replyCancelDeclined, "cancel_declined"
	default:
		return replyCancelPrompt(appt), "cancel_reoffer"
	}
}
