package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/brightsmile/frontdesk/internal/audit"
	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/nlu"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

// advanceBooking moves the booking machine forward: ask for the next missing
// field, or match a slot and offer it. Remaining in the collecting state is
// the error exit for every downstream failure.
func (e *Engine) advanceBooking(ctx context.Context, sess *Session) (string, string) {
	sess.Collecting = true

	if sess.PatientName == "" {
		return replyAskName, "collecting"
	}
	if !sess.HasTreatment {
		return replyAskTreatment, "collecting"
	}
	if clinic.NeedsUnitCount(sess.Treatment) && sess.UnitCount == 0 {
		return replyAskUnits, "collecting"
	}

	slot, ok, err := e.matchSlot(ctx, sess, nil)
	if err != nil {
		e.metrics.ObserveExternalFailure("calendar")
		e.recordEvent(ctx, sess, audit.EventExternalFailure, "list open slots: "+err.Error())
		return replyCalendarTrouble, "external_failure"
	}
	if !ok {
		return replyNoSlots, "no_slot"
	}

	sess.Pending = pendingBooking(slot)
	if !sess.HasProvider {
		// The picked slot fixes the provider for the rest of the flow.
		sess.Provider = slot.Provider
		sess.HasProvider = true
	}
	e.recordEvent(ctx, sess, audit.EventBookingOffered, slot.Format())
	return replyOffer(slot), "offered"
}

// resolveBooking consumes the turn after a slot was offered.
func (e *Engine) resolveBooking(ctx context.Context, sess *Session, text string) (string, string) {
	slot := sess.Pending.Slot
	switch e.confirm.Detect(ctx, text, "booking "+slot.Format()) {
	case nlu.ConfirmationYes:
		return e.commitBooking(ctx, sess)
	case nlu.ConfirmationNo:
		// Known patient/treatment/provider fields survive the decline.
		sess.clearPending()
		e.recordEvent(ctx, sess, audit.EventBookingDeclined, slot.Format())
		return replyBookingDeclined, "declined"
	default:
		// No transition: the offer is re-presented verbatim.
		return replyOffer(slot), "reoffer"
	}
}

// commitBooking performs the optimistic-concurrency recheck and the commit.
// Pending state was written before the user's think-time; it is cleared or
// replaced strictly after each external call returns, so no failure path
// can leave a stale pending slot behind.
func (e *Engine) commitBooking(ctx context.Context, sess *Session) (string, string) {
	prior := sess.Pending
	slot := prior.Slot
	required, _ := clinic.Duration(sess.Treatment, slot.Provider, sess.UnitCount)

	// Recheck against a fresh fetch, never the cache: the offer and the
	// confirmation are separated by user think-time during which another
	// caller may have taken the interval.
	fresh, err := e.cal.ListOpenSlots(ctx, sess.Treatment, []clinic.Provider{slot.Provider})
	if err != nil {
		sess.clearPending()
		e.metrics.ObserveExternalFailure("calendar")
		e.recordEvent(ctx, sess, audit.EventExternalFailure, "recheck fetch: "+err.Error())
		return replyCalendarTrouble, "external_failure"
	}
	sess.SlotCache = fresh
	sess.SlotCacheAt = e.now()

	if !scheduling.ContainsInterval(fresh, slot.Provider, slot.Start, slot.Start.Add(required)) {
		sess.clearPending()
		e.metrics.ObserveRecheckFailure()
		e.recordEvent(ctx, sess, audit.EventRecheckFailed, slot.Format())
		return e.reofferAfterRecheckFailure(ctx, sess, fresh, prior)
	}

	appt, err := e.cal.Commit(ctx, calendar.CommitRequest{
		Provider:    slot.Provider,
		Start:       slot.Start,
		End:         slot.Start.Add(required),
		PatientName: sess.PatientName,
		Treatment:   sess.Treatment,
		ContactID:   sess.ContactID,
	})
	if err != nil {
		sess.clearPending()
		e.metrics.ObserveCommit("booking", "failure")
		e.metrics.ObserveExternalFailure("calendar")
		e.recordEvent(ctx, sess, audit.EventExternalFailure, "commit: "+err.Error())
		return replyCommitFailed, "commit_failed"
	}

	sess.clearPending()
	sess.Collecting = false
	sess.CommittedAppointmentID = appt.ID
	e.metrics.ObserveCommit("booking", "success")
	e.recordEvent(ctx, sess, audit.EventBookingCommitted, appt.ID)
	return replyBooked(appt), "booked"
}

// reofferAfterRecheckFailure re-runs the matcher over the fresh list after
// the offered slot was lost to a concurrent booking. prior is the pending
// action that was just cleared; a reschedule keeps its exclusion and
// preserved provider across the re-offer.
func (e *Engine) reofferAfterRecheckFailure(ctx context.Context, sess *Session, fresh []scheduling.Slot, prior PendingAction) (string, string) {
	var excludes []scheduling.Slot
	if !prior.ExcludedSlot.IsZero() {
		excludes = append(excludes, prior.ExcludedSlot)
	}
	alternative, ok := e.matchWith(ctx, sess, fresh, excludes)
	if !ok {
		return replySlotTakenNoAlternative, "recheck_failed"
	}
	if prior.Kind == PendingReschedule {
		sess.Pending = PendingAction{
			Kind:              PendingReschedule,
			Phase:             PhaseBook,
			Slot:              alternative,
			Appointment:       prior.Appointment,
			ExcludedSlot:      prior.ExcludedSlot,
			PreservedProvider: prior.PreservedProvider,
		}
	} else {
		sess.Pending = pendingBooking(alternative)
	}
	e.recordEvent(ctx, sess, audit.EventBookingOffered, alternative.Format())
	return replySlotTakenNewOffer(alternative), "recheck_reoffered"
}

// matchSlot fetches candidates (cache-aware) and runs the matcher. extra
// exclusions come from the reschedule flow.
func (e *Engine) matchSlot(ctx context.Context, sess *Session, exclude []scheduling.Slot) (scheduling.Slot, bool, error) {
	providers := e.candidateProviders(sess)
	candidates, err := e.openSlots(ctx, sess, providers)
	if err != nil {
		return scheduling.Slot{}, false, err
	}
	slot, ok := e.matchWith(ctx, sess, candidates, exclude)
	return slot, ok, nil
}

// slotGrid is the step between offerable start times inside a wide open
// interval.
const slotGrid = 30 * time.Minute

// matchWith applies the matcher. Open intervals are sliced per provider to
// that provider's exact required length first, so a provider-dependent
// duration (the whitening laser case) can never yield a too-short offer.
func (e *Engine) matchWith(ctx context.Context, sess *Session, candidates []scheduling.Slot, exclude []scheduling.Slot) (scheduling.Slot, bool) {
	var fixed clinic.Provider
	if sess.HasProvider {
		fixed = sess.Provider
	}
	required, _ := clinic.Duration(sess.Treatment, fixed, sess.UnitCount)
	pref := e.parsePreference(ctx, sess)

	candidates = scheduling.ExpandWindows(candidates, slotGrid, func(p clinic.Provider) time.Duration {
		d, _ := clinic.Duration(sess.Treatment, p, sess.UnitCount)
		return d
	})

	return scheduling.Match(scheduling.MatchRequest{
		Treatment:  sess.Treatment,
		Provider:   fixed,
		Duration:   required,
		Preference: pref,
		Candidates: candidates,
		Exclude:    exclude,
		Hours:      e.hours,
	})
}

func (e *Engine) candidateProviders(sess *Session) []clinic.Provider {
	if sess.HasProvider {
		return []clinic.Provider{sess.Provider}
	}
	return clinic.EligibleProviders(sess.Treatment)
}

// captureUnitCount deterministically accepts a bare tooth count while the
// booking machine is waiting for one, ahead of any AI extraction.
func captureUnitCount(sess *Session, text string) {
	if !sess.Collecting || sess.UnitCount != 0 {
		return
	}
	if !sess.HasTreatment || !clinic.NeedsUnitCount(sess.Treatment) {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil && n >= 1 && n <= 32 {
		sess.UnitCount = n
	}
}
