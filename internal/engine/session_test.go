package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

func TestPendingActionMutualExclusion(t *testing.T) {
	var sess Session
	assert.True(t, sess.Pending.None())

	slot := open(clinic.ProviderLovell, at(testMonday, 10, 0), 30)
	sess.Pending = pendingBooking(slot)
	assert.True(t, sess.BookingPending())
	assert.False(t, sess.CancellationPending())
	assert.False(t, sess.ReschedulePending())

	// Starting a cancellation replaces the booking outright; the slot does
	// not survive in any side channel.
	sess.Pending = pendingCancellation(calendar.Appointment{ID: "a1"})
	assert.False(t, sess.BookingPending())
	assert.True(t, sess.CancellationPending())
	_, ok := sess.SelectedSlot()
	assert.False(t, ok)

	sess.clearPending()
	assert.True(t, sess.Pending.None())
}

func TestSelectedSlot(t *testing.T) {
	slot := open(clinic.ProviderPrice, at(testTuesday, 14, 30), 30)

	var sess Session
	_, ok := sess.SelectedSlot()
	require.False(t, ok)

	sess.Pending = pendingBooking(slot)
	got, ok := sess.SelectedSlot()
	require.True(t, ok)
	assert.True(t, got.SameInterval(slot))

	// A reschedule exposes its slot only once one is offered.
	sess.Pending = PendingAction{Kind: PendingReschedule, Phase: PhaseCancel, Slot: slot}
	_, ok = sess.SelectedSlot()
	assert.False(t, ok)

	sess.Pending.Phase = PhaseBook
	got, ok = sess.SelectedSlot()
	require.True(t, ok)
	assert.True(t, got.SameInterval(slot))
}

func TestAppendHistoryBounded(t *testing.T) {
	var sess Session
	now := time.Now()
	for i := 0; i < 30; i++ {
		sess.appendHistory("user", fmt.Sprintf("msg %d", i), now, 20)
	}
	require.Len(t, sess.History, 20)
	assert.Equal(t, "msg 10", sess.History[0].Content)
	assert.Equal(t, "msg 29", sess.History[19].Content)
}

func TestPendingAccessorsOnStoreCopy(t *testing.T) {
	// The store hands out value copies; the pending accessors must be
	// callable directly on those, not only through a pointer.
	store := NewSessionStore(time.Minute, time.Minute, nil)
	store.Put(Session{
		ConversationID: "c1",
		Pending:        PendingAction{Kind: PendingCancellation},
	})
	assert.True(t, store.Get("c1").CancellationPending())
	assert.False(t, store.Get("c1").BookingPending())
	assert.False(t, store.Get("c1").ReschedulePending())
}

func TestCachedSlots(t *testing.T) {
	now := time.Now()
	slots := []scheduling.Slot{open(clinic.ProviderLovell, at(testMonday, 9, 0), 30)}

	sess := Session{SlotCache: slots, SlotCacheAt: now}

	got, ok := sess.cachedSlots(now.Add(time.Minute), 2*time.Minute)
	require.True(t, ok)
	assert.Equal(t, slots, got)

	_, ok = sess.cachedSlots(now.Add(3*time.Minute), 2*time.Minute)
	assert.False(t, ok, "stale cache must not be served")

	_, ok = sess.cachedSlots(now, 0)
	assert.False(t, ok, "zero ttl disables the cache")

	empty := Session{}
	_, ok = empty.cachedSlots(now, 2*time.Minute)
	assert.False(t, ok)
}
