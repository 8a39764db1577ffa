package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/scheduling"
)

func openSlot(p clinic.Provider, start time.Time, minutes int) scheduling.Slot {
	return scheduling.Slot{Provider: p, Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

func TestCommitSplitsOpenInterval(t *testing.T) {
	ctx := context.Background()
	cal := NewMemoryCalendar()
	start := time.Date(2026, time.September, 7, 9, 0, 0, 0, time.UTC)
	cal.AddOpenSlot(openSlot(clinic.ProviderLovell, start, 180)) // 09:00-12:00

	appt, err := cal.Commit(ctx, CommitRequest{
		Provider:    clinic.ProviderLovell,
		Start:       start.Add(time.Hour),
		End:         start.Add(90 * time.Minute),
		PatientName: "Jane Doe",
		Treatment:   clinic.TreatmentCleaning,
		ContactID:   "+15550001",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.NotEmpty(t, appt.EventID)

	slots, err := cal.ListOpenSlots(ctx, clinic.TreatmentCleaning, []clinic.Provider{clinic.ProviderLovell})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, start, slots[0].Start)
	assert.Equal(t, start.Add(time.Hour), slots[0].End)
	assert.Equal(t, start.Add(90*time.Minute), slots[1].Start)
}

func TestCommitKeepsLaterIntervalsIntact(t *testing.T) {
	ctx := context.Background()
	cal := NewMemoryCalendar()
	morning := time.Date(2026, time.September, 7, 9, 0, 0, 0, time.UTC)
	afternoon := time.Date(2026, time.September, 7, 14, 0, 0, 0, time.UTC)
	cal.AddOpenSlot(openSlot(clinic.ProviderLovell, morning, 180)) // 09:00-12:00
	cal.AddOpenSlot(openSlot(clinic.ProviderLovell, afternoon, 60))

	_, err := cal.Commit(ctx, CommitRequest{
		Provider: clinic.ProviderLovell,
		Start:    morning.Add(time.Hour),
		End:      morning.Add(90 * time.Minute),
	})
	require.NoError(t, err)

	slots, err := cal.ListOpenSlots(ctx, clinic.TreatmentCleaning, []clinic.Provider{clinic.ProviderLovell})
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, openSlot(clinic.ProviderLovell, morning, 60), slots[0])
	assert.Equal(t, openSlot(clinic.ProviderLovell, morning.Add(90*time.Minute), 90), slots[1])
	assert.Equal(t, openSlot(clinic.ProviderLovell, afternoon, 60), slots[2])

	// Booking part of the split remainder works exactly once.
	remainder := CommitRequest{
		Provider: clinic.ProviderLovell,
		Start:    morning.Add(90 * time.Minute),
		End:      morning.Add(2 * time.Hour),
	}
	_, err = cal.Commit(ctx, remainder)
	require.NoError(t, err)
	_, err = cal.Commit(ctx, remainder)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCommitRejectsTakenInterval(t *testing.T) {
	ctx := context.Background()
	cal := NewMemoryCalendar()
	start := time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC)
	cal.AddOpenSlot(openSlot(clinic.ProviderNakamura, start, 30))

	req := CommitRequest{
		Provider: clinic.ProviderNakamura,
		Start:    start,
		End:      start.Add(30 * time.Minute),
	}
	_, err := cal.Commit(ctx, req)
	require.NoError(t, err)

	_, err = cal.Commit(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCancelReopensInterval(t *testing.T) {
	ctx := context.Background()
	cal := NewMemoryCalendar()
	start := time.Date(2026, time.September, 7, 14, 0, 0, 0, time.UTC)
	cal.AddOpenSlot(openSlot(clinic.ProviderPrice, start, 60))

	appt, err := cal.Commit(ctx, CommitRequest{
		Provider: clinic.ProviderPrice,
		Start:    start,
		End:      start.Add(time.Hour),
	})
	require.NoError(t, err)

	slots, _ := cal.ListOpenSlots(ctx, clinic.TreatmentWhitening, []clinic.Provider{clinic.ProviderPrice})
	assert.Empty(t, slots)

	require.NoError(t, cal.Cancel(ctx, clinic.ProviderPrice, appt.ID))

	slots, _ = cal.ListOpenSlots(ctx, clinic.TreatmentWhitening, []clinic.Provider{clinic.ProviderPrice})
	require.Len(t, slots, 1)
	assert.Equal(t, start, slots[0].Start)
}

func TestCancelMergesAdjacentIntervals(t *testing.T) {
	ctx := context.Background()
	cal := NewMemoryCalendar()
	start := time.Date(2026, time.September, 7, 9, 0, 0, 0, time.UTC)
	cal.AddOpenSlot(openSlot(clinic.ProviderNakamura, start, 180)) // 09:00-12:00

	appt, err := cal.Commit(ctx, CommitRequest{
		Provider: clinic.ProviderNakamura,
		Start:    start.Add(time.Hour),
		End:      start.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, cal.Cancel(ctx, clinic.ProviderNakamura, appt.ID))

	// The freed hour coalesces with its neighbors back into one window.
	slots, err := cal.ListOpenSlots(ctx, clinic.TreatmentRootCanal, []clinic.Provider{clinic.ProviderNakamura})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, openSlot(clinic.ProviderNakamura, start, 180), slots[0])

	// A visit longer than the freed hour now fits across the old seams.
	_, err = cal.Commit(ctx, CommitRequest{
		Provider: clinic.ProviderNakamura,
		Start:    start.Add(30 * time.Minute),
		End:      start.Add(2 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestCancelUnknownAppointment(t *testing.T) {
	cal := NewMemoryCalendar()
	err := cal.Cancel(context.Background(), clinic.ProviderLovell, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByContactMostRecentFirst(t *testing.T) {
	cal := NewMemoryCalendar()
	start := time.Date(2026, time.September, 7, 9, 0, 0, 0, time.UTC)

	older := cal.Seed(Appointment{
		Provider:  clinic.ProviderLovell,
		Start:     start,
		End:       start.Add(30 * time.Minute),
		ContactID: "+15550001",
		BookedAt:  time.Now().Add(-time.Hour),
	})
	newer := cal.Seed(Appointment{
		Provider:  clinic.ProviderNakamura,
		Start:     start.AddDate(0, 0, 1),
		End:       start.AddDate(0, 0, 1).Add(30 * time.Minute),
		ContactID: "+15550001",
		BookedAt:  time.Now(),
	})
	cal.Seed(Appointment{ContactID: "+15559999", Provider: clinic.ProviderPrice})

	found, err := cal.FindByContact(context.Background(), "+15550001")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, newer.ID, found[0].ID)
	assert.Equal(t, older.ID, found[1].ID)
}

func TestRemoveOpenSlot(t *testing.T) {
	ctx := context.Background()
	cal := NewMemoryCalendar()
	start := time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC)
	slot := openSlot(clinic.ProviderLovell, start, 30)
	cal.AddOpenSlot(slot)

	cal.RemoveOpenSlot(slot)

	slots, err := cal.ListOpenSlots(ctx, clinic.TreatmentCheckup, []clinic.Provider{clinic.ProviderLovell})
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = cal.Commit(ctx, CommitRequest{Provider: clinic.ProviderLovell, Start: start, End: start.Add(30 * time.Minute)})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}
