// Package scheduling implements slot matching: reconciling a patient's
// date/time preference against a calendar's open slots.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/brightsmile/frontdesk/internal/clinic"
)

// Slot is a concrete open interval on one provider's calendar.
type Slot struct {
	Provider clinic.Provider `json:"provider"`
	Start    time.Time       `json:"start"`
	End      time.Time       `json:"end"`
}

// Duration returns the length of the slot.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// IsZero reports whether the slot is unset.
func (s Slot) IsZero() bool {
	return s.Start.IsZero() && s.End.IsZero()
}

// SameInterval reports whether two slots cover the same provider and interval.
func (s Slot) SameInterval(other Slot) bool {
	return s.Provider == other.Provider &&
		s.Start.Equal(other.Start) &&
		s.End.Equal(other.End)
}

// Format renders the slot for a patient-facing message.
func (s Slot) Format() string {
	return fmt.Sprintf("%s at %s with %s",
		s.Start.Format("Monday, Jan 2"),
		s.Start.Format("3:04 PM"),
		s.Provider.DisplayName(),
	)
}

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the Date of an instant.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ClockTime is a time of day without a date component.
type ClockTime struct {
	Hour   int
	Minute int
}

// minutes returns the clock time as minutes after midnight.
func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// timeTolerance is how far a candidate start may drift from the preferred
// time and still count as a match, in either direction, inclusive.
const timeTolerance = time.Hour

// Preference is a parsed date/time wish. A nil Date matches any date and a
// nil Time matches any time; absence of preference is a wildcard.
type Preference struct {
	Date *Date
	Time *ClockTime
}

// IsZero reports whether no preference was expressed at all.
func (p Preference) IsZero() bool {
	return p.Date == nil && p.Time == nil
}

// Matches reports whether the candidate start satisfies the preference.
// The time check is symmetric: a 10:00 preference accepts candidates from
// 09:00 through 11:00 inclusive.
func (p Preference) Matches(candidate time.Time) bool {
	if p.Date != nil && DateOf(candidate) != *p.Date {
		return false
	}
	if p.Time != nil {
		candMinutes := candidate.Hour()*60 + candidate.Minute()
		diff := candMinutes - p.Time.minutes()
		if diff < 0 {
			diff = -diff
		}
		if time.Duration(diff)*time.Minute > timeTolerance {
			return false
		}
	}
	return true
}

// Parser turns free text like "next Tuesday at 2pm" into a Preference.
// The implementation is an external collaborator; referenceTime anchors
// relative phrases.
type Parser interface {
	Parse(ctx context.Context, text string, referenceTime time.Time) (Preference, error)
}

// Hours bounds bookable slots to the practice's working hours.
type Hours struct {
	StartHour int // inclusive
	EndHour   int // exclusive upper bound for the slot end
}

// DefaultHours is 09:00-18:00, Monday through Friday.
var DefaultHours = Hours{StartHour: 9, EndHour: 18}

// Contains reports whether the slot falls entirely inside working hours on
// a weekday.
func (h Hours) Contains(s Slot) bool {
	switch s.Start.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	dayStart := time.Date(s.Start.Year(), s.Start.Month(), s.Start.Day(), h.StartHour, 0, 0, 0, s.Start.Location())
	dayEnd := time.Date(s.Start.Year(), s.Start.Month(), s.Start.Day(), h.EndHour, 0, 0, 0, s.Start.Location())
	if s.Start.Before(dayStart) {
		return false
	}
	if s.End.After(dayEnd) {
		return false
	}
	return !s.End.Before(s.Start)
}
