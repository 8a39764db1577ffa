package scheduling

import (
	"sort"
	"time"

	"github.com/brightsmile/frontdesk/internal/clinic"
)

// MatchRequest carries everything the matcher needs. It is a pure value;
// the matcher never touches session or calendar state.
type MatchRequest struct {
	Treatment clinic.Treatment
	// Provider narrows candidates to one provider when set.
	Provider clinic.Provider
	// Duration is the required appointment length, already computed from
	// treatment, provider, and unit count.
	Duration time.Duration
	// Preference is the parsed date/time wish; the zero value is a full
	// wildcard.
	Preference Preference
	// Candidates is the open-slot list for all eligible providers.
	Candidates []Slot
	// Exclude lists provider/interval pairs that must not be offered, such
	// as a just-cancelled appointment during a reschedule.
	Exclude []Slot
	// Hours bounds bookable slots; the zero value means DefaultHours.
	Hours Hours
}

// Match filters the candidate list down to the single best slot:
// eligible provider, inside working hours, long enough, preferred date and
// time when expressed, earliest start wins. When the preference narrows the
// viable set to nothing, the earliest viable slot is returned instead
// (ASAP fallback); "no slot" only means no candidate survived the hard
// filters at all.
func Match(req MatchRequest) (Slot, bool) {
	hours := req.Hours
	if hours == (Hours{}) {
		hours = DefaultHours
	}

	viable := make([]Slot, 0, len(req.Candidates))
	for _, s := range req.Candidates {
		if req.Provider != "" && s.Provider != req.Provider {
			continue
		}
		// Eligibility holds even for an explicitly requested provider:
		// naming someone who does not perform the treatment yields no slot.
		if !clinic.IsEligible(req.Treatment, s.Provider) {
			continue
		}
		if !hours.Contains(s) {
			continue
		}
		if s.Duration() < req.Duration {
			continue
		}
		if isExcluded(s, req.Exclude) {
			continue
		}
		viable = append(viable, s)
	}

	if len(viable) == 0 {
		return Slot{}, false
	}

	sort.SliceStable(viable, func(i, j int) bool {
		return viable[i].Start.Before(viable[j].Start)
	})

	if !req.Preference.IsZero() {
		for _, s := range viable {
			if req.Preference.Matches(s.Start) {
				return s, true
			}
		}
	}

	// Preference narrowed to nothing (or was absent): earliest viable slot.
	return viable[0], true
}

func isExcluded(s Slot, excluded []Slot) bool {
	for _, e := range excluded {
		if s.SameInterval(e) {
			return true
		}
	}
	return false
}

// ExpandWindows slices contiguous open intervals into offerable slots: one
// candidate per grid step, each exactly the duration need reports for its
// provider. Intervals already exactly that long pass through unchanged, so
// discrete slot lists are unaffected.
func ExpandWindows(open []Slot, grid time.Duration, need func(clinic.Provider) time.Duration) []Slot {
	if grid <= 0 {
		grid = 30 * time.Minute
	}
	var out []Slot
	for _, w := range open {
		d := need(w.Provider)
		if d <= 0 {
			continue
		}
		if w.Duration() == d {
			out = append(out, w)
			continue
		}
		for s := w.Start; !s.Add(d).After(w.End); s = s.Add(grid) {
			out = append(out, Slot{Provider: w.Provider, Start: s, End: s.Add(d)})
		}
	}
	return out
}

// ContainsInterval reports whether some open slot for the given provider
// fully contains [start, end). This is the commit-time recheck: an offered
// slot is still bookable only while a fresh open interval of sufficient
// duration covers it.
func ContainsInterval(open []Slot, provider clinic.Provider, start, end time.Time) bool {
	for _, s := range open {
		if s.Provider != provider {
			continue
		}
		if !s.Start.After(start) && !s.End.Before(end) {
			return true
		}
	}
	return false
}
