package scheduling

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RuleParser resolves common date/time phrasing without an AI collaborator:
// "tomorrow", weekday names, "at 2pm", "14:30". Anything it cannot read
// yields the wildcard preference, never an error.
type RuleParser struct{}

var (
	weekdayRe = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	clockRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	bareHrRe  = regexp.MustCompile(`(?i)\b(?:at|around)\s+(\d{1,2})\b`)
)

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday, "sunday": time.Sunday,
}

// Parse reads a preference out of free text. referenceTime anchors relative
// phrases; "next tuesday" and a bare "tuesday" both resolve to the next
// occurrence after the reference day.
func (RuleParser) Parse(_ context.Context, text string, referenceTime time.Time) (Preference, error) {
	var pref Preference
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "today"):
		d := DateOf(referenceTime)
		pref.Date = &d
	case strings.Contains(lower, "tomorrow"):
		d := DateOf(referenceTime.AddDate(0, 0, 1))
		pref.Date = &d
	default:
		if m := weekdayRe.FindString(lower); m != "" {
			target := weekdayNames[m]
			days := (int(target) - int(referenceTime.Weekday()) + 7) % 7
			if days == 0 {
				days = 7
			}
			d := DateOf(referenceTime.AddDate(0, 0, days))
			pref.Date = &d
		}
	}

	if c, ok := parseClock(text); ok {
		pref.Time = &c
	}
	return pref, nil
}

func parseClock(text string) (ClockTime, bool) {
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return ClockTime{}, false
		}
		if strings.EqualFold(m[3], "pm") && hour != 12 {
			hour += 12
		}
		if strings.EqualFold(m[3], "am") && hour == 12 {
			hour = 0
		}
		return ClockTime{Hour: hour, Minute: minute}, true
	}
	if m := clock24Re.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return ClockTime{Hour: hour, Minute: minute}, true
	}
	if strings.Contains(strings.ToLower(text), "noon") {
		return ClockTime{Hour: 12}, true
	}
	if m := bareHrRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 0 && hour <= 23 {
			// Bare small hours read as daytime: "at 2" means 2 PM.
			if hour >= 1 && hour <= 7 {
				hour += 12
			}
			return ClockTime{Hour: hour}, true
		}
	}
	return ClockTime{}, false
}

// ChainParser tries each parser in order and returns the first expressed
// preference. Errors are swallowed so an AI parser in front of the rule
// parser degrades instead of failing the chain.
type ChainParser []Parser

func (c ChainParser) Parse(ctx context.Context, text string, referenceTime time.Time) (Preference, error) {
	for _, p := range c {
		pref, err := p.Parse(ctx, text, referenceTime)
		if err == nil && !pref.IsZero() {
			return pref, nil
		}
	}
	return Preference{}, nil
}

var (
	_ Parser = RuleParser{}
	_ Parser = ChainParser(nil)
)
