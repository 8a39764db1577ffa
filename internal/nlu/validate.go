package nlu

import (
	"regexp"
	"strings"

	"github.com/brightsmile/frontdesk/internal/clinic"
)

const (
	minNameLen     = 2
	maxNameLen     = 80
	maxUnitCount   = 32
	maxFreeTextLen = 500
)

var nameRe = regexp.MustCompile(`^[\p{L}][\p{L} .'-]*$`)

// ValidatedFields is the extraction result after allow-list and range
// checks. Has* booleans distinguish "absent" from the zero enum value.
type ValidatedFields struct {
	PatientName  string
	Treatment    clinic.Treatment
	HasTreatment bool
	Provider     clinic.Provider
	HasProvider  bool
	UnitCount    int
	DateTimeText string
}

// Validate checks every extracted field against its allow-list or range and
// silently drops whatever fails; a bad field never fails the turn, the
// patient is simply asked again.
func Validate(raw Fields) ValidatedFields {
	var out ValidatedFields

	name := strings.TrimSpace(raw.PatientName)
	if len(name) >= minNameLen && len(name) <= maxNameLen && nameRe.MatchString(name) {
		out.PatientName = name
	}

	if t, ok := clinic.ParseTreatment(raw.Treatment); ok {
		out.Treatment = t
		out.HasTreatment = true
	}

	if p, ok := clinic.ParseProvider(raw.Provider); ok {
		out.Provider = p
		out.HasProvider = true
	}

	if raw.UnitCount >= 1 && raw.UnitCount <= maxUnitCount {
		out.UnitCount = raw.UnitCount
	}

	text := strings.TrimSpace(raw.DateTimeText)
	if text != "" && len(text) <= maxFreeTextLen {
		out.DateTimeText = text
	}

	return out
}
