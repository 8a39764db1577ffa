package nlu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightsmile/frontdesk/internal/clinic"
)

func TestValidateAcceptsGoodFields(t *testing.T) {
	got := Validate(Fields{
		PatientName:  "Jane Doe",
		Treatment:    "Cleaning",
		Provider:     "Dr. Lovell",
		UnitCount:    2,
		DateTimeText: "tomorrow at 10",
	})

	assert.Equal(t, "Jane Doe", got.PatientName)
	assert.True(t, got.HasTreatment)
	assert.Equal(t, clinic.TreatmentCleaning, got.Treatment)
	assert.True(t, got.HasProvider)
	assert.Equal(t, clinic.ProviderLovell, got.Provider)
	assert.Equal(t, 2, got.UnitCount)
	assert.Equal(t, "tomorrow at 10", got.DateTimeText)
}

func TestValidateDropsBadName(t *testing.T) {
	tests := []string{
		"",
		"J",
		"1337 h4x",
		"Jane <script>",
		strings.Repeat("a", 81),
	}
	for _, name := range tests {
		got := Validate(Fields{PatientName: name})
		assert.Empty(t, got.PatientName, "name %q should be dropped", name)
	}
}

func TestValidateAcceptsAccentedAndHyphenatedNames(t *testing.T) {
	for _, name := range []string{"José García", "Anne-Marie O'Neill"} {
		got := Validate(Fields{PatientName: name})
		assert.Equal(t, name, got.PatientName)
	}
}

func TestValidateDropsUnknownEnums(t *testing.T) {
	got := Validate(Fields{Treatment: "haircut", Provider: "dr who"})
	assert.False(t, got.HasTreatment)
	assert.False(t, got.HasProvider)
}

func TestValidateUnitCountRange(t *testing.T) {
	assert.Equal(t, 0, Validate(Fields{UnitCount: 0}).UnitCount)
	assert.Equal(t, 1, Validate(Fields{UnitCount: 1}).UnitCount)
	assert.Equal(t, 32, Validate(Fields{UnitCount: 32}).UnitCount)
	assert.Equal(t, 0, Validate(Fields{UnitCount: 33}).UnitCount)
	assert.Equal(t, 0, Validate(Fields{UnitCount: -1}).UnitCount)
}

func TestValidateFreeTextBound(t *testing.T) {
	assert.Empty(t, Validate(Fields{DateTimeText: strings.Repeat("x", 501)}).DateTimeText)
	assert.Equal(t, "next week", Validate(Fields{DateTimeText: "  next week  "}).DateTimeText)
}
