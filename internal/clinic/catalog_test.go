package clinic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name      string
		treatment Treatment
		provider  Provider
		units     int
		want      time.Duration
	}{
		{"checkup fixed", TreatmentCheckup, ProviderLovell, 0, 30 * time.Minute},
		{"cleaning fixed", TreatmentCleaning, ProviderNakamura, 0, 30 * time.Minute},
		{"root canal fixed", TreatmentRootCanal, ProviderNakamura, 0, 90 * time.Minute},
		{"filling one tooth", TreatmentFilling, ProviderLovell, 1, 30 * time.Minute},
		{"filling three teeth", TreatmentFilling, ProviderLovell, 3, 60 * time.Minute},
		{"filling zero units treated as one", TreatmentFilling, ProviderLovell, 0, 30 * time.Minute},
		{"whitening default", TreatmentWhitening, ProviderLovell, 0, 60 * time.Minute},
		{"whitening provider variant", TreatmentWhitening, ProviderPrice, 0, 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Duration(tt.treatment, tt.provider, tt.units)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationUnknownTreatment(t *testing.T) {
	_, ok := Duration(Treatment("orthodontics"), ProviderLovell, 0)
	assert.False(t, ok)
}

func TestEligibility(t *testing.T) {
	assert.True(t, IsEligible(TreatmentRootCanal, ProviderNakamura))
	assert.False(t, IsEligible(TreatmentRootCanal, ProviderPrice))
	assert.False(t, IsEligible(TreatmentWhitening, ProviderNakamura))

	all := EligibleProviders(TreatmentCleaning)
	assert.Len(t, all, 3)

	// Returned slice is a copy; mutating it must not affect the catalog.
	all[0] = Provider("someone_else")
	assert.True(t, IsEligible(TreatmentCleaning, ProviderLovell))
}

func TestParseTreatment(t *testing.T) {
	tests := []struct {
		text string
		want Treatment
		ok   bool
	}{
		{"Cleaning", TreatmentCleaning, true},
		{"I need a check-up", TreatmentCheckup, true},
		{"root canal please", TreatmentRootCanal, true},
		{"I have a cavity", TreatmentFilling, true},
		{"teeth whitening", TreatmentWhitening, true},
		{"", "", false},
		{"haircut", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTreatment(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		if ok {
			assert.Equal(t, tt.want, got, tt.text)
		}
	}
}

func TestParseProvider(t *testing.T) {
	got, ok := ParseProvider("Dr. Price")
	assert.True(t, ok)
	assert.Equal(t, ProviderPrice, got)

	got, ok = ParseProvider("with nakamura if possible")
	assert.True(t, ok)
	assert.Equal(t, ProviderNakamura, got)

	_, ok = ParseProvider("dr who")
	assert.False(t, ok)
}

func TestNeedsUnitCount(t *testing.T) {
	assert.True(t, NeedsUnitCount(TreatmentFilling))
	assert.False(t, NeedsUnitCount(TreatmentCleaning))
}
