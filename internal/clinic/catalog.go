// Package clinic holds the treatment and provider catalog: which providers
// perform which treatments, and how long each appointment needs.
package clinic

import (
	"strings"
	"time"
)

// Treatment is one of the fixed services the practice offers.
type Treatment string

const (
	TreatmentCheckup    Treatment = "checkup"
	TreatmentCleaning   Treatment = "cleaning"
	TreatmentFilling    Treatment = "filling"
	TreatmentRootCanal  Treatment = "root_canal"
	TreatmentExtraction Treatment = "extraction"
	TreatmentWhitening  Treatment = "whitening"
)

// Provider identifies a dentist on the calendar.
type Provider string

const (
	ProviderLovell   Provider = "dr_lovell"
	ProviderNakamura Provider = "dr_nakamura"
	ProviderPrice    Provider = "dr_price"
)

// Treatments lists every valid treatment.
var Treatments = []Treatment{
	TreatmentCheckup,
	TreatmentCleaning,
	TreatmentFilling,
	TreatmentRootCanal,
	TreatmentExtraction,
	TreatmentWhitening,
}

// Providers lists every provider.
var Providers = []Provider{ProviderLovell, ProviderNakamura, ProviderPrice}

// eligibility maps each treatment to the providers who perform it.
var eligibility = map[Treatment][]Provider{
	TreatmentCheckup:    {ProviderLovell, ProviderNakamura, ProviderPrice},
	TreatmentCleaning:   {ProviderLovell, ProviderNakamura, ProviderPrice},
	TreatmentFilling:    {ProviderLovell, ProviderNakamura},
	TreatmentRootCanal:  {ProviderNakamura},
	TreatmentExtraction: {ProviderLovell, ProviderNakamura},
	TreatmentWhitening:  {ProviderLovell, ProviderPrice},
}

// baseDuration is the fixed appointment length per treatment.
var baseDuration = map[Treatment]time.Duration{
	TreatmentCheckup:    30 * time.Minute,
	TreatmentCleaning:   30 * time.Minute,
	TreatmentFilling:    30 * time.Minute,
	TreatmentRootCanal:  90 * time.Minute,
	TreatmentExtraction: 45 * time.Minute,
	TreatmentWhitening:  60 * time.Minute,
}

const fillingPerToothIncrement = 15 * time.Minute

// Whitening runs longer with Dr. Price, who uses the laser system.
const whiteningPriceVariant = 90 * time.Minute

// NeedsUnitCount reports whether the treatment's duration depends on a
// per-tooth unit count the caller must supply.
func NeedsUnitCount(t Treatment) bool {
	return t == TreatmentFilling
}

// Duration computes the required appointment length for a treatment.
// units is the tooth count for filling-type treatments and ignored otherwise;
// a non-positive count is treated as one unit.
func Duration(t Treatment, p Provider, units int) (time.Duration, bool) {
	base, ok := baseDuration[t]
	if !ok {
		return 0, false
	}
	switch t {
	case TreatmentFilling:
		if units < 1 {
			units = 1
		}
		return base + time.Duration(units-1)*fillingPerToothIncrement, true
	case TreatmentWhitening:
		if p == ProviderPrice {
			return whiteningPriceVariant, true
		}
	}
	return base, true
}

// EligibleProviders returns the providers who perform the treatment.
func EligibleProviders(t Treatment) []Provider {
	providers, ok := eligibility[t]
	if !ok {
		return nil
	}
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// IsEligible reports whether the provider performs the treatment.
func IsEligible(t Treatment, p Provider) bool {
	for _, candidate := range eligibility[t] {
		if candidate == p {
			return true
		}
	}
	return false
}

// treatmentAliases maps patient phrasing onto catalog treatments.
var treatmentAliases = map[string]Treatment{
	"checkup":     TreatmentCheckup,
	"check-up":    TreatmentCheckup,
	"check up":    TreatmentCheckup,
	"exam":        TreatmentCheckup,
	"cleaning":    TreatmentCleaning,
	"clean":       TreatmentCleaning,
	"hygiene":     TreatmentCleaning,
	"filling":     TreatmentFilling,
	"fillings":    TreatmentFilling,
	"cavity":      TreatmentFilling,
	"root canal":  TreatmentRootCanal,
	"root_canal":  TreatmentRootCanal,
	"extraction":  TreatmentExtraction,
	"pull":        TreatmentExtraction,
	"removal":     TreatmentExtraction,
	"whitening":   TreatmentWhitening,
	"whiten":      TreatmentWhitening,
	"bleaching":   TreatmentWhitening,
}

// ParseTreatment resolves free text to a catalog treatment.
func ParseTreatment(text string) (Treatment, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return "", false
	}
	if t, ok := treatmentAliases[key]; ok {
		return t, true
	}
	for alias, t := range treatmentAliases {
		if strings.Contains(key, alias) {
			return t, true
		}
	}
	return "", false
}

// providerAliases maps patient phrasing onto providers.
var providerAliases = map[string]Provider{
	"lovell":      ProviderLovell,
	"dr lovell":   ProviderLovell,
	"dr. lovell":  ProviderLovell,
	"nakamura":    ProviderNakamura,
	"dr nakamura": ProviderNakamura,
	"price":       ProviderPrice,
	"dr price":    ProviderPrice,
	"dr. price":   ProviderPrice,
}

// ParseProvider resolves free text to a provider.
func ParseProvider(text string) (Provider, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return "", false
	}
	if p, ok := providerAliases[key]; ok {
		return p, true
	}
	for alias, p := range providerAliases {
		if strings.Contains(key, alias) {
			return p, true
		}
	}
	return "", false
}

// DisplayName returns the patient-facing provider name.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderLovell:
		return "Dr. Lovell"
	case ProviderNakamura:
		return "Dr. Nakamura"
	case ProviderPrice:
		return "Dr. Price"
	default:
		return string(p)
	}
}

// DisplayName returns the patient-facing treatment name.
func (t Treatment) DisplayName() string {
	switch t {
	case TreatmentRootCanal:
		return "root canal"
	default:
		return strings.ReplaceAll(string(t), "_", " ")
	}
}
