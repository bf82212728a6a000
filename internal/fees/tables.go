package fees

// Rate tables for the amazon.fr marketplace (2024 fee schedule). Categories
// missing from the referral table fall back to the default rate; this is a
// lookup convenience, never an error.

const defaultReferralRate = 15.0

var referralRates = map[string]float64{
	"default":             15.0,
	"electronics":         8.0,
	"computers":           6.0,
	"books":               15.0,
	"clothing":            17.0,
	"home_garden":         15.0,
	"sports":              15.0,
	"toys":                15.0,
	"beauty":              8.0,
	"automotive":          12.0,
	"industrial":          12.0,
	"jewelry":             20.0,
	"luggage":             15.0,
	"musical_instruments": 15.0,
	"office_products":     15.0,
	"pet_supplies":        15.0,
	"software":            15.0,
	"video_games":         15.0,
	"watches":             16.0,
}

// fbaTier is one FBA fulfillment fee band: a flat base plus a marginal
// per-kilogram rate on weight above one kilogram.
type fbaTier struct {
	Base       float64
	PerKgOver1 float64
}

const (
	tierSmallStandard   = "small_standard"
	tierLargeStandard   = "large_standard"
	tierSmallOversize   = "small_oversize"
	tierMediumOversize  = "medium_oversize"
	tierLargeOversize   = "large_oversize"
	tierSpecialOversize = "special_oversize"
)

var fbaTiers = map[string]fbaTier{
	tierSmallStandard:   {Base: 4.30, PerKgOver1: 0.45},
	tierLargeStandard:   {Base: 5.50, PerKgOver1: 0.65},
	tierSmallOversize:   {Base: 8.90, PerKgOver1: 0.85},
	tierMediumOversize:  {Base: 12.50, PerKgOver1: 1.20},
	tierLargeOversize:   {Base: 23.90, PerKgOver1: 1.50},
	tierSpecialOversize: {Base: 137.50, PerKgOver1: 1.50},
}

// Storage rates in EUR per cubic meter per month.
const (
	storageRateStandard     = 26.00 // January-September
	storageRateStandardPeak = 36.00 // October-December
	storageRateOversize     = 18.60 // year-round
)

// Standard-size classification limits.
const (
	maxStandardDimensionMM = 450
	maxStandardWeightG     = 12000
	maxStandardLengthMM    = 450
	maxStandardWidthMM     = 340
	maxStandardHeightMM    = 260
)

// ReferralRate returns the referral percentage for a category, falling back
// to the default rate for unmapped categories.
func ReferralRate(category string) float64 {
	if rate, ok := referralRates[category]; ok {
		return rate
	}
	return defaultReferralRate
}

// Categories lists the known referral fee categories.
func Categories() []string {
	out := make([]string, 0, len(referralRates))
	for c := range referralRates {
		out = append(out, c)
	}
	return out
}
