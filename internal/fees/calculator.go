// Package fees computes Amazon marketplace fees (referral, FBA fulfillment,
// storage, configured extras and VAT on fees) for a single listing.
package fees

// ExtraFeeType selects how a configured extra fee is applied.
type ExtraFeeType string

const (
	ExtraFeeFixed      ExtraFeeType = "fixed"
	ExtraFeePercentage ExtraFeeType = "percentage"
)

// ExtraFee is one independently configured fee (prep, inbound shipping,
// digital services tax, miscellaneous).
type ExtraFee struct {
	Enabled bool         `json:"enabled" mapstructure:"enabled"`
	Type    ExtraFeeType `json:"type" mapstructure:"type"`
	Value   float64      `json:"value" mapstructure:"value"`
}

// Apply computes the fee amount against a base price.
func (f ExtraFee) Apply(basePrice float64) float64 {
	if !f.Enabled {
		return 0
	}
	if f.Type == ExtraFeePercentage {
		return basePrice * (f.Value / 100)
	}
	return f.Value
}

// VATSettings controls how VAT affects fee and cost calculations.
type VATSettings struct {
	Rate                   float64 `json:"rate" mapstructure:"rate"`
	ApplyOnCost            bool    `json:"applyOnCost" mapstructure:"apply_on_cost"`
	ApplyOnSale            bool    `json:"applyOnSale" mapstructure:"apply_on_sale"`
	AmazonPricesIncludeVAT bool    `json:"amazonPricesIncludeVat" mapstructure:"amazon_prices_include_vat"`
}

// Settings holds everything the calculator needs beyond per-product input.
// Constructed from application config and passed in explicitly; the
// calculator keeps no global state.
type Settings struct {
	VAT             VATSettings `json:"vat" mapstructure:"vat"`
	PrepFee         ExtraFee    `json:"prepFee" mapstructure:"prep_fee"`
	InboundShipping ExtraFee    `json:"inboundShipping" mapstructure:"inbound_shipping"`
	DigitalServices ExtraFee    `json:"digitalServices" mapstructure:"digital_services"`
	MiscFee         ExtraFee    `json:"miscFee" mapstructure:"misc_fee"`
	VATOnFees       bool        `json:"vatOnFees" mapstructure:"vat_on_fees"`
	StorageMonths   int         `json:"storageMonths" mapstructure:"storage_months"`
}

// DefaultSettings returns settings matching the amazon.fr defaults: 20% VAT
// included in displayed prices, three months storage, no extra fees.
func DefaultSettings() Settings {
	return Settings{
		VAT: VATSettings{
			Rate:                   20.0,
			ApplyOnCost:            true,
			AmazonPricesIncludeVAT: true,
		},
		PrepFee:         ExtraFee{Type: ExtraFeePercentage},
		InboundShipping: ExtraFee{Type: ExtraFeeFixed},
		DigitalServices: ExtraFee{Type: ExtraFeePercentage},
		MiscFee:         ExtraFee{Type: ExtraFeeFixed},
		StorageMonths:   3,
	}
}

// Dimensions is a package size in millimeters.
type Dimensions struct {
	LengthMM float64 `json:"lengthMm"`
	WidthMM  float64 `json:"widthMm"`
	HeightMM float64 `json:"heightMm"`
}

// Known reports whether all three dimensions are present.
func (d *Dimensions) Known() bool {
	return d != nil && d.LengthMM > 0 && d.WidthMM > 0 && d.HeightMM > 0
}

// VolumeM3 converts millimeter dimensions to cubic meters.
func (d *Dimensions) VolumeM3() float64 {
	if !d.Known() {
		return 0
	}
	return (d.LengthMM / 1000) * (d.WidthMM / 1000) * (d.HeightMM / 1000)
}

// SizeCategory is the Amazon size classification of a package.
type SizeCategory string

const (
	SizeStandard SizeCategory = "standard_size"
	SizeOversize SizeCategory = "oversize"
	SizeUnknown  SizeCategory = "unknown"
)

// Input are the per-product parameters for one fee calculation.
type Input struct {
	SellingPrice float64     `json:"sellingPrice"`
	WeightKG     float64     `json:"weightKg"`
	Category     string      `json:"category"`
	Dimensions   *Dimensions `json:"dimensions,omitempty"`
	PeakSeason   bool        `json:"peakSeason,omitempty"`
}

// StorageResult carries the storage fee with its derivation, or an explicit
// not-possible flag when dimensions are missing (never a guessed fee).
type StorageResult struct {
	Fee                 float64      `json:"fee"`
	VolumeM3            float64      `json:"volumeM3,omitempty"`
	SizeCategory        SizeCategory `json:"sizeCategory,omitempty"`
	Months              int          `json:"months,omitempty"`
	RatePerM3           float64      `json:"ratePerM3,omitempty"`
	CalculationPossible bool         `json:"calculationPossible"`
	Warning             string       `json:"warning,omitempty"`
}

// Breakdown is the full fee decomposition for one listing. TotalFees always
// equals the sum of the component fields.
type Breakdown struct {
	ReferralFee     float64 `json:"referralFee"`
	FBAFee          float64 `json:"fbaFee"`
	ClosingFee      float64 `json:"closingFee"`
	StorageFee      float64 `json:"storageFee"`
	PrepFee         float64 `json:"prepFee"`
	InboundShipping float64 `json:"inboundShipping"`
	DigitalServices float64 `json:"digitalServices"`
	MiscFee         float64 `json:"miscFee"`

	VATOnFees        float64       `json:"vatOnFees"`
	TotalFeesBefore  float64       `json:"totalFeesBeforeVat"`
	TotalFees        float64       `json:"totalFees"`
	NetProceeds      float64       `json:"netProceeds"`
	BasePriceUsed    float64       `json:"basePriceUsed"`
	OriginalPrice    float64       `json:"originalSellingPrice"`
	ReferralRateUsed float64       `json:"referralRateUsed"`
	FulfillmentTier  string        `json:"fulfillmentTier"`
	Storage          StorageResult `json:"storage"`
	WeightKG         float64       `json:"weightKg"`
	Category         string        `json:"category"`
	DimensionsKnown  bool          `json:"dimensionsKnown"`
}

// Calculator computes fee breakdowns against a fixed Settings snapshot.
type Calculator struct {
	settings Settings
}

// NewCalculator creates a calculator for the given settings.
func NewCalculator(settings Settings) *Calculator {
	if settings.StorageMonths <= 0 {
		settings.StorageMonths = DefaultSettings().StorageMonths
	}
	return &Calculator{settings: settings}
}

// Settings returns the calculator's settings snapshot.
func (c *Calculator) Settings() Settings {
	return c.settings
}

// BasePrice resolves the price that drives fee calculations. When Amazon
// displayed prices include VAT and the sale-side VAT flag is on, fees are
// computed against the VAT-exclusive price.
func (c *Calculator) BasePrice(sellingPrice float64) float64 {
	vat := c.settings.VAT
	if vat.ApplyOnSale && vat.AmazonPricesIncludeVAT {
		return sellingPrice / (1 + vat.Rate/100)
	}
	return sellingPrice
}

// GrossUpCost applies VAT to a cost price when the cost-side flag is set.
func (c *Calculator) GrossUpCost(costPrice float64) float64 {
	if c.settings.VAT.ApplyOnCost {
		return costPrice * (1 + c.settings.VAT.Rate/100)
	}
	return costPrice
}

// Compute produces the comprehensive fee breakdown for one listing.
func (c *Calculator) Compute(input Input) Breakdown {
	basePrice := c.BasePrice(input.SellingPrice)

	storage := c.storageFee(input)
	tier := fulfillmentTier(input.WeightKG, input.Dimensions)

	b := Breakdown{
		ReferralFee:      basePrice * (ReferralRate(input.Category) / 100),
		FBAFee:           fbaFee(tier, input.WeightKG),
		ClosingFee:       0, // media closing fees out of scope
		StorageFee:       storage.Fee,
		PrepFee:          c.settings.PrepFee.Apply(basePrice),
		InboundShipping:  c.settings.InboundShipping.Apply(basePrice),
		DigitalServices:  c.settings.DigitalServices.Apply(basePrice),
		MiscFee:          c.settings.MiscFee.Apply(basePrice),
		BasePriceUsed:    basePrice,
		OriginalPrice:    input.SellingPrice,
		ReferralRateUsed: ReferralRate(input.Category),
		FulfillmentTier:  tier,
		Storage:          storage,
		WeightKG:         input.WeightKG,
		Category:         input.Category,
		DimensionsKnown:  input.Dimensions.Known(),
	}

	b.TotalFeesBefore = b.ReferralFee + b.FBAFee + b.ClosingFee + b.StorageFee +
		b.PrepFee + b.InboundShipping + b.DigitalServices + b.MiscFee

	if c.settings.VATOnFees {
		b.VATOnFees = b.TotalFeesBefore * (c.settings.VAT.Rate / 100)
	}
	b.TotalFees = b.TotalFeesBefore + b.VATOnFees
	b.NetProceeds = basePrice - b.TotalFees

	return b
}

// ClassifySize applies the standard-size limits to a package.
func ClassifySize(dims *Dimensions, weightG float64) SizeCategory {
	if !dims.Known() {
		return SizeUnknown
	}
	maxDim := dims.LengthMM
	if dims.WidthMM > maxDim {
		maxDim = dims.WidthMM
	}
	if dims.HeightMM > maxDim {
		maxDim = dims.HeightMM
	}

	if maxDim <= maxStandardDimensionMM &&
		weightG <= maxStandardWeightG &&
		dims.LengthMM <= maxStandardLengthMM &&
		dims.WidthMM <= maxStandardWidthMM &&
		dims.HeightMM <= maxStandardHeightMM {
		return SizeStandard
	}
	return SizeOversize
}

// fulfillmentTier selects the FBA weight band. With dimensions the size
// class decides between the standard and oversize ladders; without them a
// simpler weight-only ladder applies.
func fulfillmentTier(weightKG float64, dims *Dimensions) string {
	if dims.Known() {
		if ClassifySize(dims, weightKG*1000) == SizeStandard {
			if weightKG <= 1.0 {
				return tierSmallStandard
			}
			return tierLargeStandard
		}
		switch {
		case weightKG <= 2.0:
			return tierSmallOversize
		case weightKG <= 30.0:
			return tierMediumOversize
		case weightKG <= 70.0:
			return tierLargeOversize
		default:
			return tierSpecialOversize
		}
	}

	switch {
	case weightKG <= 1.0:
		return tierSmallStandard
	case weightKG <= 10.0:
		return tierLargeStandard
	default:
		return tierSmallOversize
	}
}

func fbaFee(tier string, weightKG float64) float64 {
	t := fbaTiers[tier]
	if weightKG > 1.0 {
		return t.Base + (weightKG-1.0)*t.PerKgOver1
	}
	return t.Base
}

// storageFee computes volume x rate x months, or flags the calculation as
// impossible when dimensions are missing.
func (c *Calculator) storageFee(input Input) StorageResult {
	if !input.Dimensions.Known() {
		return StorageResult{
			CalculationPossible: false,
			Warning:             "product dimensions not available, storage fee not calculated",
		}
	}

	volume := input.Dimensions.VolumeM3()
	size := ClassifySize(input.Dimensions, input.WeightKG*1000)

	rate := storageRateOversize
	if size == SizeStandard {
		if input.PeakSeason {
			rate = storageRateStandardPeak
		} else {
			rate = storageRateStandard
		}
	}

	months := c.settings.StorageMonths
	return StorageResult{
		Fee:                 volume * rate * float64(months),
		VolumeM3:            volume,
		SizeCategory:        size,
		Months:              months,
		RatePerM3:           rate,
		CalculationPossible: true,
	}
}
