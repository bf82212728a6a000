// Package roi turns a fee breakdown plus cost and selling prices into profit,
// return-on-investment and profitability metrics for a single listing.
package roi

import (
	"fmt"
	"strings"

	"github.com/dealscope/roi-service/internal/fees"
)

// Thresholds are the profitability cut-offs a result is judged against.
type Thresholds struct {
	MinROIPercent    float64 `json:"minRoiPercent" mapstructure:"min_roi_percent"`
	MinMarginPercent float64 `json:"minMarginPercent" mapstructure:"min_margin_percent"`
}

// BusinessCosts are per-unit business-model costs applied on top of the
// purchase cost: a percentage of the cost price plus fixed shipping and prep
// amounts per unit.
type BusinessCosts struct {
	PercentageOfCost float64 `json:"percentageOfCost" mapstructure:"percentage_of_cost"`
	ShippingPerUnit  float64 `json:"shippingPerUnit" mapstructure:"shipping_per_unit"`
	PrepPerUnit      float64 `json:"prepPerUnit" mapstructure:"prep_per_unit"`
}

// Settings holds everything the ROI calculator needs beyond per-product input.
type Settings struct {
	Fees       fees.Settings `json:"fees" mapstructure:"fees"`
	Thresholds Thresholds    `json:"thresholds" mapstructure:"thresholds"`
	Business   BusinessCosts `json:"business" mapstructure:"business"`
}

// DefaultSettings returns default fee settings with a 15% minimum ROI and a
// 10% minimum margin.
func DefaultSettings() Settings {
	return Settings{
		Fees: fees.DefaultSettings(),
		Thresholds: Thresholds{
			MinROIPercent:    15.0,
			MinMarginPercent: 10.0,
		},
	}
}

// Input are the per-product parameters for one ROI calculation.
type Input struct {
	CostPrice       float64          `json:"costPrice"`
	SellingPrice    float64          `json:"sellingPrice"`
	WeightKG        float64          `json:"weightKg"`
	Category        string           `json:"category"`
	Dimensions      *fees.Dimensions `json:"dimensions,omitempty"`
	AdditionalCosts float64          `json:"additionalCosts,omitempty"`
	PeakSeason      bool             `json:"peakSeason,omitempty"`
}

// BusinessCostBreakdown decomposes the applied business-model costs.
type BusinessCostBreakdown struct {
	PercentageCost float64 `json:"percentageCost"`
	ShippingCost   float64 `json:"shippingCost"`
	PrepCost       float64 `json:"prepCost"`
	Total          float64 `json:"total"`
}

// Result is the full profitability picture for one listing. Profit always
// equals NetProceeds minus TotalCosts.
type Result struct {
	OriginalCostPrice    float64 `json:"originalCostPrice"`
	OriginalSellingPrice float64 `json:"originalSellingPrice"`
	CostWithVAT          float64 `json:"costWithVat"`
	AdditionalCosts      float64 `json:"additionalCosts"`
	TotalCosts           float64 `json:"totalCosts"`

	BaseSellingPrice float64        `json:"baseSellingPrice"`
	NetProceeds      float64        `json:"netProceeds"`
	Fees             fees.Breakdown `json:"fees"`

	Profit          float64 `json:"profit"`
	ROIPercent      float64 `json:"roiPercent"`
	ProfitMargin    float64 `json:"profitMargin"`
	NetProfitMargin float64 `json:"netProfitMargin"`

	BusinessCosts      BusinessCostBreakdown `json:"businessCosts"`
	TotalBusinessCosts float64               `json:"totalBusinessCosts"`
	BusinessProfit     float64               `json:"businessProfit"`
	BusinessROIPercent float64               `json:"businessRoiPercent"`

	ProfitabilityScore   float64  `json:"profitabilityScore"`
	IsProfitable         bool     `json:"isProfitable"`
	MeetsMarginThreshold bool     `json:"meetsMarginThreshold"`
	Grade                string   `json:"grade"`
	Notes                []string `json:"notes,omitempty"`
}

// Calculator computes ROI results against a fixed Settings snapshot.
type Calculator struct {
	settings Settings
	fees     *fees.Calculator
}

// NewCalculator creates a calculator for the given settings.
func NewCalculator(settings Settings) *Calculator {
	return &Calculator{
		settings: settings,
		fees:     fees.NewCalculator(settings.Fees),
	}
}

// Settings returns the calculator's settings snapshot.
func (c *Calculator) Settings() Settings {
	return c.settings
}

// Compute produces the comprehensive ROI result for one listing. It never
// fails: zero denominators yield zero percentages and missing dimensions fall
// through to the fee calculator's explicit flags.
func (c *Calculator) Compute(input Input) Result {
	costWithVAT := c.fees.GrossUpCost(input.CostPrice)
	totalCosts := costWithVAT + input.AdditionalCosts

	breakdown := c.fees.Compute(fees.Input{
		SellingPrice: input.SellingPrice,
		WeightKG:     input.WeightKG,
		Category:     input.Category,
		Dimensions:   input.Dimensions,
		PeakSeason:   input.PeakSeason,
	})

	netProceeds := breakdown.NetProceeds
	profit := netProceeds - totalCosts

	result := Result{
		OriginalCostPrice:    input.CostPrice,
		OriginalSellingPrice: input.SellingPrice,
		CostWithVAT:          costWithVAT,
		AdditionalCosts:      input.AdditionalCosts,
		TotalCosts:           totalCosts,
		BaseSellingPrice:     breakdown.BasePriceUsed,
		NetProceeds:          netProceeds,
		Fees:                 breakdown,
		Profit:               profit,
		ROIPercent:           ratio(profit, totalCosts),
		ProfitMargin:         ratio(profit, input.SellingPrice),
		NetProfitMargin:      ratio(profit, netProceeds),
	}

	result.BusinessCosts = c.businessCosts(input.CostPrice)
	result.TotalBusinessCosts = totalCosts + result.BusinessCosts.Total
	result.BusinessProfit = netProceeds - result.TotalBusinessCosts
	result.BusinessROIPercent = ratio(result.BusinessProfit, result.TotalBusinessCosts)

	result.ProfitabilityScore = Score(result.ROIPercent, result.ProfitMargin, result.BusinessROIPercent)
	result.IsProfitable = result.ROIPercent >= c.settings.Thresholds.MinROIPercent
	result.MeetsMarginThreshold = result.ProfitMargin >= c.settings.Thresholds.MinMarginPercent
	result.Grade = Grade(result.ROIPercent)
	result.Notes = c.notes(breakdown)

	return result
}

// ratio is percent a/b, defined as 0 when b is not positive.
func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b * 100
}

func (c *Calculator) businessCosts(costPrice float64) BusinessCostBreakdown {
	b := c.settings.Business
	breakdown := BusinessCostBreakdown{
		PercentageCost: costPrice * (b.PercentageOfCost / 100),
		ShippingCost:   b.ShippingPerUnit,
		PrepCost:       b.PrepPerUnit,
	}
	breakdown.Total = breakdown.PercentageCost + breakdown.ShippingCost + breakdown.PrepCost
	return breakdown
}

// Score blends ROI, margin and business ROI into a 0-100 profitability score.
// Each term is linearly scaled and capped, so the sum never exceeds 100; it is
// floored at 0 for deeply unprofitable listings.
func Score(roiPercent, marginPercent, businessROIPercent float64) float64 {
	roiScore := min(roiPercent/50*40, 40)
	marginScore := min(marginPercent/25*30, 30)
	businessScore := min(businessROIPercent/40*30, 30)
	return max(0, roiScore+marginScore+businessScore)
}

// Grade maps ROI percent to a letter grade via fixed thresholds.
func Grade(roiPercent float64) string {
	switch {
	case roiPercent >= 30:
		return "A+"
	case roiPercent >= 25:
		return "A"
	case roiPercent >= 20:
		return "B"
	case roiPercent >= 15:
		return "C"
	case roiPercent >= 10:
		return "D"
	case roiPercent >= 5:
		return "E"
	default:
		return "F"
	}
}

// notes renders human-readable remarks about how the numbers were derived.
func (c *Calculator) notes(breakdown fees.Breakdown) []string {
	var notes []string

	vat := c.settings.Fees.VAT
	if vat.ApplyOnCost {
		notes = append(notes, "cost price grossed up with VAT")
	}
	if vat.ApplyOnSale && vat.AmazonPricesIncludeVAT {
		notes = append(notes, "fees computed against VAT-exclusive price")
	}

	if breakdown.Storage.CalculationPossible {
		notes = append(notes, fmt.Sprintf("storage calculated: %d months, %s",
			breakdown.Storage.Months, breakdown.Storage.SizeCategory))
	} else if breakdown.Storage.Warning != "" {
		notes = append(notes, "storage fee: "+breakdown.Storage.Warning)
	}

	var extras []string
	for _, extra := range []struct {
		name string
		fee  fees.ExtraFee
	}{
		{"prep", c.settings.Fees.PrepFee},
		{"inbound shipping", c.settings.Fees.InboundShipping},
		{"digital services", c.settings.Fees.DigitalServices},
		{"misc", c.settings.Fees.MiscFee},
	} {
		if extra.fee.Enabled {
			extras = append(extras, extra.name)
		}
	}
	if len(extras) > 0 {
		notes = append(notes, "additional fees enabled: "+strings.Join(extras, ", "))
	}

	if breakdown.VATOnFees > 0 {
		notes = append(notes, fmt.Sprintf("VAT applied to fees: %.2f", breakdown.VATOnFees))
	}

	return notes
}
