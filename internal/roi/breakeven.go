package roi

import "math"

// BreakEvenResult is the outcome of the break-even price search.
type BreakEvenResult struct {
	BreakEvenPrice   float64 `json:"breakEvenPrice"`
	TargetROIPercent float64 `json:"targetRoiPercent"`
	AchievedROI      float64 `json:"achievedRoiPercent"`
	Iterations       int     `json:"iterations"`
	Converged        bool    `json:"converged"`
	Detail           Result  `json:"detail"`
}

const (
	breakEvenMaxIterations = 20
	breakEvenTolerance     = 0.1
	breakEvenStartMarkup   = 2.5
	breakEvenStepUp        = 1.05
	breakEvenStepDown      = 0.98
)

// BreakEven searches for the minimum selling price that reaches the target
// ROI. The search is a heuristic walk: start at cost times 2.5, raise the
// estimate 5% while ROI is short of the target and lower it 2% while above,
// stopping within 0.1 ROI points or after 20 iterations. The asymmetric steps
// can oscillate around steep fee boundaries, so Converged must be checked.
func (c *Calculator) BreakEven(input Input, targetROIPercent float64) BreakEvenResult {
	estimate := input.CostPrice * breakEvenStartMarkup

	var (
		detail     Result
		iterations int
	)
	for iterations = 1; iterations <= breakEvenMaxIterations; iterations++ {
		trial := input
		trial.SellingPrice = estimate
		detail = c.Compute(trial)

		if math.Abs(detail.ROIPercent-targetROIPercent) < breakEvenTolerance {
			break
		}
		if detail.ROIPercent < targetROIPercent {
			estimate *= breakEvenStepUp
		} else {
			estimate *= breakEvenStepDown
		}
	}
	if iterations > breakEvenMaxIterations {
		iterations = breakEvenMaxIterations
	}

	return BreakEvenResult{
		BreakEvenPrice:   estimate,
		TargetROIPercent: targetROIPercent,
		AchievedROI:      detail.ROIPercent,
		Iterations:       iterations,
		Converged:        math.Abs(detail.ROIPercent-targetROIPercent) < breakEvenTolerance,
		Detail:           detail,
	}
}
