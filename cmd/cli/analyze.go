package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dealscope/roi-service/internal/fees"
	"github.com/dealscope/roi-service/internal/roi"
)

var (
	analyzeCost       float64
	analyzePrice      float64
	analyzeWeight     float64
	analyzeCategory   string
	analyzeExtraCosts float64
	analyzePeak       bool
	analyzeTargetROI  float64
	analyzeOutput     string
)

// feesCmd represents the fees command
var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Compute the Amazon fee breakdown for a listing",
	Example: `  roi-service fees --price 12.89 --weight 0.11 --category beauty
  roi-service fees --price 24.99 --weight 1.2 --output json`,
	RunE: runFees,
}

// roiCmd represents the roi command
var roiCmd = &cobra.Command{
	Use:   "roi",
	Short: "Compute the full ROI breakdown for a listing",
	Example: `  roi-service roi --cost 4.20 --price 12.89 --weight 0.11 --category beauty
  roi-service roi --cost 10 --price 30 --extra-costs 1.50 --output json`,
	RunE: runROI,
}

// breakevenCmd represents the breakeven command
var breakevenCmd = &cobra.Command{
	Use:   "breakeven",
	Short: "Search the selling price that reaches the target ROI",
	Example: `  roi-service breakeven --cost 5.00 --weight 0.3 --category beauty
  roi-service breakeven --cost 8.00 --target-roi 25`,
	RunE: runBreakEven,
}

func init() {
	rootCmd.AddCommand(feesCmd, roiCmd, breakevenCmd)

	for _, cmd := range []*cobra.Command{feesCmd, roiCmd, breakevenCmd} {
		cmd.Flags().Float64Var(&analyzeWeight, "weight", 0, "Package weight in kg")
		cmd.Flags().StringVar(&analyzeCategory, "category", "", "Amazon category for the referral rate")
		cmd.Flags().StringVar(&analyzeOutput, "output", "table", "Output format: table or json")
	}

	feesCmd.Flags().Float64Var(&analyzePrice, "price", 0, "Selling price in EUR (required)")
	feesCmd.Flags().BoolVar(&analyzePeak, "peak", false, "Use peak-season storage rates")
	feesCmd.MarkFlagRequired("price")

	roiCmd.Flags().Float64Var(&analyzeCost, "cost", 0, "Wholesale cost price in EUR (required)")
	roiCmd.Flags().Float64Var(&analyzePrice, "price", 0, "Selling price in EUR (required)")
	roiCmd.Flags().Float64Var(&analyzeExtraCosts, "extra-costs", 0, "Additional per-unit costs in EUR")
	roiCmd.Flags().BoolVar(&analyzePeak, "peak", false, "Use peak-season storage rates")
	roiCmd.MarkFlagRequired("cost")
	roiCmd.MarkFlagRequired("price")

	breakevenCmd.Flags().Float64Var(&analyzeCost, "cost", 0, "Wholesale cost price in EUR (required)")
	breakevenCmd.Flags().Float64Var(&analyzeExtraCosts, "extra-costs", 0, "Additional per-unit costs in EUR")
	breakevenCmd.Flags().Float64Var(&analyzeTargetROI, "target-roi", 0, "Target ROI percent (default from config)")
	breakevenCmd.MarkFlagRequired("cost")
}

func calculator() *roi.Calculator {
	settings := roi.DefaultSettings()
	if cfg != nil {
		settings = cfg.Analysis.ROI
	}
	return roi.NewCalculator(settings)
}

func targetROIPercent() float64 {
	if analyzeTargetROI > 0 {
		return analyzeTargetROI
	}
	if cfg != nil {
		return cfg.Analysis.TargetROIPercent
	}
	return 15
}

func printJSON(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func runFees(cmd *cobra.Command, args []string) error {
	calc := fees.NewCalculator(calculator().Settings().Fees)
	breakdown := calc.Compute(fees.Input{
		SellingPrice: analyzePrice,
		WeightKG:     analyzeWeight,
		Category:     analyzeCategory,
		PeakSeason:   analyzePeak,
	})

	if analyzeOutput == "json" {
		return printJSON(breakdown)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Selling price:\t%.2f EUR\n", breakdown.OriginalPrice)
	fmt.Fprintf(w, "Fee base price:\t%.2f EUR\n", breakdown.BasePriceUsed)
	fmt.Fprintf(w, "Referral fee (%.1f%%):\t%.2f EUR\n", breakdown.ReferralRateUsed, breakdown.ReferralFee)
	fmt.Fprintf(w, "FBA fee (%s):\t%.2f EUR\n", breakdown.FulfillmentTier, breakdown.FBAFee)
	if breakdown.Storage.CalculationPossible {
		fmt.Fprintf(w, "Storage fee (%d mo):\t%.2f EUR\n", breakdown.Storage.Months, breakdown.StorageFee)
	} else {
		fmt.Fprintf(w, "Storage fee:\tn/a (%s)\n", breakdown.Storage.Warning)
	}
	if breakdown.VATOnFees > 0 {
		fmt.Fprintf(w, "VAT on fees:\t%.2f EUR\n", breakdown.VATOnFees)
	}
	fmt.Fprintf(w, "Total fees:\t%.2f EUR\n", breakdown.TotalFees)
	fmt.Fprintf(w, "Net proceeds:\t%.2f EUR\n", breakdown.NetProceeds)
	return w.Flush()
}

func runROI(cmd *cobra.Command, args []string) error {
	result := calculator().Compute(roi.Input{
		CostPrice:       analyzeCost,
		SellingPrice:    analyzePrice,
		WeightKG:        analyzeWeight,
		Category:        analyzeCategory,
		AdditionalCosts: analyzeExtraCosts,
		PeakSeason:      analyzePeak,
	})

	if analyzeOutput == "json" {
		return printJSON(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Cost price:\t%.2f EUR\n", result.OriginalCostPrice)
	fmt.Fprintf(w, "Cost with VAT:\t%.2f EUR\n", result.CostWithVAT)
	fmt.Fprintf(w, "Total costs:\t%.2f EUR\n", result.TotalCosts)
	fmt.Fprintf(w, "Selling price:\t%.2f EUR\n", result.OriginalSellingPrice)
	fmt.Fprintf(w, "Total fees:\t%.2f EUR\n", result.Fees.TotalFees)
	fmt.Fprintf(w, "Net proceeds:\t%.2f EUR\n", result.NetProceeds)
	fmt.Fprintf(w, "Profit:\t%.2f EUR\n", result.Profit)
	fmt.Fprintf(w, "ROI:\t%.1f%%\n", result.ROIPercent)
	fmt.Fprintf(w, "Margin:\t%.1f%%\n", result.ProfitMargin)
	fmt.Fprintf(w, "Business ROI:\t%.1f%%\n", result.BusinessROIPercent)
	fmt.Fprintf(w, "Score:\t%.0f/100 (grade %s)\n", result.ProfitabilityScore, result.Grade)
	fmt.Fprintf(w, "Profitable:\t%t\n", result.IsProfitable)
	for _, note := range result.Notes {
		fmt.Fprintf(w, "Note:\t%s\n", note)
	}
	return w.Flush()
}

func runBreakEven(cmd *cobra.Command, args []string) error {
	target := targetROIPercent()
	result := calculator().BreakEven(roi.Input{
		CostPrice:       analyzeCost,
		WeightKG:        analyzeWeight,
		Category:        analyzeCategory,
		AdditionalCosts: analyzeExtraCosts,
	}, target)

	if analyzeOutput == "json" {
		return printJSON(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Cost price:\t%.2f EUR\n", analyzeCost)
	fmt.Fprintf(w, "Target ROI:\t%.1f%%\n", result.TargetROIPercent)
	fmt.Fprintf(w, "Break-even price:\t%.2f EUR\n", result.BreakEvenPrice)
	fmt.Fprintf(w, "Achieved ROI:\t%.1f%%\n", result.AchievedROI)
	fmt.Fprintf(w, "Iterations:\t%d\n", result.Iterations)
	fmt.Fprintf(w, "Converged:\t%t\n", result.Converged)
	return w.Flush()
}
