package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dealscope/roi-service/internal/gtin"
	"github.com/dealscope/roi-service/internal/identifiers"
)

var classifyOutput string

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <code>",
	Short: "Classify a product identifier",
	Long: `Classify a product code as EAN-13, UPC-A, EAN-8, GTIN-14 or ASIN,
validate its GS1 check digit and show the search variants used for
Amazon lookups with their confidence.`,
	Example: `  roi-service classify 3600523951369
  roi-service classify B0BQBXBW88
  roi-service classify 123456789012 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&classifyOutput, "output", "table", "Output format: table or json")
}

func runClassify(cmd *cobra.Command, args []string) error {
	code := args[0]
	id := identifiers.Classify(code)
	result := gtin.Process(code)

	if classifyOutput == "json" {
		payload, err := json.MarshalIndent(map[string]any{
			"identifier": id,
			"gtin":       result,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Original:\t%s\n", id.Original)
	fmt.Fprintf(w, "Kind:\t%s\n", id.Kind)
	fmt.Fprintf(w, "Normalized:\t%s\n", id.Normalized)
	fmt.Fprintf(w, "Formatted:\t%s\n", id.Formatted)
	fmt.Fprintf(w, "Valid:\t%t\n", id.Valid)
	if result.Format != "" {
		fmt.Fprintf(w, "GTIN format:\t%s\n", result.Format)
		fmt.Fprintf(w, "Check digit:\t%t\n", result.CheckDigitOK)
		fmt.Fprintf(w, "Confidence:\t%d%%\n", result.Confidence)
		fmt.Fprintf(w, "Search variants:\t%s\n", strings.Join(result.SearchVariants, ", "))
	}
	return w.Flush()
}
