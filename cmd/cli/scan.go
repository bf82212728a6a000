package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealscope/roi-service/internal/catalog"
	"github.com/dealscope/roi-service/internal/export"
	"github.com/dealscope/roi-service/internal/keepa"
	"github.com/dealscope/roi-service/internal/matching"
	"github.com/dealscope/roi-service/internal/roi"
)

var (
	scanLimit int
	scanOut   string
	scanBrand string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <catalog-file>",
	Short: "Match a wholesale catalog file against Amazon",
	Long: `Parse a wholesale catalog file (CSV or XLSX), match every product
against Amazon via Keepa and write the results to a CSV or XLSX file.
Matching is strictly sequential and rate limited, so large catalogs
take a while; interrupt with Ctrl-C to stop after the current product.`,
	Example: `  roi-service scan ./catalog.csv --out results.csv
  roi-service scan ./catalog.xlsx --brand "L'Oreal" --limit 200 --out results.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "Maximum number of products to match (0 = all)")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "Output file, .csv or .xlsx (required)")
	scanCmd.Flags().StringVar(&scanBrand, "brand", "", "Only match products of this brand")
	scanCmd.MarkFlagRequired("out")
}

func runScan(cmd *cobra.Command, args []string) error {
	products, err := parseCatalogFile(args[0])
	if err != nil {
		return err
	}
	if scanBrand != "" {
		products = filterBrand(products, scanBrand)
	}
	if scanLimit > 0 && len(products) > scanLimit {
		products = products[:scanLimit]
	}
	if len(products) == 0 {
		return fmt.Errorf("no products to match after filtering")
	}

	logger.Info().Int("products", len(products)).Msg("Catalog parsed")

	client := keepa.NewClient(cfg.Keepa, *logger)
	source := keepa.NewMatchSource(client)
	calc := roi.NewCalculator(cfg.Analysis.ROI)
	matcher := matching.NewMatcher(source, source, calc, matching.Config{
		MinRequestInterval: time.Duration(cfg.Analysis.MatchIntervalMs) * time.Millisecond,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := matcher.MatchAll(ctx, products, func(done, total int, result matching.MatchedProduct) {
		logger.Info().
			Int("done", done).
			Int("total", total).
			Str("gtin", result.Product.GTIN).
			Str("status", string(result.Status)).
			Msg("Matched product")
	})
	if err != nil && len(results) == 0 {
		return err
	}
	if err != nil {
		logger.Warn().Err(err).Int("partial", len(results)).Msg("Scan interrupted, exporting partial results")
	}

	if err := writeResults(scanOut, results); err != nil {
		return err
	}
	logger.Info().Str("file", scanOut).Msg("Results written")

	printScanSummary(results)
	return nil
}

func parseCatalogFile(path string) ([]catalog.WholesaleProduct, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return catalog.ParseXLSX(file, 0)
	case ".csv":
		return catalog.ParseCSV(file, 0)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q, want .csv or .xlsx", filepath.Ext(path))
	}
}

func filterBrand(products []catalog.WholesaleProduct, brand string) []catalog.WholesaleProduct {
	var filtered []catalog.WholesaleProduct
	for _, p := range products {
		if strings.EqualFold(p.Brand, brand) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func writeResults(path string, results []matching.MatchedProduct) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.WriteXLSX(file, results)
	default:
		return export.WriteCSV(file, results)
	}
}

func printScanSummary(results []matching.MatchedProduct) {
	counts := make(map[matching.Status]int)
	profitable := 0
	for _, result := range results {
		counts[result.Status]++
		if result.ROI != nil && result.ROI.IsProfitable {
			profitable++
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Products:\t%d\n", len(results))
	fmt.Fprintf(w, "Matched:\t%d\n", counts[matching.StatusMatched]+counts[matching.StatusMatchedByName])
	fmt.Fprintf(w, "  by GTIN:\t%d\n", counts[matching.StatusMatched])
	fmt.Fprintf(w, "  by name:\t%d\n", counts[matching.StatusMatchedByName])
	fmt.Fprintf(w, "No price:\t%d\n", counts[matching.StatusNoPrice])
	fmt.Fprintf(w, "Not found:\t%d\n", counts[matching.StatusNotFound])
	fmt.Fprintf(w, "Invalid GTIN:\t%d\n", counts[matching.StatusGTINInvalid])
	fmt.Fprintf(w, "Errors:\t%d\n", counts[matching.StatusError])
	fmt.Fprintf(w, "Profitable:\t%d\n", profitable)
	w.Flush()
}
