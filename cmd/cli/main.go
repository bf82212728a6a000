package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dealscope/roi-service/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roi-service",
	Short: "ROI Service CLI - Amazon reseller profitability tool",
	Long: `A CLI tool for analyzing Amazon FBA reseller profitability. Classifies
product identifiers, computes amazon.fr fee and ROI breakdowns, searches
break-even prices, and scans wholesale catalogs against Amazon listings.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config is optional for offline calculator commands
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	// Only the scan command talks to external APIs
	if cmd.Name() == "scan" {
		if cfg == nil {
			return fmt.Errorf("config required for %s command but not loaded", cmd.Name())
		}
		if cfg.Keepa.APIKey == "" {
			return fmt.Errorf("KEEPA_API_KEY not set")
		}
	}

	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Always prefer console format for CLI
	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stdout
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
