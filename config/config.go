package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dealscope/roi-service/internal/keepa"
	"github.com/dealscope/roi-service/internal/qogita"
	"github.com/dealscope/roi-service/internal/roi"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Keepa    keepa.Config   `mapstructure:"keepa"`
	Qogita   qogita.Config  `mapstructure:"qogita"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// AnalysisConfig holds the ROI and matching settings plus scan limits.
type AnalysisConfig struct {
	ROI                roi.Settings `mapstructure:"roi"`
	TargetROIPercent   float64      `mapstructure:"target_roi_percent"`
	MaxCostPrice       float64      `mapstructure:"max_cost_price"`
	MatchIntervalMs    int          `mapstructure:"match_interval_ms"`
	MaxCatalogProducts int          `mapstructure:"max_catalog_products"`
	MaxConcurrentScans int          `mapstructure:"max_concurrent_scans"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Load .env file
	if err := loadEnvFile(); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("ROI_SERVICE")

	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Validate range-checks the settings that would silently corrupt
// calculations if out of range. Misconfiguration fails at startup, not
// mid-scan.
func (c *Config) Validate() error {
	vat := c.Analysis.ROI.Fees.VAT.Rate
	if vat < 0 || vat > 100 {
		return fmt.Errorf("config: vat rate %.2f out of range [0,100]", vat)
	}
	if target := c.Analysis.TargetROIPercent; target < 0 || target > 1000 {
		return fmt.Errorf("config: target roi %.2f out of range [0,1000]", target)
	}
	if maxCost := c.Analysis.MaxCostPrice; maxCost < 1 || maxCost > 10000 {
		return fmt.Errorf("config: max cost price %.2f out of range [1,10000]", maxCost)
	}
	if threshold := c.Analysis.ROI.Thresholds.MinROIPercent; threshold < 0 || threshold > 1000 {
		return fmt.Errorf("config: min roi threshold %.2f out of range [0,1000]", threshold)
	}
	if margin := c.Analysis.ROI.Thresholds.MinMarginPercent; margin < 0 || margin > 100 {
		return fmt.Errorf("config: min margin threshold %.2f out of range [0,100]", margin)
	}
	return nil
}

// loadEnvFile loads .env file by parsing KEY=VALUE lines and setting them as environment variables
func loadEnvFile() error {
	envPaths := []string{".", "./config"}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")

	// API credentials
	v.BindEnv("keepa.api_key", "KEEPA_API_KEY")
	v.BindEnv("qogita.email", "QOGITA_EMAIL")
	v.BindEnv("qogita.password", "QOGITA_PASSWORD")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Marketplace defaults
	v.SetDefault("keepa.domain", keepa.DomainFR)

	// Analysis defaults: amazon.fr VAT handling and the stock thresholds.
	roiDefaults := roi.DefaultSettings()
	v.SetDefault("analysis.roi.fees.vat.rate", roiDefaults.Fees.VAT.Rate)
	v.SetDefault("analysis.roi.fees.vat.apply_on_cost", roiDefaults.Fees.VAT.ApplyOnCost)
	v.SetDefault("analysis.roi.fees.vat.amazon_prices_include_vat", roiDefaults.Fees.VAT.AmazonPricesIncludeVAT)
	v.SetDefault("analysis.roi.fees.storage_months", roiDefaults.Fees.StorageMonths)
	v.SetDefault("analysis.roi.thresholds.min_roi_percent", roiDefaults.Thresholds.MinROIPercent)
	v.SetDefault("analysis.roi.thresholds.min_margin_percent", roiDefaults.Thresholds.MinMarginPercent)
	v.SetDefault("analysis.target_roi_percent", 15.0)
	v.SetDefault("analysis.max_cost_price", 100.0)
	v.SetDefault("analysis.match_interval_ms", 1200)
	v.SetDefault("analysis.max_catalog_products", 2000)
	v.SetDefault("analysis.max_concurrent_scans", 2)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
