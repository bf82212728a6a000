package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dealscope/roi-service/config"
	"github.com/dealscope/roi-service/internal/database"
	"github.com/dealscope/roi-service/internal/handlers"
	"github.com/dealscope/roi-service/internal/keepa"
	"github.com/dealscope/roi-service/internal/matching"
	"github.com/dealscope/roi-service/internal/middleware"
	"github.com/dealscope/roi-service/internal/qogita"
	"github.com/dealscope/roi-service/internal/roi"
	"github.com/dealscope/roi-service/internal/telemetry"
	"github.com/dealscope/roi-service/internal/workers"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting ROI service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry disabled")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	store := database.NewScanStore(database.Pool())
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create scan schema")
	}
	if count, err := store.MarkInterrupted(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to mark interrupted runs")
	} else if count > 0 {
		logger.Info().Int64("count", count).Msg("Marked interrupted runs as failed")
	}

	if cfg.Keepa.APIKey == "" {
		logger.Fatal().Msg("KEEPA_API_KEY not set")
	}
	keepaClient := keepa.NewClient(cfg.Keepa, *logger)
	qogitaClient := qogita.NewClient(cfg.Qogita, *logger)

	calc := roi.NewCalculator(cfg.Analysis.ROI)
	source := keepa.NewMatchSource(keepaClient)
	matcher := matching.NewMatcher(source, source, calc, matching.Config{
		MinRequestInterval: time.Duration(cfg.Analysis.MatchIntervalMs) * time.Millisecond,
	})

	manager := workers.NewScanManager(store, qogitaClient, matcher, cfg.Analysis.MaxConcurrentScans, *logger)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupRequestLogging(router, logger)

	router.GET("/health", handlers.HealthCheck(handlers.HealthDeps{
		KeepaConfigured:  cfg.Keepa.APIKey != "",
		QogitaConfigured: cfg.Qogita.Email != "",
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.APIKeyAuth(os.Getenv("API_KEY")))
	api.Use(middleware.RateLimit())
	{
		handlers.RegisterAnalyzeRoutes(api, calc, cfg.Analysis.TargetROIPercent)
		handlers.RegisterScanRoutes(api, ctx, manager, store, matcher,
			matching.DefaultConfig().MarketplaceURL)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Scans did not stop cleanly")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "roi-service").Logger()
	return &logger
}

func setupRequestLogging(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
