// Package cli provides common initialization shared by cmd/assetview and
// cmd/assetctl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"assetview/internal/amqp"
	"assetview/internal/backend"
	"assetview/internal/collector"
	"assetview/internal/config"
	"assetview/internal/inventory"
	applog "assetview/internal/log"
	"assetview/internal/services"
	"assetview/internal/sheets"
	gsheet "assetview/internal/sheets/google"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// sets it as the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	lc := applog.DefaultConfig()
	if cfg != nil {
		if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
			lc.Level = level
		}
		lc.Format = cfg.LogFormat
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() (*config.Config, *applog.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend creates the configured inventory backend.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bc)
}

// NewCollector builds a collector over src with the configured paging.
func NewCollector(src inventory.PageReader, cfg *config.Config) (*collector.Collector, error) {
	return collector.New(src, collector.Config{
		PageSize: cfg.PageSize,
		MaxPages: cfg.MaxPages,
	})
}

// ConnectAMQP connects to the broker when AMQP_URL is set. A connection
// failure is logged and yields nil so the caller can run without messaging.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(amqp.Config{
		URL:         cfg.AMQPURL,
		Exchange:    cfg.AMQPExchange,
		Queue:       cfg.AMQPQueue,
		SnapshotKey: cfg.AMQPSnapshotKey,
	})
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// OpenSheetExporter returns the Google Sheets exporter when a spreadsheet is
// configured, nil otherwise.
func OpenSheetExporter(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.OverviewWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil, nil
	}
	gc := gsheet.ConfigFromEnv()
	gc.SpreadsheetID = cfg.GoogleSpreadsheetID
	gc.SheetName = cfg.GoogleSheetName
	client, err := gsheet.New(ctx, gc)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// NewPortfolioService wires the pipeline. A nil amqp client means no
// snapshots are published.
func NewPortfolioService(c *collector.Collector, client *amqp.Client, exporter sheets.OverviewWriter) *services.PortfolioService {
	var publisher services.SnapshotPublisher
	if client != nil {
		publisher = client
	}
	return services.NewPortfolioService(c, publisher, exporter)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
