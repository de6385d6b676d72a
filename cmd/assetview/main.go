package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"assetview/internal/cli"
	apphttp "assetview/internal/http"
	applog "assetview/internal/log"
	"assetview/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Balances go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	coll, err := cli.NewCollector(res.Backend, cfg)
	if err != nil {
		logger.Error("Invalid collector configuration", "error", err)
		os.Exit(1)
	}

	amqpClient := cli.ConnectAMQP(logger.WithComponent(applog.ComponentAMQP), cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	exporter, err := cli.OpenSheetExporter(ctx, logger.WithComponent(applog.ComponentSheets), cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}

	svc := cli.NewPortfolioService(coll, amqpClient, exporter)
	refreshWorker := worker.NewRefreshWorker(svc, cfg.RefreshInterval)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Source:         res.Backend,
		Importer:       res.Importer,
		Overview:       svc,
		SeedFile:       cfg.SeedFile,
		Logger:         logger,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting assetview server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", amqpClient != nil,
			"sheets_enabled", exporter != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := refreshWorker.Stop(shutdownCtx); err != nil {
			logger.Warn("Refresh worker stop error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := refreshWorker.Start(gctx); err != nil {
		logger.Error("Failed to start refresh worker", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeRefresh(gctx, refreshWorker.HandleRefresh)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
