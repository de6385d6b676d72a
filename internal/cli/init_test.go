package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetview/internal/config"
	"assetview/internal/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:    "debug",
		LogFormat:   "json",
		DataBackend: "memory",
		SeedFile:    filepath.Join(t.TempDir(), "none.json"),
		PageSize:    10,
		MaxPages:    5,
	}
}

func TestSetupLoggerUsesConfiguredLevel(t *testing.T) {
	logger := SetupLogger(testConfig(t))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Same(t, logger.Logger, slog.Default())
}

func TestOpenBackendAndPipeline(t *testing.T) {
	cfg := testConfig(t)
	logger := SetupLogger(cfg)
	ctx := context.Background()

	res, err := OpenBackend(ctx, logger, cfg)
	require.NoError(t, err)
	defer res.Close()

	_, err = res.Importer.Import(ctx, []core.Asset{{AssetID: "x", PrimaryAssetCategory: "Cash"}})
	require.NoError(t, err)

	c, err := NewCollector(res.Backend, cfg)
	require.NoError(t, err)

	svc := NewPortfolioService(c, nil, nil)
	ov, err := svc.Overview(ctx, core.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, ov.AssetCount)
}

func TestOptionalIntegrationsDisabled(t *testing.T) {
	cfg := testConfig(t)
	logger := SetupLogger(cfg)

	assert.Nil(t, ConnectAMQP(logger, cfg))

	exp, err := OpenSheetExporter(context.Background(), logger, cfg)
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(SetupLogger(testConfig(t)))
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
