package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"assetview/internal/backend"
	"assetview/internal/cli"
	"assetview/internal/config"
	"assetview/internal/core"
	applog "assetview/internal/log"
)

// app carries the resolved configuration into every subcommand.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *applog.Logger
}

// flagKeys maps persistent flags onto the environment keys config.Load reads.
var flagKeys = map[string]string{
	"backend":         "DATA_BACKEND",
	"sqlite-db-path":  "SQLITE_DB_PATH",
	"seed-file":       "SEED_FILE",
	"remote-base-url": "REMOTE_BASE_URL",
	"remote-timeout":  "REMOTE_TIMEOUT",
	"page-size":       "PAGE_SIZE",
	"max-pages":       "MAX_PAGES",
	"log-level":       "LOG_LEVEL",
	"log-format":      "LOG_FORMAT",
	"amqp-url":        "AMQP_URL",
	"amqp-exchange":   "AMQP_EXCHANGE",
	"amqp-queue":      "AMQP_QUEUE",
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.AutomaticEnv()
	defaults := config.Load()

	root := &cobra.Command{
		Use:   "assetctl",
		Short: "Inspect and aggregate the asset inventory",
		Long: `assetctl reads every asset from the configured inventory backend,
groups balances by category and subcategory, and prints the totals.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.resolve(cmd)
		},
	}

	f := root.PersistentFlags()
	f.String("backend", defaults.DataBackend, "inventory backend: memory, sqlite or remote")
	f.String("sqlite-db-path", defaults.SQLiteDBPath, "SQLite database file")
	f.String("seed-file", defaults.SeedFile, "JSON asset export used to seed the store")
	f.String("remote-base-url", defaults.RemoteBaseURL, "base URL of a remote assetview API")
	f.Duration("remote-timeout", defaults.RemoteTimeout, "per-request timeout for the remote backend")
	f.Int("page-size", defaults.PageSize, "assets requested per page")
	f.Int("max-pages", defaults.MaxPages, "maximum pages fetched in one collection")
	f.String("log-level", defaults.LogLevel, "debug, info, warn or error")
	f.String("log-format", defaults.LogFormat, "text or json")
	f.String("amqp-url", defaults.AMQPURL, "broker URL used by refresh")
	f.String("amqp-exchange", defaults.AMQPExchange, "exchange refresh requests are published to")
	f.String("amqp-queue", defaults.AMQPQueue, "queue the server worker consumes")
	for name, key := range flagKeys {
		_ = a.v.BindPFlag(key, f.Lookup(name))
	}

	root.AddCommand(
		newOverviewCmd(a),
		newGetCmd(a),
		newSeedCmd(a),
		newRefreshCmd(a),
	)
	return root
}

// resolve layers flags over the environment and validates the result.
func (a *app) resolve(cmd *cobra.Command) error {
	cfg := config.Load()
	cfg.DataBackend = a.v.GetString("DATA_BACKEND")
	cfg.SQLiteDBPath = a.v.GetString("SQLITE_DB_PATH")
	cfg.SeedFile = a.v.GetString("SEED_FILE")
	cfg.RemoteBaseURL = a.v.GetString("REMOTE_BASE_URL")
	cfg.RemoteTimeout = a.v.GetDuration("REMOTE_TIMEOUT")
	cfg.PageSize = a.v.GetInt("PAGE_SIZE")
	cfg.MaxPages = a.v.GetInt("MAX_PAGES")
	cfg.LogLevel = a.v.GetString("LOG_LEVEL")
	cfg.LogFormat = a.v.GetString("LOG_FORMAT")
	cfg.AMQPURL = a.v.GetString("AMQP_URL")
	cfg.AMQPExchange = a.v.GetString("AMQP_EXCHANGE")
	cfg.AMQPQueue = a.v.GetString("AMQP_QUEUE")

	lc := applog.DefaultConfig()
	lc.Output = cmd.ErrOrStderr()
	lc.Format = cfg.LogFormat
	lc.Component = "assetctl"
	if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	a.logger = applog.New(lc)
	applog.SetDefault(a.logger)

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) openBackend(ctx context.Context) (*backend.BackendResult, error) {
	res, err := cli.OpenBackend(ctx, a.logger, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", a.cfg.DataBackend, err)
	}
	return res, nil
}

// parseActive reads a tri-state boolean flag; empty leaves the filter unset.
func parseActive(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, errors.New("--active must be true or false")
	}
	return core.BoolPtr(b), nil
}
