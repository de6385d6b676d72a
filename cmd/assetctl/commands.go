package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"assetview/internal/amqp"
	"assetview/internal/backend"
	"assetview/internal/cli"
	"assetview/internal/core"
	"assetview/internal/report"
	"assetview/internal/seed"
	"assetview/internal/storage"
)

func newOverviewCmd(a *app) *cobra.Command {
	var (
		category, typ, active string
		showAssets, asJSON    bool
		asMarkdown            bool
		style                 string
		width                 int
	)

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Collect every asset and print category and subcategory totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			activePtr, err := parseActive(active)
			if err != nil {
				return err
			}

			res, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer res.Close()

			coll, err := cli.NewCollector(res.Backend, a.cfg)
			if err != nil {
				return err
			}
			ov, err := cli.NewPortfolioService(coll, nil, nil).Overview(ctx, core.Filters{
				Category: category,
				Type:     typ,
				Active:   activePtr,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := report.Options{ShowAssets: showAssets}
			switch {
			case asJSON:
				return writeJSON(out, ov)
			case asMarkdown:
				rendered, err := report.RenderMarkdown(report.Markdown(ov, opts), style, width)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, rendered)
				return err
			default:
				return report.Text(out, ov, opts)
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&category, "category", "", "only assets in this primary_asset_category")
	f.StringVar(&typ, "type", "", "only assets of this wealth_asset_type")
	f.StringVar(&active, "active", "", "only active (true) or inactive (false) assets")
	f.BoolVar(&showAssets, "assets", false, "list individual assets")
	f.BoolVar(&asJSON, "json", false, "print the overview as JSON")
	f.BoolVar(&asMarkdown, "markdown", false, "render the overview as styled Markdown")
	f.StringVar(&style, "style", "", "glamour style for --markdown (dark, light, notty); default detects the terminal")
	f.IntVar(&width, "width", 100, "word wrap width for --markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <wid>",
		Short: "Show a single asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer res.Close()

			asset, err := res.Backend.GetAsset(ctx, args[0])
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("asset %s not found", args[0])
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), asset)
			}
			return report.Asset(cmd.OutOrStdout(), asset)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the asset as JSON")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the seed file into the SQLite store",
		Long: `seed imports the JSON asset export named by --seed-file. Assets whose
asset_id is already stored are skipped. --reset drops the schema first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.DataBackend != string(backend.SQLiteBackend) {
				return fmt.Errorf("seed needs the sqlite backend, got %q", a.cfg.DataBackend)
			}

			if reset {
				if err := storage.ResetSchema(a.cfg.SQLiteDBPath); err != nil {
					return fmt.Errorf("reset schema: %w", err)
				}
				a.logger.Info("Schema reset", "db_path", a.cfg.SQLiteDBPath)
			}

			res, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer res.Close()

			result, err := seed.Run(ctx, res.Importer, a.cfg.SeedFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, seed.Message(result))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  error: %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop and recreate the assets table before seeding")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	var category, typ, active string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask a running assetview server to rebuild the overview",
		Long: `refresh publishes a refresh request to the broker named by --amqp-url.
The server worker collects the inventory, publishes an overview snapshot and
writes the configured spreadsheet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.AMQPEnabled() {
				return errors.New("refresh needs --amqp-url or AMQP_URL")
			}
			isActive, err := parseActive(active)
			if err != nil {
				return err
			}

			client, err := amqp.NewClient(amqp.Config{
				URL:         a.cfg.AMQPURL,
				Exchange:    a.cfg.AMQPExchange,
				Queue:       a.cfg.AMQPQueue,
				SnapshotKey: a.cfg.AMQPSnapshotKey,
			})
			if err != nil {
				return fmt.Errorf("connect to broker: %w", err)
			}
			defer client.Close()

			msg := amqp.NewRefreshRequest(core.Filters{Category: category, Type: typ, Active: isActive})
			if err := client.PublishRefresh(cmd.Context(), msg); err != nil {
				return fmt.Errorf("publish refresh: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refresh requested (%s)\n", msg.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&category, "category", "", "only refresh assets in this primary category")
	f.StringVar(&typ, "type", "", "only refresh assets of this wealth asset type")
	f.StringVar(&active, "active", "", "true or false to filter on is_active")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
