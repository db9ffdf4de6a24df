package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/manzanit0/kantomap/pkg/env"
	"github.com/manzanit0/kantomap/pkg/geocode"
	"github.com/manzanit0/kantomap/pkg/location"
	"github.com/manzanit0/kantomap/pkg/survey"
	"github.com/manzanit0/kantomap/pkg/whttp"
)

var options struct {
	ConfigDir string
	Yes       bool
}

var rootCmd = &cobra.Command{
	Use:   "locations",
	Short: "Inspect and manage the survey's location store",
	Long: `
locations works on the same store as the survey server: a CSV file under
DATA_DIR, or Postgres when DATABASE_URL is set.
`,
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every submitted location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(_ *env.Config, store location.Store) error {
			records, err := store.ReadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("read locations: %w", err)
			}

			return renderTable(cmd.OutOrStdout(), records)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every submitted location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !options.Yes {
			return errors.New("refusing to reset without --yes")
		}

		return withStore(cmd.Context(), func(_ *env.Config, store location.Store) error {
			if err := store.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset locations: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "all locations deleted")
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Geocode and add every place listed in a file, one per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		places, err := readPlaces(f)
		if err != nil {
			return err
		}

		return withStore(cmd.Context(), func(cfg *env.Config, store location.Store) error {
			resolver, err := geocode.NewResolverFromConfig(cfg.Providers, whttp.NewLoggingClient())
			if err != nil {
				return fmt.Errorf("create resolver: %w", err)
			}

			svc := survey.NewService(resolver, store, cfg.CountryQualifier, cfg.AdminPassword)

			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progressbar.NewOptions(len(places),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("geocoding"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			summary := importPlaces(cmd.Context(), svc, places, bar)
			return renderSummary(cmd.OutOrStdout(), summary)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&options.ConfigDir, "config-dir", os.Getenv("CONFIG_DIR"), "directory holding an optional app.env")
	resetCmd.Flags().BoolVar(&options.Yes, "yes", false, "confirm the reset")

	rootCmd.AddCommand(listCmd, resetCmd, importCmd)
}

func withStore(ctx context.Context, fn func(*env.Config, location.Store) error) error {
	cfg, err := env.Load(options.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := location.Open(ctx, cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open location store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("close location store", "error", err.Error())
		}
	}()

	return fn(cfg, store)
}
