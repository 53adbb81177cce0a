// Command olist-bi runs the Olist facts pipeline: mirror the raw dataset to
// parquet, build the facts table, or serve the reports API.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pickrace/olist-streamlit-bi/internal/config"
	"github.com/pickrace/olist-streamlit-bi/internal/dataset"
	"github.com/pickrace/olist-streamlit-bi/internal/facts"
	"github.com/pickrace/olist-streamlit-bi/internal/logging"
	"github.com/pickrace/olist-streamlit-bi/internal/metrics"
	"github.com/pickrace/olist-streamlit-bi/internal/report"
	"github.com/pickrace/olist-streamlit-bi/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "olist-bi",
		Short:         "Olist e-commerce facts pipeline and reports API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to config file")

	loadConfig := func() config.Config {
		cfg := config.MustLoad(configPath)
		logging.Setup(logging.Config(cfg.Logging))
		return cfg
	}

	root.AddCommand(newCacheCmd(loadConfig))
	root.AddCommand(newFactsCmd(loadConfig))
	root.AddCommand(newServeCmd(loadConfig))
	return root
}

// newCacheCmd mirrors every raw source file to parquet.
func newCacheCmd(loadConfig func() config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Write parquet mirrors for the raw dataset files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			bucket, err := dataset.OpenBucket(ctx, cfg.Data)
			if err != nil {
				return fmt.Errorf("open data bucket: %w", err)
			}
			defer bucket.Close()

			return dataset.NewReader(bucket).EnsureMirrors(ctx, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rebuild mirrors even when they exist")
	return cmd
}

// newFactsCmd builds the facts table once and prints the headline numbers.
func newFactsCmd(loadConfig func() config.Config) *cobra.Command {
	var (
		maxOrders  int
		year       int
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Build the facts table and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			bucket, err := dataset.OpenBucket(ctx, cfg.Data)
			if err != nil {
				return fmt.Errorf("open data bucket: %w", err)
			}
			defer bucket.Close()

			opts := facts.Options{MaxOrders: cfg.Facts.MaxOrders, Year: cfg.Facts.Year}
			if cmd.Flags().Changed("max-orders") {
				opts.MaxOrders = maxOrders
			}
			if cmd.Flags().Changed("year") {
				opts.Year = year
			}

			reader := dataset.NewReader(bucket)
			if err := reader.EnsureMirrors(ctx, false); err != nil {
				return fmt.Errorf("populate mirrors: %w", err)
			}

			t, err := facts.Build(ctx, reader, opts)
			if err != nil {
				return err
			}
			if t.Empty() {
				fmt.Println("no facts: dataset is empty or missing")
				return nil
			}

			s := report.Summarize(t)
			fmt.Printf("orders:   %d (%s .. %s)\n", s.Orders, s.FromDate, s.ToDate)
			fmt.Printf("revenue:  %.2f\n", s.Revenue)
			fmt.Printf("aov:      %.2f\n", s.AOV)
			if s.OnTimeRate != nil {
				fmt.Printf("on-time:  %.1f%%\n", *s.OnTimeRate*100)
			}

			if exportPath != "" {
				if err := exportFacts(exportPath, t); err != nil {
					return err
				}
				fmt.Printf("exported: %s\n", exportPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxOrders, "max-orders", 0, "cap to the most recent N orders (0 = no cap)")
	cmd.Flags().IntVar(&year, "year", 0, "keep only orders purchased in this year (0 = all)")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the facts table to this parquet file")
	return cmd
}

func exportFacts(path string, t facts.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := parquet.Write[facts.Fact](f, t, parquet.Compression(&parquet.Snappy)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// newServeCmd runs the reports API until interrupted.
func newServeCmd(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bucket, err := dataset.OpenBucket(ctx, cfg.Data)
			if err != nil {
				return fmt.Errorf("open data bucket: %w", err)
			}
			defer bucket.Close()

			registry := prometheus.NewRegistry()
			m := metrics.New(registry)

			reader := dataset.NewReader(bucket, dataset.WithMetrics(m))
			if err := reader.EnsureMirrors(ctx, false); err != nil {
				return fmt.Errorf("populate mirrors: %w", err)
			}
			cache := facts.NewCache(reader, m)

			return server.New(cfg, cache, registry).Run(ctx)
		},
	}
}
