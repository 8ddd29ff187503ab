package cmd

import (
	"context"
	"fmt"

	"github.com/chrisdamba/orderly/internal/app"
	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/output"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the cleaned order history to parquet in the export location",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := connectIfNeeded(ctx, cfg.DatasetSource == "postgres", cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	src, err := app.NewDatasetSource(cfg, pool)
	if err != nil {
		return err
	}
	batch, err := dataset.NewCache(src).Get(ctx)
	if err != nil {
		return err
	}

	exporter, err := output.NewExporter(ctx, cfg)
	if err != nil {
		return err
	}
	target, err := exporter.ExportDataset(ctx, batch.Records)
	if err != nil {
		return fmt.Errorf("export dataset: %w", err)
	}
	logging.Info().Int("rows", batch.Len()).Str("target", target).Msg("dataset exported")
	fmt.Fprintln(cmd.OutOrStdout(), target)
	return nil
}
