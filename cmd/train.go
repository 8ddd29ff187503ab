package cmd

import (
	"context"
	"fmt"

	"github.com/chrisdamba/orderly/internal/app"
	"github.com/chrisdamba/orderly/internal/classifier"
	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/output"
	"github.com/chrisdamba/orderly/internal/repositories/postgres"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the delivery performance model and save it to model_path",
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().Int("n-trees", 100, "Number of trees in the forest")
	trainCmd.Flags().Int64("seed", 42, "Random seed for bootstrap sampling")
	trainCmd.Flags().Float64("test-fraction", 0.2, "Share of rows held out to report accuracy")
	trainCmd.Flags().Bool("upload", false, "Also copy the saved model to the export location")
	trainCmd.Flags().Bool("progress", true, "Show a progress bar while trees are fitted")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	bindFlags(cmd, map[string]string{
		"forest.n_trees":       "n-trees",
		"forest.seed":          "seed",
		"forest.test_fraction": "test-fraction",
	}, false)

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

	opts := classifier.TrainOptions{Options: app.ForestOptions(cfg), TestFraction: cfg.Forest.TestFraction}
	if show, _ := cmd.Flags().GetBool("progress"); show {
		bar := progressbar.Default(int64(cfg.Forest.NTrees), "training trees")
		defer bar.Finish()
		opts.OnTree = func() { _ = bar.Add(1) }
	}

	forest, report, err := classifier.Train(ctx, batch.Records, opts)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if err := forest.Save(cfg.ModelPath); err != nil {
		return err
	}
	logging.Info().
		Str("path", cfg.ModelPath).
		Int("train_rows", report.TrainRows).
		Int("test_rows", report.TestRows).
		Float64("accuracy", report.Accuracy).
		Msg("model saved")

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if upload, _ := cmd.Flags().GetBool("upload"); upload {
		exporter, err := output.NewExporter(ctx, cfg)
		if err != nil {
			return err
		}
		target, err := exporter.Upload(ctx, cfg.ModelPath)
		if err != nil {
			return fmt.Errorf("upload model: %w", err)
		}
		logging.Info().Str("target", target).Msg("model uploaded")
	}
	return nil
}

func connectIfNeeded(ctx context.Context, needed bool, dsn string) (*pgxpool.Pool, error) {
	if !needed {
		return nil, nil
	}
	return postgres.Connect(ctx, dsn)
}
