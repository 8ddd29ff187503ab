package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/factories"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/chrisdamba/orderly/internal/repositories/postgres"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const generateChunk = 1000

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic order history for training and demos",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().Int("count", 10000, "Number of orders to generate")
	generateCmd.Flags().Int64("seed", 0, "Random seed (0 uses the current time)")
	generateCmd.Flags().String("format", "csv", "Output format: csv, parquet or postgres")
	generateCmd.Flags().String("out", "", "Output file (defaults to dataset_path)")
	generateCmd.Flags().Float64("missing-rate", 0.03, "Share of rating and duration values left empty")
	generateCmd.Flags().Bool("truncate", false, "Delete existing rows before inserting into postgres")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = cfg.DatasetPath
	}

	fc := factories.DefaultOrderFactoryConfig()
	fc.Seed, _ = cmd.Flags().GetInt64("seed")
	if fc.Seed == 0 {
		fc.Seed = time.Now().UnixNano()
	}
	fc.MissingRate, _ = cmd.Flags().GetFloat64("missing-rate")
	orders := generateOrders(factories.NewOrderFactory(fc), count)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	switch format {
	case "csv":
		err = writeCSVFile(out, orders)
	case "parquet":
		if err = os.MkdirAll(filepath.Dir(out), 0o755); err == nil {
			err = dataset.WriteParquet(out, orders)
		}
	case "postgres":
		truncate, _ := cmd.Flags().GetBool("truncate")
		out = "orders_dataset"
		err = insertOrders(ctx, cfg.PostgresDSN, orders, truncate)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}

	logging.Info().Int("orders", len(orders)).Str("format", format).Str("target", out).Msg("orders generated")
	return nil
}

func generateOrders(f *factories.OrderFactory, count int) []models.RawOrderRecord {
	bar := progressbar.Default(int64(count), "generating orders")
	defer bar.Finish()

	orders := make([]models.RawOrderRecord, 0, count)
	for len(orders) < count {
		n := min(generateChunk, count-len(orders))
		orders = append(orders, f.CreateOrders(n)...)
		_ = bar.Add(n)
	}
	return orders
}

func writeCSVFile(path string, orders []models.RawOrderRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(f, orders); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func insertOrders(ctx context.Context, dsn string, orders []models.RawOrderRecord, truncate bool) error {
	if dsn == "" {
		return fmt.Errorf("postgres_dsn is required for the postgres format")
	}
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewOrderRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if truncate {
		if err := repo.DeleteAll(ctx); err != nil {
			return err
		}
	}
	return repo.BulkCreate(ctx, orders)
}
