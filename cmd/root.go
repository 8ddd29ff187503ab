package cmd

import (
	"fmt"
	"os"

	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "orderly",
	Short: "Predicts food delivery performance and serves order analytics",
	Long: `orderly trains a random forest on historical food delivery orders, serves
performance predictions over HTTP and merges live predictions with the order
history into analytics.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./orderly.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json or console)")
	rootCmd.PersistentFlags().String("dataset-source", "csv", "Where the order history lives: csv, parquet or postgres")
	rootCmd.PersistentFlags().String("dataset-path", "data/dataset.csv", "Path of the csv or parquet order history")
	rootCmd.PersistentFlags().String("model-path", "data/food_delivery_model.json", "Where the trained model is read and saved")
	rootCmd.PersistentFlags().String("postgres-dsn", "", "Postgres connection string")

	bindFlags(rootCmd, map[string]string{
		"log.level":      "log-level",
		"log.format":     "log-format",
		"dataset_source": "dataset-source",
		"dataset_path":   "dataset-path",
		"model_path":     "model-path",
		"postgres_dsn":   "postgres-dsn",
	}, true)
}

// bindFlags maps config keys to flag names so flags override the config
// file and the environment.
func bindFlags(cmd *cobra.Command, keys map[string]string, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for key, name := range keys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(name)))
	}
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if used := viper.ConfigFileUsed(); used != "" {
		logging.Debug().Str("file", used).Msg("using config file")
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
