package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/orderly/internal/app"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction and analytics HTTP API",
	RunE:  runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().String("host", "0.0.0.0", "Listen host")
		c.Flags().Int("port", 8000, "Listen port")
		c.Flags().String("output-destination", "none", "Prediction event sink: none, console, kafka or postgres")
		c.Flags().String("reload-schedule", "", "Cron schedule for reloading the dataset")
		c.Flags().String("export-schedule", "", "Cron schedule for exporting predictions to parquet")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	bindFlags(cmd, map[string]string{
		"host":               "host",
		"port":               "port",
		"output_destination": "output-destination",
		"reload_schedule":    "reload-schedule",
		"export_schedule":    "export-schedule",
	}, false)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	logging.Info().
		Str("addr", cfg.Addr()).
		Str("dataset_source", cfg.DatasetSource).
		Str("output", cfg.OutputDestination).
		Msg("starting orderly")
	return a.Run(ctx)
}
