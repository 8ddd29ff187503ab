// Package app wires configuration into a running prediction service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/chrisdamba/orderly/internal/analytics"
	"github.com/chrisdamba/orderly/internal/api"
	"github.com/chrisdamba/orderly/internal/catalog"
	"github.com/chrisdamba/orderly/internal/classifier"
	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/inference"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/chrisdamba/orderly/internal/output"
	"github.com/chrisdamba/orderly/internal/repositories/postgres"
	"github.com/chrisdamba/orderly/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobTimeout = 5 * time.Minute

type App struct {
	cfg *models.Config

	Dataset     *dataset.Cache
	Models      *classifier.Provider
	Predictions *store.PredictionStore
	Adapter     *inference.Adapter
	Analytics   *analytics.Aggregator
	Exporter    *output.Exporter

	pool      *pgxpool.Pool
	sink      *output.Sink
	scheduler *Scheduler
	server    *http.Server
}

// New builds every component but starts nothing.
func New(ctx context.Context, cfg *models.Config) (*App, error) {
	a := &App{cfg: cfg}

	if cfg.PostgresDSN != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.pool = pool
	}

	src, err := NewDatasetSource(cfg, a.pool)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Dataset = dataset.NewCache(src)
	a.Models = classifier.NewProvider(cfg.ModelPath, a.Dataset, ForestOptions(cfg))
	a.Predictions = store.NewPredictionStore(cfg.PredictionStoreCapacity)
	a.Analytics = analytics.NewAggregator(a.Dataset, a.Predictions)

	var opts []inference.Option
	sink, err := output.NewSink(ctx, cfg, a.pool)
	if err != nil {
		a.Close()
		return nil, err
	}
	if sink != nil {
		a.sink = sink
		opts = append(opts, inference.WithPublisher(sink))
	}
	a.Adapter = inference.NewAdapter(a.Models, a.Predictions, opts...)

	if a.Exporter, err = output.NewExporter(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	a.scheduler = NewScheduler(jobTimeout)
	if err := a.scheduler.Add("dataset-reload", cfg.ReloadSchedule, a.reloadDataset); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.scheduler.Add("prediction-export", cfg.ExportSchedule, a.ExportPredictions); err != nil {
		a.Close()
		return nil, err
	}

	cat, err := catalog.Load()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	router := api.NewRouter(api.Deps{
		Predictor:   a.Adapter,
		Models:      a.Models,
		Analytics:   a.Analytics,
		History:     a.Predictions,
		Reloader:    a.Dataset,
		Catalog:     cat,
		Recommender: catalog.NewRecommender(cat, 0),
	}, api.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	a.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * cfg.WriteTimeout,
	}
	return a, nil
}

// NewDatasetSource returns the reader selected by dataset_source.
func NewDatasetSource(cfg *models.Config, pool *pgxpool.Pool) (dataset.Source, error) {
	switch cfg.DatasetSource {
	case "csv":
		return dataset.NewCSVSource(cfg.DatasetPath), nil
	case "parquet":
		return dataset.NewParquetSource(cfg.DatasetPath), nil
	case "postgres":
		if pool == nil {
			return nil, errors.New("postgres dataset requires postgres_dsn")
		}
		return postgres.NewOrderRepository(pool), nil
	default:
		return nil, fmt.Errorf("unsupported dataset_source: %s", cfg.DatasetSource)
	}
}

func ForestOptions(cfg *models.Config) classifier.Options {
	return classifier.Options{
		NTrees:          cfg.Forest.NTrees,
		MaxDepth:        cfg.Forest.MaxDepth,
		MinSamplesSplit: cfg.Forest.MinSamplesSplit,
		Seed:            cfg.Forest.Seed,
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.warmUp(ctx)
	a.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- a.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.scheduler.Stop(shutdownCtx)
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// warmUp loads the dataset and model before the first request. Failures are
// logged only; the handlers retry lazily and degrade on their own.
func (a *App) warmUp(ctx context.Context) {
	if _, err := a.Dataset.Get(ctx); err != nil {
		logging.Warn().Err(err).Msg("dataset not available at startup")
	}
	if _, err := a.Models.Get(ctx); err != nil {
		logging.Warn().Err(err).Msg("model not available at startup")
	}
}

func (a *App) reloadDataset(ctx context.Context) error {
	batch, err := a.Dataset.Reload(ctx)
	if err != nil {
		return err
	}
	logging.Info().Int("rows", batch.Len()).Msg("dataset reloaded")
	return nil
}

// ExportPredictions writes the current prediction history as parquet. An
// empty history is skipped.
func (a *App) ExportPredictions(ctx context.Context) error {
	recs := a.Predictions.Snapshot()
	if len(recs) == 0 {
		logging.Debug().Msg("no predictions to export")
		return nil
	}
	_, err := a.Exporter.ExportPredictions(ctx, recs)
	return err
}

func (a *App) Close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing prediction sink")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
