package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/factories"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	dir := t.TempDir()

	datasetPath := filepath.Join(dir, "dataset.csv")
	f, err := os.Create(datasetPath)
	require.NoError(t, err)
	require.NoError(t, dataset.WriteCSV(f, factories.NewOrderFactory(factories.DefaultOrderFactoryConfig()).CreateOrders(300)))
	require.NoError(t, f.Close())

	return &models.Config{
		Host:            "127.0.0.1",
		Port:            8000,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		DatasetSource:   "csv",
		DatasetPath:     datasetPath,
		ModelPath:       filepath.Join(dir, "model.json"),
		Forest: models.ForestConfig{
			NTrees:          8,
			MaxDepth:        6,
			MinSamplesSplit: 2,
			Seed:            7,
		},
		ExportPath:        filepath.Join(dir, "out"),
		ExportFolder:      "predictions",
		OutputDestination: "none",
		CORSOrigins:       []string{"*"},
	}
}

func TestAppServesPredictions(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/predict", "application/json",
		strings.NewReader(`{"Distance":"2km","KPT_duration":30,"Rider_wait_time":4,"Order_time":"8:10 PM"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, a.Predictions.Len())

	_, err = os.Stat(cfg.ModelPath)
	assert.NoError(t, err, "the trained model is saved for the next start")

	resp, err = http.Get(srv.URL + "/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportPredictions(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.ExportPredictions(context.Background()))
	_, err = os.Stat(filepath.Join(cfg.ExportPath, cfg.ExportFolder))
	assert.True(t, os.IsNotExist(err), "empty history writes nothing")

	a.Predictions.Append(models.PredictionRecord{ID: "p-1", CreatedAt: time.Now()})
	require.NoError(t, a.ExportPredictions(context.Background()))

	files, err := filepath.Glob(filepath.Join(cfg.ExportPath, cfg.ExportFolder, "predictions_*.parquet"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReloadSchedule = "every tuesday"
	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "dataset-reload")

	cfg = testConfig(t)
	cfg.OutputDestination = "carrier-pigeon"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.CloudStorage.Provider = "azure"
	_, err = New(context.Background(), cfg)
	assert.ErrorContains(t, err, "azure")
}

func TestNewDatasetSource(t *testing.T) {
	src, err := NewDatasetSource(&models.Config{DatasetSource: "parquet", DatasetPath: "x.parquet"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &dataset.ParquetSource{}, src)

	_, err = NewDatasetSource(&models.Config{DatasetSource: "postgres"}, nil)
	assert.Error(t, err)

	_, err = NewDatasetSource(&models.Config{DatasetSource: "excel"}, nil)
	assert.Error(t, err)
}

func TestScheduler(t *testing.T) {
	s := NewScheduler(time.Second)

	require.NoError(t, s.Add("noop", "", func(context.Context) error { return nil }))
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Add("hourly", "0 * * * *", func(context.Context) error { return nil }))
	assert.Equal(t, 1, s.Len())

	assert.Error(t, s.Add("bad", "61 * * * *", func(context.Context) error { return nil }))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
