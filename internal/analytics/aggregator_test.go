package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/chrisdamba/orderly/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func cacheOf(rows ...models.RawOrderRecord) *dataset.Cache {
	return dataset.NewCache(dataset.StaticSource(rows))
}

func sampleRows() []models.RawOrderRecord {
	return []models.RawOrderRecord{
		{Distance: "2km", OrderPlacedAt: "9:00 AM", Rating: f64(4.5), KPTDurationMinutes: f64(10), RiderWaitMinutes: f64(2), OrderReadyMarked: "Correctly", OrderStatus: "Delivered"},
		{Distance: "4km", OrderPlacedAt: "9:30 AM", Rating: f64(1.5), KPTDurationMinutes: f64(30), RiderWaitMinutes: f64(6), OrderReadyMarked: "Correctly", OrderStatus: "Rejected"},
		{Distance: "<1km", OrderPlacedAt: "7:00 PM", KPTDurationMinutes: f64(20), OrderReadyMarked: "Correctly", OrderStatus: "Delivered"},
	}
}

func TestSummarizeDatasetOnly(t *testing.T) {
	agg := NewAggregator(cacheOf(sampleRows()...), store.NewPredictionStore(0))

	s := agg.Summarize(context.Background())

	assert.Empty(t, s.Error)
	assert.Equal(t, 3.0, s.Summary.AvgRating, "missing rating counts as 3.0")
	assert.Equal(t, 20.0, s.Summary.AvgKPTDuration)
	assert.Equal(t, 2.17, s.Summary.AvgDistance)
	assert.Equal(t, 66.67, s.Summary.DeliverySuccessRate)
	assert.Equal(t, map[int]int{0: 1, 1: 2}, s.PerformanceDistribution)
	assert.Equal(t, map[int]int{9: 2, 19: 1}, s.PeakHours)
	assert.Equal(t, 3, s.TotalOrders)
	assert.Equal(t, 0, s.PredictionsMade)
}

func TestSummarizeMergesPredictions(t *testing.T) {
	preds := store.NewPredictionStore(0)
	preds.Append(models.PredictionRecord{Distance: 6, KPTDurationMinutes: 40, RiderWaitMinutes: 5, OrderHour: 19, PredictedPerformance: 0, Confidence: 0.8})
	agg := NewAggregator(cacheOf(sampleRows()...), preds)

	s := agg.Summarize(context.Background())

	assert.Equal(t, 3.0, s.Summary.AvgRating, "predictions carry no rating")
	assert.Equal(t, 25.0, s.Summary.AvgKPTDuration)
	assert.Equal(t, 3.13, s.Summary.AvgDistance)
	assert.Equal(t, 66.67, s.Summary.DeliverySuccessRate, "predictions carry no status")
	assert.Equal(t, map[int]int{0: 2, 1: 2}, s.PerformanceDistribution)
	assert.Equal(t, map[int]int{9: 2, 19: 2}, s.PeakHours)
	assert.Equal(t, 4, s.TotalOrders)
	assert.Equal(t, 1, s.PredictionsMade)
}

func TestSummarizeIsIdempotent(t *testing.T) {
	preds := store.NewPredictionStore(0)
	preds.Append(models.PredictionRecord{Distance: 1, KPTDurationMinutes: 12, OrderHour: 3, PredictedPerformance: 1})
	agg := NewAggregator(cacheOf(sampleRows()...), preds)

	first := agg.Summarize(context.Background())
	second := agg.Summarize(context.Background())
	assert.Equal(t, first, second)
}

func TestSummarizeMonotonicInPredictions(t *testing.T) {
	preds := store.NewPredictionStore(0)
	agg := NewAggregator(cacheOf(sampleRows()...), preds)

	before := agg.Summarize(context.Background())
	preds.Append(models.PredictionRecord{Distance: 2, KPTDurationMinutes: 10, OrderHour: 12, PredictedPerformance: 1})
	after := agg.Summarize(context.Background())

	assert.Equal(t, before.PredictionsMade+1, after.PredictionsMade)
	assert.Equal(t, before.PerformanceDistribution[1]+1, after.PerformanceDistribution[1])
	assert.Equal(t, before.PerformanceDistribution[0], after.PerformanceDistribution[0])
	assert.Equal(t, before.TotalOrders+1, after.TotalOrders)
	assert.Equal(t, before.PeakHours[12]+1, after.PeakHours[12])
}

func TestSummarizeEmptyDatasetAndHistory(t *testing.T) {
	agg := NewAggregator(cacheOf(), store.NewPredictionStore(0))

	s := agg.Summarize(context.Background())

	assert.Equal(t, NoDataMessage, s.Error)
	assert.Equal(t, models.Summary{}, s.Summary)
	assert.Equal(t, map[int]int{0: 0, 1: 0}, s.PerformanceDistribution)
	assert.Empty(t, s.PeakHours)
	assert.NotNil(t, s.PeakHours)
	assert.Equal(t, 0, s.TotalOrders)
	assert.Equal(t, 0, s.PredictionsMade)
}

func TestSummarizeUnavailableStillCountsPredictions(t *testing.T) {
	failing := dataset.NewCache(dataset.SourceFunc(func(context.Context) ([]models.RawOrderRecord, error) {
		return nil, errors.New("no such file")
	}))
	preds := store.NewPredictionStore(0)
	preds.Append(models.PredictionRecord{OrderHour: 8, PredictedPerformance: 1})
	preds.Append(models.PredictionRecord{OrderHour: 9, PredictedPerformance: 0})

	s := NewAggregator(failing, preds).Summarize(context.Background())

	assert.Equal(t, NoDataMessage, s.Error)
	assert.Equal(t, 0, s.TotalOrders)
	assert.Equal(t, 2, s.PredictionsMade)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.0, round2(math.NaN()))
	assert.Equal(t, 0.0, round2(math.Inf(1)))
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, 66.67, round2(200.0/3))
}

func TestSummarizeSeesReload(t *testing.T) {
	rows := sampleRows()[:1]
	cache := dataset.NewCache(dataset.SourceFunc(func(context.Context) ([]models.RawOrderRecord, error) {
		return rows, nil
	}))
	agg := NewAggregator(cache, store.NewPredictionStore(0))
	require.Equal(t, 1, agg.Summarize(context.Background()).TotalOrders)

	rows = sampleRows()
	_, err := cache.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Summarize(context.Background()).TotalOrders)
}
