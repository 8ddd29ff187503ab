// Package analytics summarizes the cleaned dataset together with the
// prediction history.
package analytics

import (
	"context"
	"errors"
	"math"

	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
	"gonum.org/v1/gonum/stat"
)

const NoDataMessage = "No data available"

type DatasetProvider interface {
	Get(ctx context.Context) (*dataset.Batch, error)
}

type PredictionSource interface {
	Snapshot() []models.PredictionRecord
}

// Aggregator recomputes the summary on every call; nothing is cached here.
type Aggregator struct {
	data        DatasetProvider
	predictions PredictionSource
}

func NewAggregator(data DatasetProvider, predictions PredictionSource) *Aggregator {
	return &Aggregator{data: data, predictions: predictions}
}

// Summarize never fails. Without a dataset it returns a zeroed summary that
// still reports how many predictions were made.
func (a *Aggregator) Summarize(ctx context.Context) models.AnalyticsSummary {
	preds := a.predictions.Snapshot()

	batch, err := a.data.Get(ctx)
	if err != nil || batch == nil || batch.Len() == 0 {
		if err != nil && !errors.Is(err, dataset.ErrDataUnavailable) {
			logging.Ctx(ctx).Warn().Err(err).Msg("dataset lookup failed")
		}
		return emptySummary(len(preds))
	}
	return summarize(batch.Records, preds)
}

func emptySummary(predictionsMade int) models.AnalyticsSummary {
	return models.AnalyticsSummary{
		Error:                   NoDataMessage,
		PerformanceDistribution: map[int]int{models.PerformancePoor: 0, models.PerformanceGood: 0},
		PeakHours:               map[int]int{},
		PredictionsMade:         predictionsMade,
	}
}

func summarize(records []models.CleanedOrderRecord, preds []models.PredictionRecord) models.AnalyticsSummary {
	n := len(records)
	ratings := make([]float64, 0, n)
	kpts := make([]float64, 0, n+len(preds))
	distances := make([]float64, 0, n+len(preds))
	delivered := 0

	distribution := map[int]int{models.PerformancePoor: 0, models.PerformanceGood: 0}
	peakHours := map[int]int{}

	for _, r := range records {
		ratings = append(ratings, r.Rating)
		kpts = append(kpts, r.KPTDurationMinutes)
		distances = append(distances, r.DistanceNumeric)
		if r.Delivered() {
			delivered++
		}
		distribution[r.PerformanceLabel]++
		peakHours[r.OrderHour]++
	}
	for _, p := range preds {
		kpts = append(kpts, p.KPTDurationMinutes)
		distances = append(distances, p.Distance)
		distribution[p.PredictedPerformance]++
		peakHours[p.OrderHour]++
	}

	return models.AnalyticsSummary{
		Summary: models.Summary{
			AvgRating:           round2(stat.Mean(ratings, nil)),
			AvgKPTDuration:      round2(stat.Mean(kpts, nil)),
			AvgDistance:         round2(stat.Mean(distances, nil)),
			DeliverySuccessRate: round2(100 * float64(delivered) / float64(n)),
		},
		PerformanceDistribution: distribution,
		PeakHours:               peakHours,
		TotalOrders:             n + len(preds),
		PredictionsMade:         len(preds),
	}
}

// round2 rounds to two decimals and maps NaN and Inf to 0.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
