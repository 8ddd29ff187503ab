package dataset

import (
	"math"
	"sort"

	"github.com/chrisdamba/orderly/internal/features"
	"github.com/chrisdamba/orderly/internal/models"
	"gonum.org/v1/gonum/stat"
)

// Imputed when a duration column has no value to take a median over.
const (
	FallbackKPTMinutes       = 15.0
	FallbackRiderWaitMinutes = 5.0
)

type Result struct {
	Records           []models.CleanedOrderRecord
	KPTMedian         float64
	RiderWaitMedian   float64
	KPTFallback       bool // KPTMedian is FallbackKPTMinutes, not a median
	RiderWaitFallback bool
}

// Clean derives features and labels for a batch, then fills missing values.
// Labels see the values as loaded; imputation happens afterwards.
func Clean(raw []models.RawOrderRecord) Result {
	res := Result{Records: make([]models.CleanedOrderRecord, 0, len(raw))}

	kpts := make([]float64, 0, len(raw))
	waits := make([]float64, 0, len(raw))
	for _, r := range raw {
		if v, ok := present(r.KPTDurationMinutes); ok {
			kpts = append(kpts, v)
		}
		if v, ok := present(r.RiderWaitMinutes); ok {
			waits = append(waits, v)
		}
	}
	res.KPTMedian, res.KPTFallback = medianOr(kpts, FallbackKPTMinutes)
	res.RiderWaitMedian, res.RiderWaitFallback = medianOr(waits, FallbackRiderWaitMinutes)

	for _, r := range raw {
		rating, ratingOK := present(r.Rating)
		kpt, kptOK := present(r.KPTDurationMinutes)
		wait, waitOK := present(r.RiderWaitMinutes)

		c := models.CleanedOrderRecord{
			Distance:         r.Distance,
			OrderPlacedAt:    r.OrderPlacedAt,
			OrderReadyMarked: r.OrderReadyMarked,
			OrderStatus:      r.OrderStatus,
			DistanceNumeric:  features.DistanceKm(r.Distance),
			OrderHour:        features.OrderHour(r.OrderPlacedAt),
			PerformanceLabel: PerformanceLabel(ptr(rating, ratingOK), ptr(kpt, kptOK), r.OrderReadyMarked),
		}

		c.Rating = DefaultRating
		if ratingOK {
			c.Rating = rating
		}
		c.KPTDurationMinutes = res.KPTMedian
		if kptOK {
			c.KPTDurationMinutes = kpt
		}
		c.RiderWaitMinutes = res.RiderWaitMedian
		if waitOK {
			c.RiderWaitMinutes = wait
		}
		res.Records = append(res.Records, c)
	}
	return res
}

// present treats NaN like a missing value.
func present(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

func ptr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// median averages the two middle values of an even-sized sample.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

func medianOr(values []float64, fallback float64) (float64, bool) {
	if len(values) == 0 {
		return fallback, true
	}
	return median(values), false
}
