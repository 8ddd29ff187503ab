package dataset

import "github.com/chrisdamba/orderly/internal/models"

// Values assumed by the label rule when a field is missing.
const (
	DefaultRating     = 3.0
	DefaultKPTMinutes = 15.0
)

// PerformanceLabel derives the binary ground truth for one order. The
// average band between the Good and Poor rules counts as Good.
func PerformanceLabel(rating, kptMinutes *float64, orderReadyMarked string) int {
	r := DefaultRating
	if rating != nil {
		r = *rating
	}
	kpt := DefaultKPTMinutes
	if kptMinutes != nil {
		kpt = *kptMinutes
	}
	ready := orderReadyMarked
	if ready == "" {
		ready = models.OrderReadyCorrectly
	}
	correct := ready == models.OrderReadyCorrectly

	switch {
	case r >= 4.0 && kpt <= 15 && correct:
		return models.PerformanceGood
	case r <= 2.0 || kpt >= 25 || !correct:
		return models.PerformancePoor
	default:
		return models.PerformanceGood
	}
}
