package models

const (
	OrderStatusDelivered = "Delivered"

	OrderReadyCorrectly = "Correctly"

	PerformancePoor = 0
	PerformanceGood = 1

	PerformanceLabelPoor = "Poor"
	PerformanceLabelGood = "Good"
)

// PerformanceName returns the human label for a predicted class.
func PerformanceName(label int) string {
	if label == PerformanceGood {
		return PerformanceLabelGood
	}
	return PerformanceLabelPoor
}
