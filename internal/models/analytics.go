package models

type Summary struct {
	AvgRating           float64 `json:"avg_rating"`
	AvgKPTDuration      float64 `json:"avg_kpt_duration"`
	AvgDistance         float64 `json:"avg_distance"`
	DeliverySuccessRate float64 `json:"delivery_success_rate"`
}

// AnalyticsSummary merges the cleaned dataset with the prediction history.
type AnalyticsSummary struct {
	Error                   string      `json:"error,omitempty"`
	Summary                 Summary     `json:"summary"`
	PerformanceDistribution map[int]int `json:"performance_distribution"`
	PeakHours               map[int]int `json:"peak_hours"` // Hour -> Order Count
	TotalOrders             int         `json:"total_orders"`
	PredictionsMade         int         `json:"predictions_made"`
}

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}
