package models

import "time"

// PredictionRecord is the stored result of one successful inference call.
type PredictionRecord struct {
	ID                   string    `json:"id"`
	Distance             float64   `json:"distance"`
	KPTDurationMinutes   float64   `json:"kpt_duration"`
	RiderWaitMinutes     float64   `json:"rider_wait_time"`
	OrderHour            int       `json:"order_hour"`
	PredictedPerformance int       `json:"predicted_performance"`
	Confidence           float64   `json:"confidence"`
	CreatedAt            time.Time `json:"created_at"`
}

// PredictionEvent is the wire form of a PredictionRecord published to event
// sinks and written to parquet exports.
type PredictionEvent struct {
	Timestamp            int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType            string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	PredictionID         string  `json:"predictionId" parquet:"name=predictionId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Distance             float64 `json:"distance" parquet:"name=distance,type=DOUBLE"`
	KPTDurationMinutes   float64 `json:"kptDuration" parquet:"name=kptDuration,type=DOUBLE"`
	RiderWaitMinutes     float64 `json:"riderWaitTime" parquet:"name=riderWaitTime,type=DOUBLE"`
	OrderHour            int64   `json:"orderHour" parquet:"name=orderHour,type=INT64"`
	PredictedPerformance int64   `json:"predictedPerformance" parquet:"name=predictedPerformance,type=INT64"`
	Performance          string  `json:"performance" parquet:"name=performance,type=BYTE_ARRAY,convertedtype=UTF8"`
	Confidence           float64 `json:"confidence" parquet:"name=confidence,type=DOUBLE"`
}

const EventPredictionMade = "prediction_made"

func NewPredictionEvent(rec PredictionRecord) PredictionEvent {
	return PredictionEvent{
		Timestamp:            rec.CreatedAt.Unix(),
		EventType:            EventPredictionMade,
		PredictionID:         rec.ID,
		Distance:             rec.Distance,
		KPTDurationMinutes:   rec.KPTDurationMinutes,
		RiderWaitMinutes:     rec.RiderWaitMinutes,
		OrderHour:            int64(rec.OrderHour),
		PredictedPerformance: int64(rec.PredictedPerformance),
		Performance:          PerformanceName(rec.PredictedPerformance),
		Confidence:           rec.Confidence,
	}
}
