package models

// RawOrderRecord is one row of the historical dataset as it was read from the
// source. Nil numeric fields and empty strings are missing values.
type RawOrderRecord struct {
	Distance           string   `json:"distance" parquet:"name=distance,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderPlacedAt      string   `json:"order_placed_at" parquet:"name=order_placed_at,type=BYTE_ARRAY,convertedtype=UTF8"`
	Rating             *float64 `json:"rating,omitempty" parquet:"name=rating,type=DOUBLE,repetitiontype=OPTIONAL"`
	KPTDurationMinutes *float64 `json:"kpt_duration_minutes,omitempty" parquet:"name=kpt_duration_minutes,type=DOUBLE,repetitiontype=OPTIONAL"`
	RiderWaitMinutes   *float64 `json:"rider_wait_minutes,omitempty" parquet:"name=rider_wait_minutes,type=DOUBLE,repetitiontype=OPTIONAL"`
	OrderReadyMarked   string   `json:"order_ready_marked" parquet:"name=order_ready_marked,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderStatus        string   `json:"order_status" parquet:"name=order_status,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// CleanedOrderRecord is a RawOrderRecord after feature derivation, labeling and
// imputation. No field is missing.
type CleanedOrderRecord struct {
	Distance           string  `json:"distance"`
	OrderPlacedAt      string  `json:"order_placed_at"`
	Rating             float64 `json:"rating"`
	KPTDurationMinutes float64 `json:"kpt_duration_minutes"`
	RiderWaitMinutes   float64 `json:"rider_wait_minutes"`
	OrderReadyMarked   string  `json:"order_ready_marked"`
	OrderStatus        string  `json:"order_status"`
	DistanceNumeric    float64 `json:"distance_numeric"`
	OrderHour          int     `json:"order_hour"`
	PerformanceLabel   int     `json:"performance_label"`
}

// Delivered reports whether the order reached the customer.
func (r CleanedOrderRecord) Delivered() bool {
	return r.OrderStatus == OrderStatusDelivered
}
