package dataset

import (
	"context"
	"errors"

	"github.com/chrisdamba/orderly/internal/models"
)

// ErrDataUnavailable means the dataset could not be loaded or had no rows.
var ErrDataUnavailable = errors.New("dataset unavailable")

// Source supplies the raw historical order rows.
type Source interface {
	Load(ctx context.Context) ([]models.RawOrderRecord, error)
}

// Column headers of the tabular dataset.
const (
	ColumnDistance         = "Distance"
	ColumnOrderPlacedAt    = "Order Placed At"
	ColumnRating           = "Rating"
	ColumnKPTDuration      = "KPT duration (minutes)"
	ColumnRiderWaitTime    = "Rider wait time (minutes)"
	ColumnOrderReadyMarked = "Order Ready Marked"
	ColumnOrderStatus      = "Order Status"
)

var Columns = []string{
	ColumnDistance,
	ColumnOrderPlacedAt,
	ColumnRating,
	ColumnKPTDuration,
	ColumnRiderWaitTime,
	ColumnOrderReadyMarked,
	ColumnOrderStatus,
}
