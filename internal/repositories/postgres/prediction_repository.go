package postgres

import (
	"context"

	"github.com/chrisdamba/orderly/internal/models"
	"github.com/jackc/pgx/v5"
)

type PredictionRepository struct {
	db DB
}

func NewPredictionRepository(db DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS predictions (
            id                    TEXT PRIMARY KEY,
            distance              DOUBLE PRECISION NOT NULL,
            kpt_duration          DOUBLE PRECISION NOT NULL,
            rider_wait_time       DOUBLE PRECISION NOT NULL,
            order_hour            INTEGER NOT NULL,
            predicted_performance INTEGER NOT NULL,
            confidence            DOUBLE PRECISION NOT NULL,
            created_at            TIMESTAMPTZ NOT NULL
        )
    `)
	return err
}

func (r *PredictionRepository) Create(ctx context.Context, rec models.PredictionRecord) error {
	query := `
        INSERT INTO predictions (
            id, distance, kpt_duration, rider_wait_time, order_hour,
            predicted_performance, confidence, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        )
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, predictionValues(rec)...)
	return err
}

func (r *PredictionRepository) BulkCreate(ctx context.Context, recs []models.PredictionRecord) error {
	_, err := r.db.CopyFrom(
		ctx,
		pgx.Identifier{"predictions"},
		[]string{
			"id", "distance", "kpt_duration", "rider_wait_time", "order_hour",
			"predicted_performance", "confidence", "created_at",
		},
		pgx.CopyFromSlice(len(recs), func(i int) ([]interface{}, error) {
			return predictionValues(recs[i]), nil
		}),
	)
	return err
}

func predictionValues(rec models.PredictionRecord) []interface{} {
	return []interface{}{
		rec.ID,
		rec.Distance,
		rec.KPTDurationMinutes,
		rec.RiderWaitMinutes,
		rec.OrderHour,
		rec.PredictedPerformance,
		rec.Confidence,
		rec.CreatedAt,
	}
}

// Recent returns up to limit of the newest predictions, newest first.
func (r *PredictionRepository) Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	query := `
        SELECT
            id, distance, kpt_duration, rider_wait_time, order_hour,
            predicted_performance, confidence, created_at
        FROM predictions
        ORDER BY created_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.PredictionRecord
	for rows.Next() {
		var rec models.PredictionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Distance,
			&rec.KPTDurationMinutes,
			&rec.RiderWaitMinutes,
			&rec.OrderHour,
			&rec.PredictedPerformance,
			&rec.Confidence,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *PredictionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM predictions").Scan(&count)
	return count, err
}
