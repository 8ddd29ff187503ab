package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/jackc/pgx/v5"
)

const ordersTable = "orders_dataset"

var orderColumns = []string{
	"distance", "order_placed_at", "rating", "kpt_duration_minutes",
	"rider_wait_minutes", "order_ready_marked", "order_status",
}

// OrderRepository stores the historical order dataset. It doubles as a
// dataset.Source for the analytics cache.
type OrderRepository struct {
	db DB
}

var _ dataset.Source = (*OrderRepository)(nil)

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS orders_dataset (
            id                   BIGSERIAL PRIMARY KEY,
            distance             TEXT NOT NULL DEFAULT '',
            order_placed_at      TEXT NOT NULL DEFAULT '',
            rating               DOUBLE PRECISION,
            kpt_duration_minutes DOUBLE PRECISION,
            rider_wait_minutes   DOUBLE PRECISION,
            order_ready_marked   TEXT NOT NULL DEFAULT '',
            order_status         TEXT NOT NULL DEFAULT ''
        )
    `)
	return err
}

func (r *OrderRepository) BulkCreate(ctx context.Context, orders []models.RawOrderRecord) error {
	_, err := r.db.CopyFrom(
		ctx,
		pgx.Identifier{ordersTable},
		orderColumns,
		pgx.CopyFromSlice(len(orders), func(i int) ([]interface{}, error) {
			return orderValues(orders[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", ordersTable, err)
	}
	return nil
}

func orderValues(o models.RawOrderRecord) []interface{} {
	return []interface{}{
		o.Distance,
		o.OrderPlacedAt,
		o.Rating,
		o.KPTDurationMinutes,
		o.RiderWaitMinutes,
		o.OrderReadyMarked,
		o.OrderStatus,
	}
}

func (r *OrderRepository) GetAll(ctx context.Context) ([]models.RawOrderRecord, error) {
	query := `
        SELECT
            distance,
            order_placed_at,
            rating,
            kpt_duration_minutes,
            rider_wait_minutes,
            order_ready_marked,
            order_status
        FROM orders_dataset
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.RawOrderRecord
	for rows.Next() {
		var o models.RawOrderRecord
		if err := rows.Scan(
			&o.Distance,
			&o.OrderPlacedAt,
			&o.Rating,
			&o.KPTDurationMinutes,
			&o.RiderWaitMinutes,
			&o.OrderReadyMarked,
			&o.OrderStatus,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Load implements dataset.Source.
func (r *OrderRepository) Load(ctx context.Context) ([]models.RawOrderRecord, error) {
	return r.GetAll(ctx)
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders_dataset").Scan(&count)
	return count, err
}

func (r *OrderRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, "DELETE FROM orders_dataset")
	return err
}
