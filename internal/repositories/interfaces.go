package repositories

import (
	"context"

	"github.com/chrisdamba/orderly/internal/models"
)

type OrderRepository interface {
	EnsureSchema(ctx context.Context) error
	BulkCreate(ctx context.Context, orders []models.RawOrderRecord) error
	GetAll(ctx context.Context) ([]models.RawOrderRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type PredictionRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, rec models.PredictionRecord) error
	BulkCreate(ctx context.Context, recs []models.PredictionRecord) error
	Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	Count(ctx context.Context) (int, error)
}
