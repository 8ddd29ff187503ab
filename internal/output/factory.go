package output

import (
	"context"
	"fmt"

	"github.com/chrisdamba/orderly/internal/models"
	"github.com/chrisdamba/orderly/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sink is a Publisher that owns resources released by Close.
type Sink struct {
	Publisher
	close func() error
}

func (s *Sink) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewSink builds the publisher selected by output_destination, wrapped in a
// circuit breaker. It returns nil for "none".
func NewSink(ctx context.Context, cfg *models.Config, pool *pgxpool.Pool) (*Sink, error) {
	switch cfg.OutputDestination {
	case "", "none":
		return nil, nil
	case "console":
		pub := NewEventPublisher(NewConsoleOutput(nil), cfg.KafkaTopic)
		return &Sink{Publisher: pub, close: pub.Close}, nil
	case "kafka":
		dest, err := newKafkaDestination(cfg)
		if err != nil {
			return nil, err
		}
		pub := NewEventPublisher(dest, cfg.KafkaTopic)
		return &Sink{
			Publisher: NewBreakerPublisher(pub, DefaultBreakerSettings("kafka")),
			close:     pub.Close,
		}, nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("postgres output requires postgres_dsn")
		}
		repo := postgres.NewPredictionRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("create predictions table: %w", err)
		}
		return &Sink{
			Publisher: NewBreakerPublisher(NewPostgresPublisher(repo), DefaultBreakerSettings("postgres")),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported output_destination: %s", cfg.OutputDestination)
	}
}

func newKafkaDestination(cfg *models.Config) (Destination, error) {
	// sarama for a local cluster, the confluent client for Confluent Cloud
	if cfg.KafkaUseLocal {
		return NewSaramaProducer(cfg)
	}
	return NewConfluentProducer(NewConfluentConfigMap(cfg))
}
