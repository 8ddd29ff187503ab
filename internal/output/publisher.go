package output

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/metrics"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/chrisdamba/orderly/internal/repositories"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

// EventPublisher encodes prediction records as PredictionEvents and writes
// them to a Destination topic.
type EventPublisher struct {
	dest  Destination
	topic string
}

func NewEventPublisher(dest Destination, topic string) *EventPublisher {
	return &EventPublisher{dest: dest, topic: topic}
}

func (p *EventPublisher) Publish(ctx context.Context, rec models.PredictionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := json.Marshal(models.NewPredictionEvent(rec))
	if err != nil {
		return fmt.Errorf("encode prediction event: %w", err)
	}
	return p.dest.WriteMessage(p.topic, msg)
}

func (p *EventPublisher) Close() error {
	return p.dest.Close()
}

// PostgresPublisher mirrors prediction records into the predictions table.
type PostgresPublisher struct {
	repo repositories.PredictionRepository
}

func NewPostgresPublisher(repo repositories.PredictionRepository) *PostgresPublisher {
	return &PostgresPublisher{repo: repo}
}

func (p *PostgresPublisher) Publish(ctx context.Context, rec models.PredictionRecord) error {
	if err := p.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("insert prediction %s: %w", rec.ID, err)
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, rec models.PredictionRecord) error
}

type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Interval         time.Duration
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		Interval:         time.Minute,
	}
}

// BreakerPublisher stops calling a failing sink for OpenTimeout after
// FailureThreshold consecutive failures. Every failed or skipped event is
// counted in the sink failure metric.
type BreakerPublisher struct {
	next    Publisher
	name    string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerPublisher(next Publisher, s BreakerSettings) *BreakerPublisher {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("sink", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("sink circuit breaker changed state")
		},
	}
	return &BreakerPublisher{
		next:    next,
		name:    s.Name,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *BreakerPublisher) Publish(ctx context.Context, rec models.PredictionRecord) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Publish(ctx, rec)
	})
	if err != nil {
		metrics.RecordSinkFailure(b.name)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s sink unavailable: %w", b.name, err)
		}
		return err
	}
	return nil
}

func (b *BreakerPublisher) State() gobreaker.State {
	return b.breaker.State()
}
