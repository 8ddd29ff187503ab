// Package factories generates synthetic order history for demos and tests.
package factories

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/chrisdamba/orderly/internal/models"
	"github.com/jaswdr/faker"
)

// hourWeights skews order times towards lunch and dinner.
var hourWeights = [24]float64{
	0.5, 0.3, 0.2, 0.1, 0.1, 0.2, 0.5, 1, 2, 2.5, 3, 4,
	6, 6.5, 5, 3, 2.5, 3, 4.5, 6.5, 7, 6, 4, 2,
}

type OrderFactoryConfig struct {
	Seed        int64
	StartDate   time.Time
	EndDate     time.Time
	MissingRate float64 // share of rating/KPT/wait cells left blank
}

func DefaultOrderFactoryConfig() OrderFactoryConfig {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	return OrderFactoryConfig{
		Seed:        42,
		StartDate:   end.AddDate(0, -3, 0),
		EndDate:     end,
		MissingRate: 0.02,
	}
}

type OrderFactory struct {
	cfg  OrderFactoryConfig
	fake faker.Faker
	rng  *rand.Rand
}

func NewOrderFactory(cfg OrderFactoryConfig) *OrderFactory {
	if !cfg.EndDate.After(cfg.StartDate) {
		cfg.EndDate = cfg.StartDate.AddDate(0, 0, 1)
	}
	return &OrderFactory{
		cfg:  cfg,
		fake: faker.NewWithSeed(rand.NewSource(cfg.Seed)),
		rng:  rand.New(rand.NewSource(cfg.Seed + 1)),
	}
}

// CreateOrder returns one raw dataset row. Slow kitchens get worse ratings
// so the generated history carries a learnable signal.
func (of *OrderFactory) CreateOrder() models.RawOrderRecord {
	kpt := clamp(of.rng.NormFloat64()*7+16, 3, 60)
	wait := clamp(of.rng.NormFloat64()*3+5, 0, 30)
	rating := clamp(4.6-0.06*(kpt-12)+of.rng.NormFloat64()*0.4, 1, 5)

	order := models.RawOrderRecord{
		Distance:         of.distance(),
		OrderPlacedAt:    of.placedAt(),
		OrderReadyMarked: of.readyMarked(),
		OrderStatus:      of.status(),
	}
	order.Rating = of.maybe(round(rating, 1))
	order.KPTDurationMinutes = of.maybe(round(kpt, 2))
	order.RiderWaitMinutes = of.maybe(round(wait, 2))
	return order
}

func (of *OrderFactory) CreateOrders(n int) []models.RawOrderRecord {
	orders := make([]models.RawOrderRecord, n)
	for i := range orders {
		orders[i] = of.CreateOrder()
	}
	return orders
}

func (of *OrderFactory) distance() string {
	if of.rng.Float64() < 0.12 {
		return "<1km"
	}
	return fmt.Sprintf("%dkm", of.fake.IntBetween(1, 8))
}

// placedAt formats like "7:42 PM, 14 Oct".
func (of *OrderFactory) placedAt() string {
	day := of.fake.Time().TimeBetween(of.cfg.StartDate, of.cfg.EndDate)
	hour := weightedHour(of.rng)
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, of.rng.Intn(60), 0, 0, time.UTC)
	return t.Format("3:04 PM, 2 Jan")
}

func (of *OrderFactory) readyMarked() string {
	switch r := of.rng.Float64(); {
	case r < 0.88:
		return models.OrderReadyCorrectly
	case r < 0.96:
		return "Incorrectly"
	default:
		return "Missed"
	}
}

func (of *OrderFactory) status() string {
	switch r := of.rng.Float64(); {
	case r < 0.93:
		return models.OrderStatusDelivered
	case r < 0.98:
		return "Cancelled"
	default:
		return "Rejected"
	}
}

func (of *OrderFactory) maybe(v float64) *float64 {
	if of.rng.Float64() < of.cfg.MissingRate {
		return nil
	}
	return &v
}

func weightedHour(rng *rand.Rand) int {
	total := 0.0
	for _, w := range hourWeights {
		total += w
	}
	r := rng.Float64() * total
	for h, w := range hourWeights {
		if r < w {
			return h
		}
		r -= w
	}
	return len(hourWeights) - 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
