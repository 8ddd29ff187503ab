// Package inference turns a predict request into a classifier call and
// records the outcome.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/orderly/internal/classifier"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/metrics"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/google/uuid"
)

type ModelSource interface {
	Get(ctx context.Context) (classifier.Classifier, error)
}

type Recorder interface {
	Append(rec models.PredictionRecord)
}

// Publisher mirrors prediction records to an outside system.
type Publisher interface {
	Publish(ctx context.Context, rec models.PredictionRecord) error
}

type Result struct {
	PredictionID    string  `json:"prediction_id"`
	PredictedLabel  int     `json:"predicted_label"`
	Performance     string  `json:"performance"`
	Confidence      float64 `json:"confidence"`
	ProbabilityGood float64 `json:"probability_good"`
}

type Adapter struct {
	source    ModelSource
	store     Recorder
	publisher Publisher
	now       func() time.Time
}

type Option func(*Adapter)

func WithPublisher(p Publisher) Option {
	return func(a *Adapter) { a.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

func NewAdapter(source ModelSource, store Recorder, opts ...Option) *Adapter {
	a := &Adapter{source: source, store: store, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Predict classifies one request. The store is only written after the
// model has answered; publishing failures are logged and otherwise ignored.
func (a *Adapter) Predict(ctx context.Context, req Request) (Result, error) {
	v, err := req.Vector()
	if err != nil {
		metrics.RecordInferenceError("invalid_input")
		return Result{}, err
	}

	model, err := a.source.Get(ctx)
	if err != nil {
		metrics.RecordInferenceError("model_unavailable")
		return Result{}, err
	}

	label, err := model.Predict(v)
	if err != nil {
		metrics.RecordInferenceError("inference")
		return Result{}, &Error{Op: "predict", Err: err}
	}
	probs, err := model.PredictProbabilities(v)
	if err != nil {
		metrics.RecordInferenceError("inference")
		return Result{}, &Error{Op: "predict probabilities", Err: err}
	}
	classes := model.Classes()
	if len(probs) == 0 || len(probs) != len(classes) {
		metrics.RecordInferenceError("inference")
		return Result{}, &Error{Op: "predict probabilities", Err: fmt.Errorf("got %d probabilities for %d classes", len(probs), len(classes))}
	}

	confidence := probs[0]
	for _, p := range probs[1:] {
		confidence = max(confidence, p)
	}
	probabilityGood := 0.5
	if len(probs) > 1 {
		probabilityGood = 0
		for i, c := range classes {
			if c == models.PerformanceGood {
				probabilityGood = probs[i]
			}
		}
	}

	rec := models.PredictionRecord{
		ID:                   uuid.NewString(),
		Distance:             v.DistanceKm(),
		KPTDurationMinutes:   v.KPTMinutes(),
		RiderWaitMinutes:     v.RiderWaitMinutes(),
		OrderHour:            v.Hour(),
		PredictedPerformance: label,
		Confidence:           confidence,
		CreatedAt:            a.now().UTC(),
	}
	a.store.Append(rec)

	performance := models.PerformanceName(label)
	metrics.RecordPrediction(performance)

	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, rec); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("prediction_id", rec.ID).Msg("could not publish prediction event")
		}
	}

	return Result{
		PredictionID:    rec.ID,
		PredictedLabel:  label,
		Performance:     performance,
		Confidence:      confidence,
		ProbabilityGood: probabilityGood,
	}, nil
}
