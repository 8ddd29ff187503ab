package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chrisdamba/orderly/internal/analytics"
	"github.com/chrisdamba/orderly/internal/classifier"
	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/features"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/chrisdamba/orderly/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel answers with fixed probabilities and remembers its input.
type stubModel struct {
	classes []int
	probs   []float64
	err     error
	seen    features.Vector
}

func (m *stubModel) Predict(v features.Vector) (int, error) {
	m.seen = v
	if m.err != nil {
		return 0, m.err
	}
	best := 0
	for i, p := range m.probs {
		if p > m.probs[best] {
			best = i
		}
	}
	return m.classes[best], nil
}

func (m *stubModel) PredictProbabilities(features.Vector) ([]float64, error) {
	return m.probs, nil
}

func (m *stubModel) Classes() []int               { return m.classes }
func (m *stubModel) FeatureImportances() []float64 { return []float64{0.25, 0.25, 0.25, 0.25} }

type recordingPublisher struct {
	got []models.PredictionRecord
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, rec models.PredictionRecord) error {
	p.got = append(p.got, rec)
	return p.err
}

func TestPredictReturnsResultAndRecords(t *testing.T) {
	model := &stubModel{classes: []int{0, 1}, probs: []float64{0.2, 0.8}}
	preds := store.NewPredictionStore(0)
	fixed := time.Date(2024, 9, 10, 9, 0, 0, 0, time.UTC)
	adapter := NewAdapter(classifier.NewStaticProvider(model), preds, WithClock(func() time.Time { return fixed }))

	res, err := adapter.Predict(context.Background(), Request{
		Distance:      Text("2km"),
		KPTDuration:   Number(10),
		RiderWaitTime: Text("3"),
		OrderTime:     Text("9:00 AM"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.PredictedLabel)
	assert.Equal(t, "Good", res.Performance)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Equal(t, 0.8, res.ProbabilityGood)
	assert.NotEmpty(t, res.PredictionID)
	assert.Equal(t, features.Vector{2, 10, 3, 9}, model.seen)

	snap := preds.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, models.PredictionRecord{
		ID:                   res.PredictionID,
		Distance:             2,
		KPTDurationMinutes:   10,
		RiderWaitMinutes:     3,
		OrderHour:            9,
		PredictedPerformance: 1,
		Confidence:           0.8,
		CreatedAt:            fixed,
	}, snap[0])
}

func TestPredictAppliesDefaults(t *testing.T) {
	model := &stubModel{classes: []int{0, 1}, probs: []float64{0.7, 0.3}}
	adapter := NewAdapter(classifier.NewStaticProvider(model), store.NewPredictionStore(0))

	res, err := adapter.Predict(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, features.Vector{1, 15, 5, 12}, model.seen)
	assert.Equal(t, "Poor", res.Performance)
	assert.Equal(t, 0.7, res.Confidence)
	assert.Equal(t, 0.3, res.ProbabilityGood)
}

func TestPredictSingleClassModel(t *testing.T) {
	model := &stubModel{classes: []int{1}, probs: []float64{1}}
	adapter := NewAdapter(classifier.NewStaticProvider(model), store.NewPredictionStore(0))

	res, err := adapter.Predict(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.ProbabilityGood)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestPredictMalformedFieldLeavesStoreUntouched(t *testing.T) {
	preds := store.NewPredictionStore(0)
	adapter := NewAdapter(classifier.NewStaticProvider(&stubModel{classes: []int{0, 1}, probs: []float64{0.5, 0.5}}), preds)

	for _, req := range []Request{
		{KPTDuration: Text("fast")},
		{RiderWaitTime: Text("NaN")},
		{KPTDuration: Text("Inf")},
	} {
		_, err := adapter.Predict(context.Background(), req)
		var ierr *Error
		require.ErrorAs(t, err, &ierr)
		assert.True(t, ierr.InvalidInput())
	}
	assert.Equal(t, 0, preds.Len())
}

func TestPredictModelFailure(t *testing.T) {
	preds := store.NewPredictionStore(0)
	adapter := NewAdapter(classifier.NewStaticProvider(&stubModel{classes: []int{0, 1}, err: errors.New("boom")}), preds)

	_, err := adapter.Predict(context.Background(), Request{})
	var ierr *Error
	require.ErrorAs(t, err, &ierr)
	assert.False(t, ierr.InvalidInput())
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 0, preds.Len())
}

func TestPredictModelUnavailable(t *testing.T) {
	preds := store.NewPredictionStore(0)
	provider := classifier.NewProvider("", dataset.NewCache(dataset.StaticSource(nil)), classifier.DefaultOptions())
	adapter := NewAdapter(provider, preds)

	_, err := adapter.Predict(context.Background(), Request{})
	assert.ErrorIs(t, err, classifier.ErrModelUnavailable)
	assert.Equal(t, 0, preds.Len())
}

func TestPredictPublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	preds := store.NewPredictionStore(0)
	adapter := NewAdapter(classifier.NewStaticProvider(&stubModel{classes: []int{0, 1}, probs: []float64{0.1, 0.9}}), preds, WithPublisher(pub))

	res, err := adapter.Predict(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, pub.got, 1)
	assert.Equal(t, res.PredictionID, pub.got[0].ID)
	assert.Equal(t, 1, preds.Len())
}

func TestPredictThenAnalyzeIsMonotonic(t *testing.T) {
	rows := []models.RawOrderRecord{
		{Distance: "1km", OrderPlacedAt: "1:00 PM", OrderReadyMarked: "Correctly", OrderStatus: "Delivered"},
		{Distance: "5km", OrderPlacedAt: "8:00 PM", OrderReadyMarked: "Incorrectly", OrderStatus: "Delivered"},
	}
	preds := store.NewPredictionStore(0)
	agg := analytics.NewAggregator(dataset.NewCache(dataset.StaticSource(rows)), preds)
	adapter := NewAdapter(classifier.NewStaticProvider(&stubModel{classes: []int{0, 1}, probs: []float64{0.35, 0.65}}), preds)

	before := agg.Summarize(context.Background())
	res, err := adapter.Predict(context.Background(), Request{OrderTime: Text("9:00 AM")})
	require.NoError(t, err)
	after := agg.Summarize(context.Background())

	assert.Equal(t, before.PredictionsMade+1, after.PredictionsMade)
	assert.Equal(t, before.PerformanceDistribution[res.PredictedLabel]+1, after.PerformanceDistribution[res.PredictedLabel])
	assert.Equal(t, 1, after.PeakHours[9])
}

func TestPredictWithTrainedForest(t *testing.T) {
	var raw []models.RawOrderRecord
	for i := 0; i < 200; i++ {
		rating := 3 + float64(i%7)/5
		kpt := 5 + float64(i%30)
		raw = append(raw, models.RawOrderRecord{
			Distance:           []string{"1km", "2km", "3km", "<1km"}[i%4],
			OrderPlacedAt:      []string{"9:00 AM", "1:00 PM", "8:00 PM"}[i%3],
			Rating:             &rating,
			KPTDurationMinutes: &kpt,
			OrderReadyMarked:   "Correctly",
		})
	}
	forest, _, err := classifier.Train(context.Background(), dataset.Clean(raw).Records, classifier.TrainOptions{Options: classifier.Options{NTrees: 25, Seed: 42}})
	require.NoError(t, err)

	adapter := NewAdapter(classifier.NewStaticProvider(forest), store.NewPredictionStore(0))
	res, err := adapter.Predict(context.Background(), Request{
		Distance:      Text("2km"),
		KPTDuration:   Number(10),
		RiderWaitTime: Number(3),
		OrderTime:     Text("9:00 AM"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Good", res.Performance)
	assert.Greater(t, res.ProbabilityGood, 0.5)
}
