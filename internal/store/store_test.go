package store

import (
	"sync"
	"testing"

	"github.com/chrisdamba/orderly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(hour int) models.PredictionRecord {
	return models.PredictionRecord{OrderHour: hour, Distance: float64(hour), Confidence: 0.9}
}

func TestAppendAndSnapshot(t *testing.T) {
	s := NewPredictionStore(0)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Snapshot())

	s.Append(rec(1))
	s.Append(rec(2))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 1, snap[0].OrderHour)
	assert.Equal(t, 2, snap[1].OrderHour)

	snap[0].OrderHour = 99
	assert.Equal(t, 1, s.Snapshot()[0].OrderHour, "snapshots are copies")
}

func TestRecent(t *testing.T) {
	s := NewPredictionStore(0)
	for h := 0; h < 15; h++ {
		s.Append(rec(h))
	}

	recent := s.Recent(10)
	require.Len(t, recent, 10)
	assert.Equal(t, 5, recent[0].OrderHour)
	assert.Equal(t, 14, recent[9].OrderHour)

	assert.Len(t, s.Recent(100), 15)
	assert.NotNil(t, s.Recent(0))
	assert.Empty(t, NewPredictionStore(0).Recent(10))
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	s := NewPredictionStore(3)
	for h := 1; h <= 5; h++ {
		s.Append(rec(h))
	}

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{snap[0].OrderHour, snap[1].OrderHour, snap[2].OrderHour})
	assert.Equal(t, 2, s.Evicted())
}

func TestCapacityWindowSlidesWithoutGrowing(t *testing.T) {
	const capacity = 4
	s := NewPredictionStore(capacity)
	for h := 0; h < 50; h++ {
		s.Append(rec(h))

		snap := s.Snapshot()
		want := min(h+1, capacity)
		require.Len(t, snap, want)
		assert.Equal(t, want, s.Len())
		for i, r := range snap {
			assert.Equal(t, h+1-want+i, r.OrderHour)
		}
		recent := s.Recent(2)
		assert.Equal(t, h, recent[len(recent)-1].OrderHour)
		assert.LessOrEqual(t, len(s.buf), 2*capacity)
	}
	assert.Equal(t, 50-capacity, s.Evicted())
}

func TestConcurrentAppendAndRead(t *testing.T) {
	s := NewPredictionStore(0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Append(rec(i % 24))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				for _, r := range s.Snapshot() {
					assert.Equal(t, 0.9, r.Confidence)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, s.Len())
}
