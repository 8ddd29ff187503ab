// Package store keeps the prediction history for the life of the process.
package store

import (
	"sync"

	"github.com/chrisdamba/orderly/internal/metrics"
	"github.com/chrisdamba/orderly/internal/models"
)

// PredictionStore is an append-only history of predictions. With a positive
// capacity the oldest records are dropped once it is full.
type PredictionStore struct {
	mu sync.RWMutex
	// live records are buf[start:]; the zeroed slots in front are reclaimed
	// in one copy once start reaches capacity
	buf      []models.PredictionRecord
	start    int
	capacity int
	evicted  int
}

func NewPredictionStore(capacity int) *PredictionStore {
	if capacity < 0 {
		capacity = 0
	}
	return &PredictionStore{capacity: capacity}
}

func (s *PredictionStore) Append(rec models.PredictionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity > 0 && len(s.buf)-s.start >= s.capacity {
		s.buf[s.start] = models.PredictionRecord{}
		s.start++
		s.evicted++
		if s.start >= s.capacity {
			n := copy(s.buf, s.buf[s.start:])
			clear(s.buf[n:])
			s.buf = s.buf[:n]
			s.start = 0
		}
	}
	s.buf = append(s.buf, rec)
	metrics.PredictionStoreSize.Set(float64(len(s.buf) - s.start))
}

func (s *PredictionStore) records() []models.PredictionRecord {
	return s.buf[s.start:]
}

// Snapshot returns a copy of every record in insertion order.
func (s *PredictionStore) Snapshot() []models.PredictionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PredictionRecord, len(s.records()))
	copy(out, s.records())
	return out
}

// Recent returns up to n of the newest records, oldest first.
func (s *PredictionStore) Recent(n int) []models.PredictionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return []models.PredictionRecord{}
	}
	records := s.records()
	start := max(len(records)-n, 0)
	out := make([]models.PredictionRecord, len(records)-start)
	copy(out, records[start:])
	return out
}

func (s *PredictionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf) - s.start
}

// Evicted counts records dropped because of the capacity limit.
func (s *PredictionStore) Evicted() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}
