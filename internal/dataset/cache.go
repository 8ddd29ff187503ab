package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/metrics"
	"github.com/chrisdamba/orderly/internal/models"
)

// Batch is an immutable cleaned dataset. Callers must not modify Records.
type Batch struct {
	Result
	LoadedAt time.Time
}

func (b *Batch) Len() int {
	return len(b.Records)
}

// Cache holds the process-wide cleaned dataset. The first Get loads it;
// afterwards it only changes through Reload.
type Cache struct {
	source  Source
	current atomic.Pointer[Batch]
	loadMu  sync.Mutex
}

func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

func (c *Cache) Get(ctx context.Context) (*Batch, error) {
	if b := c.current.Load(); b != nil {
		return b, nil
	}
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if b := c.current.Load(); b != nil {
		return b, nil
	}
	return c.load(ctx)
}

// Reload replaces the cached batch. On failure the previous batch stays.
func (c *Cache) Reload(ctx context.Context) (*Batch, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	return c.load(ctx)
}

// Peek returns the cached batch without loading.
func (c *Cache) Peek() *Batch {
	return c.current.Load()
}

func (c *Cache) load(ctx context.Context) (*Batch, error) {
	start := time.Now()
	raw, err := c.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrDataUnavailable)
	}

	b := &Batch{Result: Clean(raw), LoadedAt: time.Now()}
	c.current.Store(b)
	metrics.DatasetRows.Set(float64(b.Len()))

	ev := logging.Info().
		Int("rows", b.Len()).
		Float64("kpt_median", b.KPTMedian).
		Float64("rider_wait_median", b.RiderWaitMedian).
		Dur("took", time.Since(start))
	if b.KPTFallback || b.RiderWaitFallback {
		ev = ev.Bool("kpt_fallback", b.KPTFallback).Bool("rider_wait_fallback", b.RiderWaitFallback)
	}
	ev.Msg("dataset loaded")
	return b, nil
}

// StaticSource serves a fixed slice, for tests and generated data.
type StaticSource []models.RawOrderRecord

func (s StaticSource) Load(context.Context) ([]models.RawOrderRecord, error) {
	return s, nil
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]models.RawOrderRecord, error)

func (f SourceFunc) Load(ctx context.Context) ([]models.RawOrderRecord, error) {
	return f(ctx)
}
