package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chrisdamba/orderly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingSource(rows []models.RawOrderRecord, calls *atomic.Int32) Source {
	return SourceFunc(func(context.Context) ([]models.RawOrderRecord, error) {
		calls.Add(1)
		return rows, nil
	})
}

func TestCacheLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	cache := NewCache(countingSource([]models.RawOrderRecord{{Distance: "1 km"}}, &calls))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 1, b.Len())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheReloadReplacesBatch(t *testing.T) {
	rows := []models.RawOrderRecord{{Distance: "1 km"}}
	cache := NewCache(SourceFunc(func(context.Context) ([]models.RawOrderRecord, error) {
		return rows, nil
	}))

	first, err := cache.Get(context.Background())
	require.NoError(t, err)

	rows = append(rows, models.RawOrderRecord{Distance: "2 km"})
	second, err := cache.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Len(), "published batches never change")
	assert.Equal(t, 2, second.Len())
	assert.Same(t, second, cache.Peek())
}

func TestCacheEmptyDatasetIsUnavailable(t *testing.T) {
	cache := NewCache(StaticSource(nil))

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Nil(t, cache.Peek())
}

func TestCacheReloadFailureKeepsPrevious(t *testing.T) {
	fail := false
	cache := NewCache(SourceFunc(func(context.Context) ([]models.RawOrderRecord, error) {
		if fail {
			return nil, errors.New("disk gone")
		}
		return []models.RawOrderRecord{{Distance: "1 km"}}, nil
	}))
	before, err := cache.Get(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = cache.Reload(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Same(t, before, cache.Peek())
}
