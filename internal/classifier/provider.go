package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Provider resolves the model on first use: it loads ModelPath when the file
// exists, otherwise trains on the cached dataset and saves the result there.
// A failed attempt is not remembered, so a later call tries again.
type Provider struct {
	ModelPath string
	Data      *dataset.Cache
	Options   Options

	mu      sync.RWMutex
	model   Classifier
	resolve singleflight.Group
}

func NewProvider(modelPath string, data *dataset.Cache, opts Options) *Provider {
	return &Provider{ModelPath: modelPath, Data: data, Options: opts}
}

// NewStaticProvider always serves model.
func NewStaticProvider(model Classifier) *Provider {
	return &Provider{model: model}
}

// Get returns the served model, resolving it on first use. Concurrent callers
// share one load or training run; each stops waiting when its own ctx ends.
func (p *Provider) Get(ctx context.Context) (Classifier, error) {
	if model := p.current(); model != nil {
		return model, nil
	}

	ch := p.resolve.DoChan("model", func() (interface{}, error) {
		if model := p.current(); model != nil {
			return model, nil
		}
		// the run outlives a caller that gives up
		model, err := p.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.model == nil {
			p.model = model
		}
		return p.model, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, res.Err)
		}
		return res.Val.(Classifier), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, ctx.Err())
	}
}

func (p *Provider) current() Classifier {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Set swaps the served model, e.g. after retraining.
func (p *Provider) Set(model Classifier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
}

func (p *Provider) load(ctx context.Context) (Classifier, error) {
	if p.ModelPath != "" {
		forest, err := Load(p.ModelPath)
		if err == nil {
			logging.Info().Str("path", p.ModelPath).Int("trees", len(forest.Trees)).Msg("model loaded")
			return forest, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p.ModelPath, err)
		}
	}
	if p.Data == nil {
		return nil, errors.New("no model file and no dataset to train on")
	}

	batch, err := p.Data.Get(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	forest, report, err := Train(ctx, batch.Records, TrainOptions{Options: p.Options})
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	logging.Info().
		Int("rows", report.TrainRows).
		Int("trees", len(forest.Trees)).
		Dur("took", time.Since(start)).
		Msg("model trained")

	if p.ModelPath != "" {
		if err := forest.Save(p.ModelPath); err != nil {
			logging.Warn().Err(err).Str("path", p.ModelPath).Msg("could not save trained model")
		}
	}
	return forest, nil
}
