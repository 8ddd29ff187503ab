package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/chrisdamba/orderly/internal/features"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

type Options struct {
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int // tried per split, 0 means floor(sqrt(features))
	Seed            int64
}

func DefaultOptions() Options {
	return Options{NTrees: 100, MaxDepth: 12, MinSamplesSplit: 2, Seed: 42}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NTrees <= 0 {
		o.NTrees = d.NTrees
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MinSamplesSplit < 2 {
		o.MinSamplesSplit = d.MinSamplesSplit
	}
	if o.MaxFeatures <= 0 || o.MaxFeatures > features.NumFeatures {
		o.MaxFeatures = int(math.Sqrt(features.NumFeatures))
	}
	return o
}

// Forest is a bagged ensemble of Gini decision trees.
type Forest struct {
	FeatureNames []string  `json:"feature_names"`
	ClassLabels  []int     `json:"classes"`
	Importances  []float64 `json:"feature_importances"`
	Trees        []*Node   `json:"trees"`
	Options      Options   `json:"options"`
}

var _ Classifier = (*Forest)(nil)

// Fit grows opts.NTrees trees, each on a bootstrap sample of the rows. The
// result depends only on the data and opts.Seed.
func Fit(ctx context.Context, x []features.Vector, y []int, opts Options) (*Forest, error) {
	return fit(ctx, x, y, opts, nil)
}

// fit calls onTree, if set, from the worker goroutines after each tree.
func fit(ctx context.Context, x []features.Vector, y []int, opts Options, onTree func()) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d feature rows but %d labels", len(x), len(y))
	}
	opts = opts.withDefaults()

	classes, yIdx := encodeLabels(y)
	f := &Forest{
		FeatureNames: features.Names[:],
		ClassLabels:  classes,
		Trees:        make([]*Node, opts.NTrees),
		Options:      opts,
	}

	master := rand.New(rand.NewSource(opts.Seed))
	seeds := make([]int64, opts.NTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}
	importances := make([][features.NumFeatures]float64, opts.NTrees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range f.Trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			rows := make([]int, len(x))
			for j := range rows {
				rows[j] = rng.Intn(len(x))
			}
			b := &treeBuilder{
				x:           x,
				y:           yIdx,
				numClasses:  len(classes),
				maxDepth:    opts.MaxDepth,
				minSplit:    opts.MinSamplesSplit,
				maxFeatures: opts.MaxFeatures,
				rng:         rng,
			}
			f.Trees[i] = b.build(rows)
			importances[i] = b.importance
			if onTree != nil {
				onTree()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.Importances = averageImportances(importances)
	return f, nil
}

// encodeLabels maps labels to dense class indexes in ascending label order.
func encodeLabels(y []int) ([]int, []int) {
	seen := map[int]bool{}
	for _, label := range y {
		seen[label] = true
	}
	var classes []int
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for i, label := range classes {
		index[label] = i
	}
	yIdx := make([]int, len(y))
	for i, label := range y {
		yIdx[i] = index[label]
	}
	return classes, yIdx
}

// averageImportances normalizes each tree's impurity decrease, averages the
// trees and normalizes again.
func averageImportances(perTree [][features.NumFeatures]float64) []float64 {
	out := make([]float64, features.NumFeatures)
	for _, imp := range perTree {
		row := imp
		if sum := floats.Sum(row[:]); sum > 0 {
			floats.Scale(1/sum, row[:])
			floats.Add(out, row[:])
		}
	}
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}

func (f *Forest) Classes() []int {
	return append([]int(nil), f.ClassLabels...)
}

func (f *Forest) FeatureImportances() []float64 {
	return append([]float64(nil), f.Importances...)
}

// PredictProbabilities averages the leaf class fractions of every tree.
func (f *Forest) PredictProbabilities(v features.Vector) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("feature %s is not a finite number", features.Names[i])
		}
	}

	probs := make([]float64, len(f.ClassLabels))
	frac := make([]float64, len(f.ClassLabels))
	for _, t := range f.Trees {
		leaf := t.leaf(v)
		total := floats.Sum(leaf.Counts)
		if total == 0 {
			continue
		}
		floats.ScaleTo(frac, 1/total, leaf.Counts)
		floats.Add(probs, frac)
	}
	floats.Scale(1/float64(len(f.Trees)), probs)
	return probs, nil
}

func (f *Forest) Predict(v features.Vector) (int, error) {
	probs, err := f.PredictProbabilities(v)
	if err != nil {
		return 0, err
	}
	return f.ClassLabels[floats.MaxIdx(probs)], nil
}
