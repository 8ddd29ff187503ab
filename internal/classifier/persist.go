package classifier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrisdamba/orderly/internal/features"
	"github.com/goccy/go-json"
)

// Encode writes the forest as JSON.
func (f *Forest) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(f)
}

// Save writes the forest to path through a temporary file so readers never
// see a partial model.
func (f *Forest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := f.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func Decode(r io.Reader) (*Forest, error) {
	var f Forest
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func Load(path string) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}

// validate rejects models trained on a different feature layout.
func (f *Forest) validate() error {
	if err := features.MatchesNames(f.FeatureNames); err != nil {
		return fmt.Errorf("model feature layout: %w", err)
	}
	if len(f.Trees) == 0 || len(f.ClassLabels) == 0 {
		return fmt.Errorf("model has %d trees and %d classes", len(f.Trees), len(f.ClassLabels))
	}
	if len(f.Importances) != features.NumFeatures {
		return fmt.Errorf("model has %d feature importances", len(f.Importances))
	}
	for i, t := range f.Trees {
		if t == nil {
			return fmt.Errorf("tree %d is empty", i)
		}
		if err := t.check(len(f.ClassLabels)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (n *Node) check(numClasses int) error {
	if n == nil {
		return errors.New("missing node")
	}
	if n.IsLeaf {
		if len(n.Counts) != numClasses {
			return fmt.Errorf("leaf has %d class counts, want %d", len(n.Counts), numClasses)
		}
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("split on feature %d is missing a branch", n.Feature)
	}
	if n.Feature < 0 || n.Feature >= features.NumFeatures {
		return fmt.Errorf("split on unknown feature %d", n.Feature)
	}
	if err := n.Left.check(numClasses); err != nil {
		return err
	}
	return n.Right.check(numClasses)
}
