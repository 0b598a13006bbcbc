package ml

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestParams configures random forest training.
type ForestParams struct {
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           uint64
	// Workers caps concurrent tree fits; <= 0 uses GOMAXPROCS.
	Workers int
}

// RandomForest averages bootstrap-trained regression trees.
type RandomForest struct {
	Features int               `json:"features"`
	Trees    []*RegressionTree `json:"trees"`
}

// FitForest trains params.Trees trees on (x, y). Every tree draws its bootstrap
// sample from its own PCG stream keyed by (Seed, tree index), so the fitted
// forest does not depend on goroutine scheduling.
func FitForest(ctx context.Context, x [][]float64, y []float64, params ForestParams) (*RandomForest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fit forest: empty corpus")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows but %d targets", len(x), len(y))
	}
	if params.Trees < 1 {
		return nil, fmt.Errorf("fit forest: need at least one tree, got %d", params.Trees)
	}
	features := len(x[0])
	for i, row := range x {
		if len(row) != features {
			return nil, fmt.Errorf("fit forest: row %d has %d features, want %d", i, len(row), features)
		}
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	treeParams := TreeParams{MaxDepth: params.MaxDepth, MinSamplesLeaf: params.MinSamplesLeaf}
	trees := make([]*RegressionTree, params.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(params.Seed, uint64(t)+1))
			idx := make([]int, len(x))
			for i := range idx {
				idx[i] = rng.IntN(len(x))
			}
			trees[t] = fitTree(x, y, idx, treeParams)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	return &RandomForest{Features: features, Trees: trees}, nil
}

// Predict returns the mean tree prediction for one scaled row.
func (f *RandomForest) Predict(v []float64) (float64, error) {
	if len(v) != f.Features {
		return 0, fmt.Errorf("forest expects %d features, got %d", f.Features, len(v))
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(v)
	}
	return sum / float64(len(f.Trees)), nil
}

func (f *RandomForest) validate() error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i, t := range f.Trees {
		if t == nil {
			return fmt.Errorf("tree %d is missing", i)
		}
		if err := t.validate(f.Features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
