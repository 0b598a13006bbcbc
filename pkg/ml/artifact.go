package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion tags the persisted artifact layout. Bump it whenever the
// feature encoding or the on-disk format changes.
const SchemaVersion = 1

// TrainConfig controls corpus generation and forest fitting.
type TrainConfig struct {
	Samples         int
	Seed            uint64
	Trees           int
	MaxDepth        int
	MinSamplesLeaf  int
	Workers         int
	HoldoutFraction float64
}

// DefaultTrainConfig mirrors the bootstrap model: 1000 samples, seed 42,
// 100 fully grown trees, 20% holdout for the reported metrics.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Samples:         1000,
		Seed:            42,
		Trees:           100,
		MinSamplesLeaf:  1,
		HoldoutFraction: 0.2,
	}
}

func (c TrainConfig) forestParams() ForestParams {
	return ForestParams{
		Trees:          c.Trees,
		MaxDepth:       c.MaxDepth,
		MinSamplesLeaf: c.MinSamplesLeaf,
		Seed:           c.Seed,
		Workers:        c.Workers,
	}
}

// Metadata describes a trained artifact.
type Metadata struct {
	ArtifactID    string    `json:"artifact_id"`
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	Seed          uint64    `json:"seed"`
	Samples       int       `json:"samples"`
	Trees         int       `json:"trees"`
	Holdout       Metrics   `json:"holdout"`
}

// Artifact is the scaler and forest pair. It is never mutated after Train
// returns; retraining produces a new Artifact.
type Artifact struct {
	Meta   Metadata
	Model  *RandomForest
	Scaler *Scaler
}

// Predict scales v and runs the forest.
func (a *Artifact) Predict(v FeatureVector) (float64, error) {
	scaled, err := a.Scaler.Transform(v[:])
	if err != nil {
		return 0, err
	}
	return a.Model.Predict(scaled)
}

// Train fits a scaler on every sample, then fits the forest on the scaled
// features. When cfg.HoldoutFraction > 0 a separate forest is first fit on
// the training split to fill Meta.Holdout; the returned model always uses
// the full corpus.
func Train(ctx context.Context, samples []TrainingSample, cfg TrainConfig) (*Artifact, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("train: need at least 2 samples, got %d", len(samples))
	}

	raw := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		raw[i] = s.Features.Slice()
		y[i] = s.Demand
	}

	scaler, err := FitScaler(raw)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	x, err := scaler.TransformAll(raw)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	var holdout Metrics
	if cfg.HoldoutFraction > 0 {
		trainIdx, testIdx := holdoutSplit(len(x), cfg.HoldoutFraction, cfg.Seed)
		evalForest, err := FitForest(ctx, pick(x, trainIdx), pick(y, trainIdx), cfg.forestParams())
		if err != nil {
			return nil, fmt.Errorf("train holdout: %w", err)
		}
		testX, testY := pick(x, testIdx), pick(y, testIdx)
		pred := make([]float64, len(testX))
		for i, row := range testX {
			if pred[i], err = evalForest.Predict(row); err != nil {
				return nil, fmt.Errorf("train holdout: %w", err)
			}
		}
		holdout = score(pred, testY)
	}

	forest, err := FitForest(ctx, x, y, cfg.forestParams())
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	return &Artifact{
		Meta: Metadata{
			ArtifactID:    uuid.NewString(),
			SchemaVersion: SchemaVersion,
			CreatedAt:     time.Now().UTC(),
			Seed:          cfg.Seed,
			Samples:       len(samples),
			Trees:         len(forest.Trees),
			Holdout:       holdout,
		},
		Model:  forest,
		Scaler: scaler,
	}, nil
}

// TrainSynthetic generates the bootstrap corpus and trains on it.
func TrainSynthetic(ctx context.Context, cfg TrainConfig) (*Artifact, error) {
	return Train(ctx, SyntheticCorpus(cfg.Samples, cfg.Seed), cfg)
}

func (a *Artifact) validate() error {
	if a.Model == nil || a.Scaler == nil {
		return fmt.Errorf("artifact is missing its model or scaler")
	}
	if err := a.Scaler.validate(); err != nil {
		return err
	}
	if a.Scaler.Dims() != FeatureCount {
		return fmt.Errorf("scaler has %d dimensions, want %d", a.Scaler.Dims(), FeatureCount)
	}
	if a.Model.Features != FeatureCount {
		return fmt.Errorf("model has %d features, want %d", a.Model.Features, FeatureCount)
	}
	return a.Model.validate()
}
