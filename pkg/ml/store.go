package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Persisted file names inside the store directory.
const (
	ManifestFile = "manifest.json"
	ModelFile    = "demand_model.json.zst"
	ScalerFile   = "scaler.json.zst"
)

// Load outcomes reported to a StoreObserver.
const (
	OutcomeLoaded       = "loaded"
	OutcomeNotFound     = "not_found"
	OutcomeIncompatible = "incompatible"
	OutcomeCorrupt      = "corrupt"
)

// StoreObserver receives store lifecycle events, e.g. for metrics.
type StoreObserver interface {
	ArtifactLoad(outcome string)
	ModelTrained(elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ArtifactLoad(string)              {}
func (nopObserver) ModelTrained(time.Duration, error) {}

type manifest struct {
	Metadata
	Files struct {
		Model  string `json:"model"`
		Scaler string `json:"scaler"`
	} `json:"files"`
}

type modelFile struct {
	ArtifactID string        `json:"artifact_id"`
	Forest     *RandomForest `json:"forest"`
}

type scalerFile struct {
	ArtifactID string  `json:"artifact_id"`
	Scaler     *Scaler `json:"scaler"`
}

// Store persists the current artifact in a directory.
type Store struct {
	dir      string
	cfg      TrainConfig
	logger   *zap.Logger
	observer StoreObserver
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithObserver attaches a StoreObserver.
func WithObserver(o StoreObserver) StoreOption {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewStore returns a Store rooted at dir that trains with cfg.
func NewStore(dir string, cfg TrainConfig, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		dir:      dir,
		cfg:      cfg,
		logger:   logger.Named("model_store"),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads the persisted artifact. It returns an error wrapping
// ErrArtifactNotFound, ErrArtifactIncompatible, or ErrArtifactCorrupt.
func (s *Store) Load() (*Artifact, error) {
	a, err := s.load()
	switch {
	case err == nil:
		s.observer.ArtifactLoad(OutcomeLoaded)
	case errors.Is(err, ErrArtifactNotFound):
		s.observer.ArtifactLoad(OutcomeNotFound)
	case errors.Is(err, ErrArtifactIncompatible):
		s.observer.ArtifactLoad(OutcomeIncompatible)
	default:
		s.observer.ArtifactLoad(OutcomeCorrupt)
	}
	return a, err
}

func (s *Store) load() (*Artifact, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactNotFound, err)
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrArtifactCorrupt, ManifestFile, err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: found version %d, want %d", ErrArtifactIncompatible, m.SchemaVersion, SchemaVersion)
	}
	if m.Files.Model == "" || m.Files.Scaler == "" {
		return nil, fmt.Errorf("%w: manifest does not name its files", ErrArtifactCorrupt)
	}

	var mf modelFile
	if err := readCompressedJSON(filepath.Join(s.dir, m.Files.Model), &mf); err != nil {
		return nil, err
	}
	var sf scalerFile
	if err := readCompressedJSON(filepath.Join(s.dir, m.Files.Scaler), &sf); err != nil {
		return nil, err
	}

	if mf.ArtifactID != m.ArtifactID || sf.ArtifactID != m.ArtifactID {
		return nil, fmt.Errorf("%w: scaler %q and model %q do not match manifest %q",
			ErrArtifactCorrupt, sf.ArtifactID, mf.ArtifactID, m.ArtifactID)
	}

	a := &Artifact{Meta: m.Metadata, Model: mf.Forest, Scaler: sf.Scaler}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactCorrupt, err)
	}
	return a, nil
}

// Save writes a as the current artifact, replacing any previous one. The
// manifest is written last, after both payload files are in place.
func (s *Store) Save(a *Artifact) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir %s: %w", s.dir, err)
	}

	if err := writeCompressedJSON(filepath.Join(s.dir, ModelFile), modelFile{
		ArtifactID: a.Meta.ArtifactID,
		Forest:     a.Model,
	}); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := writeCompressedJSON(filepath.Join(s.dir, ScalerFile), scalerFile{
		ArtifactID: a.Meta.ArtifactID,
		Scaler:     a.Scaler,
	}); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}

	m := manifest{Metadata: a.Meta}
	m.Files.Model = ModelFile
	m.Files.Scaler = ScalerFile
	if err := writeJSON(filepath.Join(s.dir, ManifestFile), m); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// CreateAndPersist trains a fresh artifact from the synthetic corpus and saves it.
func (s *Store) CreateAndPersist(ctx context.Context) (*Artifact, error) {
	start := time.Now()
	s.logger.Info("training demand model",
		zap.Int("samples", s.cfg.Samples),
		zap.Int("trees", s.cfg.Trees),
		zap.Uint64("seed", s.cfg.Seed))

	a, err := TrainSynthetic(ctx, s.cfg)
	if err == nil {
		err = s.Save(a)
	}
	elapsed := time.Since(start)
	s.observer.ModelTrained(elapsed, err)
	if err != nil {
		s.logger.Error("demand model training failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("demand model saved",
		zap.String("artifact_id", a.Meta.ArtifactID),
		zap.String("dir", s.dir),
		zap.Duration("elapsed", elapsed),
		zap.Float64("holdout_mae", a.Meta.Holdout.MAE),
		zap.Float64("holdout_r2", a.Meta.Holdout.R2))
	return a, nil
}

// GetOrCreate loads the persisted artifact, training a new one when none exists
// or the stored one uses another schema version. A corrupt artifact is
// returned as an error and left on disk for inspection; use Reset or
// CreateAndPersist to replace it.
func (s *Store) GetOrCreate(ctx context.Context) (*Artifact, error) {
	a, err := s.Load()
	switch {
	case err == nil:
		s.logger.Info("demand model loaded", zap.String("artifact_id", a.Meta.ArtifactID))
		return a, nil
	case errors.Is(err, ErrArtifactNotFound):
		s.logger.Info("no persisted demand model, creating one", zap.String("dir", s.dir))
	case errors.Is(err, ErrArtifactIncompatible):
		s.logger.Warn("persisted demand model is incompatible, retraining", zap.Error(err))
	default:
		s.logger.Error("persisted demand model is corrupt",
			zap.String("dir", s.dir), zap.Error(err))
		return nil, err
	}
	return s.CreateAndPersist(ctx)
}

// Reset deletes the persisted artifact files.
func (s *Store) Reset() error {
	for _, name := range []string{ManifestFile, ModelFile, ScalerFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
