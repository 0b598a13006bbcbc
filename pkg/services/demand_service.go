package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"cafesync-ai/pkg/metrics"
	"cafesync-ai/pkg/ml"
	"cafesync-ai/pkg/models"

	"go.uber.org/zap"
)

// DefaultConfidence 予測に付与する固定の信頼度
const DefaultConfidence = 0.85

// ModelStore モデル成果物の永続化境界
type ModelStore interface {
	GetOrCreate(ctx context.Context) (*ml.Artifact, error)
	CreateAndPersist(ctx context.Context) (*ml.Artifact, error)
	Reset() error
}

// DemandService 需要予測サービス。現在のモデル成果物を一つだけ保持する
type DemandService struct {
	store      ModelStore
	confidence float64
	metrics    *metrics.Collector
	logger     *zap.Logger

	current atomic.Pointer[ml.Artifact]
	// initMu 学習・永続化を同時に一つまでに制限する
	initMu sync.Mutex
}

// NewDemandService 新しい需要予測サービスを作成
func NewDemandService(store ModelStore, confidence float64, collector *metrics.Collector, logger *zap.Logger) *DemandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemandService{
		store:      store,
		confidence: confidence,
		metrics:    collector,
		logger:     logger.Named("demand"),
	}
}

// Current 現在のモデル成果物を返す（未ロードならnil）
func (s *DemandService) Current() *ml.Artifact {
	return s.current.Load()
}

// EnsureModel モデルが未ロードならロードまたは作成する。
// 同時に呼ばれても学習は一度だけ行われ、他の呼び出しは完了を待つ
func (s *DemandService) EnsureModel(ctx context.Context) (*ml.Artifact, error) {
	if a := s.current.Load(); a != nil {
		return a, nil
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	if a := s.current.Load(); a != nil {
		return a, nil
	}

	a, err := s.store.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("load demand model: %w", err)
	}
	s.current.Store(a)
	return a, nil
}

// Retrain 永続化済みのモデルを無視して再学習し、成果物を丸ごと差し替える
func (s *DemandService) Retrain(ctx context.Context) (*ml.Artifact, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	a, err := s.store.CreateAndPersist(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrain demand model: %w", err)
	}
	previous := s.current.Swap(a)
	if previous != nil {
		s.logger.Info("demand model replaced",
			zap.String("previous", previous.Meta.ArtifactID),
			zap.String("current", a.Meta.ArtifactID))
	}
	return a, nil
}

// Discard 永続化済みのモデルを削除し、保持中のモデルも手放す。
// 次の予測で再びロードまたは学習が行われる
func (s *DemandService) Discard() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if err := s.store.Reset(); err != nil {
		return fmt.Errorf("discard demand model: %w", err)
	}
	s.current.Store(nil)
	s.logger.Info("demand model discarded")
	return nil
}

// ModelInfo 現在のモデルのメタデータを返す
func (s *DemandService) ModelInfo() (*models.ModelInfo, error) {
	a := s.current.Load()
	if a == nil {
		return nil, ErrModelNotReady
	}
	return &models.ModelInfo{
		ArtifactID:    a.Meta.ArtifactID,
		SchemaVersion: a.Meta.SchemaVersion,
		CreatedAt:     a.Meta.CreatedAt,
		Seed:          a.Meta.Seed,
		Samples:       a.Meta.Samples,
		Trees:         a.Meta.Trees,
		HoldoutMAE:    a.Meta.Holdout.MAE,
		HoldoutRMSE:   a.Meta.Holdout.RMSE,
		HoldoutR2:     a.Meta.Holdout.R2,
	}, nil
}

// Predict 現在のモデルで需要を予測する。モデル未ロード時はErrModelNotReady
func (s *DemandService) Predict(req models.DemandPredictionRequest) (*models.DemandPrediction, error) {
	if err := validatePredictionRequest(req); err != nil {
		s.metrics.ObservePrediction(metrics.OutcomeInvalid, 0)
		return nil, err
	}

	a := s.current.Load()
	if a == nil {
		s.metrics.ObservePrediction(metrics.OutcomeNotReady, 0)
		return nil, ErrModelNotReady
	}

	raw, err := a.Predict(ml.Encode(req.Weather, req.Time))
	if err != nil {
		s.metrics.ObservePrediction(metrics.OutcomeError, 0)
		return nil, fmt.Errorf("predict demand: %w", err)
	}

	demand := 0
	if raw > 0 && !math.IsNaN(raw) {
		demand = int(raw)
	}
	s.metrics.ObservePrediction(metrics.OutcomeOK, demand)

	return &models.DemandPrediction{
		PredictedDemand: demand,
		Confidence:      s.confidence,
		Factors:         predictionFactors(req),
	}, nil
}

// PredictDemand 必要ならモデルを用意してから予測する。不正な入力ではモデルを用意しない
func (s *DemandService) PredictDemand(ctx context.Context, req models.DemandPredictionRequest) (*models.DemandPrediction, error) {
	if err := validatePredictionRequest(req); err != nil {
		s.metrics.ObservePrediction(metrics.OutcomeInvalid, 0)
		return nil, err
	}
	if _, err := s.EnsureModel(ctx); err != nil {
		return nil, err
	}
	return s.Predict(req)
}

func validatePredictionRequest(req models.DemandPredictionRequest) error {
	if t := req.Weather.Temperature; t != nil && (math.IsNaN(*t) || math.IsInf(*t, 0)) {
		return fmt.Errorf("%w: temperature must be a finite number", ErrInvalidInput)
	}
	return validateStruct(req)
}

// predictionFactors 予測要因としてリクエスト値（またはデフォルト）をそのまま返す
func predictionFactors(req models.DemandPredictionRequest) models.DemandFactors {
	factors := models.DemandFactors{
		WeatherImpact: "unknown",
		TimeImpact:    ml.DefaultHour,
		SeasonImpact:  "unknown",
	}
	if req.Weather.Condition != nil {
		factors.WeatherImpact = *req.Weather.Condition
	}
	if req.Time.Hour != nil {
		factors.TimeImpact = *req.Time.Hour
	}
	if req.Time.Season != nil {
		factors.SeasonImpact = *req.Time.Season
	}
	return factors
}
