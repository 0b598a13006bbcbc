package services

import (
	"context"
	"fmt"
	"math"

	"cafesync-ai/pkg/metrics"
	"cafesync-ai/pkg/models"

	"go.uber.org/zap"
)

// 在庫最適化のデフォルト値
const (
	DefaultUsageFraction   = 0.1
	DefaultUnitCost        = 5.0
	DefaultMinStock        = 5.0
	DefaultPredictedDemand = 50.0
)

const (
	reasonBelowMinimum     = "Below minimum stock level"
	reasonMayNotMeetDemand = "May not meet predicted demand"

	// 浮動小数点誤差による不足や数量の1つ増しを無視する幅
	quantityRoundingTolerance = 1e-9
)

// CostPolicy 品目ごとの単価を決める
type CostPolicy interface {
	UnitCost(item models.InventoryItem) float64
}

// FixedUnitCost すべての品目に同じ単価を使う
type FixedUnitCost float64

// UnitCost implements CostPolicy.
func (c FixedUnitCost) UnitCost(models.InventoryItem) float64 {
	return float64(c)
}

// CatalogUnitCost 品目名で単価を引き、見つからなければFallbackを使う
type CatalogUnitCost struct {
	Costs    map[string]float64
	Fallback CostPolicy
}

// UnitCost implements CostPolicy.
func (c CatalogUnitCost) UnitCost(item models.InventoryItem) float64 {
	if cost, ok := c.Costs[item.Name]; ok {
		return cost
	}
	if c.Fallback != nil {
		return c.Fallback.UnitCost(item)
	}
	return DefaultUnitCost
}

// DemandPredictor 需要予測を提供する
type DemandPredictor interface {
	PredictDemand(ctx context.Context, req models.DemandPredictionRequest) (*models.DemandPrediction, error)
}

// InventoryOptions 在庫最適化の設定
type InventoryOptions struct {
	UsageFraction          float64
	DefaultMinStock        float64
	DefaultPredictedDemand float64
	Cost                   CostPolicy
}

// DefaultInventoryOptions 既定の設定を返す
func DefaultInventoryOptions() InventoryOptions {
	return InventoryOptions{
		UsageFraction:          DefaultUsageFraction,
		DefaultMinStock:        DefaultMinStock,
		DefaultPredictedDemand: DefaultPredictedDemand,
		Cost:                   FixedUnitCost(DefaultUnitCost),
	}
}

// InventoryService 在庫最適化サービス
type InventoryService struct {
	opts      InventoryOptions
	predictor DemandPredictor
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewInventoryService 新しい在庫最適化サービスを作成
func NewInventoryService(opts InventoryOptions, predictor DemandPredictor, collector *metrics.Collector, logger *zap.Logger) *InventoryService {
	if opts.Cost == nil {
		opts.Cost = FixedUnitCost(DefaultUnitCost)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		opts:      opts,
		predictor: predictor,
		metrics:   collector,
		logger:    logger.Named("inventory"),
	}
}

// Optimize 予測需要と現在庫から発注・補充アクションを導出する。
// 各品目は独立に評価され、入力順を保ったまま返す
func (s *InventoryService) Optimize(items []models.InventoryItem, predictedDemand *float64) (*models.InventoryOptimization, error) {
	demand := s.opts.DefaultPredictedDemand
	if predictedDemand != nil {
		demand = *predictedDemand
	}
	if err := s.validate(items, demand); err != nil {
		return nil, err
	}

	predictedUsage := demand * s.opts.UsageFraction
	result := &models.InventoryOptimization{
		Recommendations: make([]models.ReorderAction, 0, len(items)),
	}
	counts := make(map[string]int)

	for _, item := range items {
		minStock := s.opts.DefaultMinStock
		if item.MinStock != nil {
			minStock = *item.MinStock
		}

		var action models.ReorderAction
		switch {
		case item.CurrentStock < minStock:
			action = models.ReorderAction{
				Item:     item.Name,
				Action:   models.ActionReorder,
				Quantity: minStock * 2,
				Priority: models.PriorityHigh,
				Reason:   reasonBelowMinimum,
			}
			result.TotalItemsToReorder++
		case item.CurrentStock < predictedUsage-quantityRoundingTolerance:
			action = models.ReorderAction{
				Item:     item.Name,
				Action:   models.ActionIncreaseStock,
				Quantity: math.Ceil(predictedUsage - item.CurrentStock - quantityRoundingTolerance),
				Priority: models.PriorityMedium,
				Reason:   reasonMayNotMeetDemand,
			}
		default:
			continue
		}

		result.Recommendations = append(result.Recommendations, action)
		result.EstimatedCost += action.Quantity * s.opts.Cost.UnitCost(item)
		counts[action.Action]++
	}

	s.metrics.ObserveOptimization(counts, result.EstimatedCost)
	s.logger.Debug("inventory optimized",
		zap.Int("items", len(items)),
		zap.Int("actions", len(result.Recommendations)),
		zap.Float64("predicted_demand", demand),
		zap.Float64("estimated_cost", result.EstimatedCost))

	return result, nil
}

// OptimizeRequest リクエスト全体を検証してから最適化する
func (s *InventoryService) OptimizeRequest(req models.InventoryOptimizationRequest) (*models.InventoryOptimization, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.Optimize(req.Inventory, req.PredictedDemand)
}

// OptimizeForecast 需要を予測し、その結果で在庫を最適化する
func (s *InventoryService) OptimizeForecast(ctx context.Context, req models.ForecastOptimizationRequest) (*models.ForecastOptimization, error) {
	if s.predictor == nil {
		return nil, ErrModelNotReady
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	prediction, err := s.predictor.PredictDemand(ctx, models.DemandPredictionRequest{
		Weather: req.Weather,
		Time:    req.Time,
	})
	if err != nil {
		return nil, err
	}

	demand := float64(prediction.PredictedDemand)
	optimization, err := s.Optimize(req.Inventory, &demand)
	if err != nil {
		return nil, err
	}

	return &models.ForecastOptimization{
		Prediction:   *prediction,
		Optimization: *optimization,
	}, nil
}

func (s *InventoryService) validate(items []models.InventoryItem, demand float64) error {
	if !isFinite(demand) || demand < 0 {
		return fmt.Errorf("%w: predicted_demand must be a non-negative number, got %v", ErrInvalidInput, demand)
	}
	for i, item := range items {
		if !isFinite(item.CurrentStock) || item.CurrentStock < 0 {
			return fmt.Errorf("%w: inventory[%d].currentStock must be a non-negative number, got %v", ErrInvalidInput, i, item.CurrentStock)
		}
		if item.MinStock != nil && (!isFinite(*item.MinStock) || *item.MinStock < 0) {
			return fmt.Errorf("%w: inventory[%d].minStock must be a non-negative number, got %v", ErrInvalidInput, i, *item.MinStock)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
