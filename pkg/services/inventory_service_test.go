package services

import (
	"context"
	"math"
	"testing"

	"cafesync-ai/pkg/metrics"
	"cafesync-ai/pkg/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventoryService() *InventoryService {
	return NewInventoryService(DefaultInventoryOptions(), nil, nil, nil)
}

func TestOptimizeActions(t *testing.T) {
	testCases := []struct {
		name     string
		item     models.InventoryItem
		demand   *float64
		expected []models.ReorderAction
	}{
		{
			name: "below minimum triggers reorder",
			item: models.InventoryItem{Name: "milk", CurrentStock: 2, MinStock: ptr(5.0)},
			expected: []models.ReorderAction{{
				Item: "milk", Action: models.ActionReorder, Quantity: 10,
				Priority: models.PriorityHigh, Reason: "Below minimum stock level",
			}},
		},
		{
			name:   "short of predicted usage increases stock",
			item:   models.InventoryItem{Name: "beans", CurrentStock: 8, MinStock: ptr(5.0)},
			demand: ptr(100.0),
			expected: []models.ReorderAction{{
				Item: "beans", Action: models.ActionIncreaseStock, Quantity: 2,
				Priority: models.PriorityMedium, Reason: "May not meet predicted demand",
			}},
		},
		{
			name:     "sufficient stock yields nothing",
			item:     models.InventoryItem{Name: "cups", CurrentStock: 20, MinStock: ptr(5.0)},
			demand:   ptr(10.0),
			expected: []models.ReorderAction{},
		},
		{
			name:     "stock equal to minimum is not a reorder",
			item:     models.InventoryItem{Name: "lids", CurrentStock: 5, MinStock: ptr(5.0)},
			expected: []models.ReorderAction{},
		},
		{
			name: "default minimum stock applies",
			item: models.InventoryItem{Name: "sugar", CurrentStock: 1},
			expected: []models.ReorderAction{{
				Item: "sugar", Action: models.ActionReorder, Quantity: 10,
				Priority: models.PriorityHigh, Reason: "Below minimum stock level",
			}},
		},
		{
			name:   "fractional shortfall rounds up",
			item:   models.InventoryItem{Name: "syrup", CurrentStock: 5.5, MinStock: ptr(1.0)},
			demand: ptr(80.0),
			expected: []models.ReorderAction{{
				Item: "syrup", Action: models.ActionIncreaseStock, Quantity: 3,
				Priority: models.PriorityMedium, Reason: "May not meet predicted demand",
			}},
		},
		{
			// 3.0 * 0.1 は 0.30000000000000004 になる
			name:     "float noise above stock yields nothing",
			item:     models.InventoryItem{Name: "syrup", CurrentStock: 0.3, MinStock: ptr(0.0)},
			demand:   ptr(3.0),
			expected: []models.ReorderAction{},
		},
		{
			name:   "small real shortfall rounds up to one",
			item:   models.InventoryItem{Name: "syrup", CurrentStock: 0.29, MinStock: ptr(0.0)},
			demand: ptr(3.0),
			expected: []models.ReorderAction{{
				Item: "syrup", Action: models.ActionIncreaseStock, Quantity: 1,
				Priority: models.PriorityMedium, Reason: "May not meet predicted demand",
			}},
		},
	}

	service := newTestInventoryService()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.Optimize([]models.InventoryItem{tc.item}, tc.demand)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result.Recommendations)
		})
	}
}

func TestOptimizeTotals(t *testing.T) {
	items := []models.InventoryItem{
		{Name: "milk", CurrentStock: 2, MinStock: ptr(5.0)},
		{Name: "beans", CurrentStock: 8, MinStock: ptr(5.0)},
		{Name: "cups", CurrentStock: 50, MinStock: ptr(5.0)},
		{Name: "sugar", CurrentStock: 0, MinStock: ptr(3.0)},
	}

	result, err := newTestInventoryService().Optimize(items, ptr(100.0))
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 3)
	assert.Equal(t, "milk", result.Recommendations[0].Item)
	assert.Equal(t, "beans", result.Recommendations[1].Item)
	assert.Equal(t, "sugar", result.Recommendations[2].Item)
	assert.Equal(t, 2, result.TotalItemsToReorder)

	var quantity float64
	for _, rec := range result.Recommendations {
		quantity += rec.Quantity
	}
	assert.Equal(t, 18.0, quantity)
	assert.InDelta(t, 5*quantity, result.EstimatedCost, 1e-9)
}

func TestOptimizeEmptyInventory(t *testing.T) {
	result, err := newTestInventoryService().Optimize(nil, nil)
	require.NoError(t, err)

	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
	assert.Zero(t, result.TotalItemsToReorder)
	assert.Zero(t, result.EstimatedCost)
}

func TestOptimizeInvalidInput(t *testing.T) {
	service := newTestInventoryService()

	testCases := []struct {
		name   string
		items  []models.InventoryItem
		demand *float64
	}{
		{name: "negative stock", items: []models.InventoryItem{{Name: "milk", CurrentStock: -1}}},
		{name: "negative minimum", items: []models.InventoryItem{{Name: "milk", CurrentStock: 1, MinStock: ptr(-2.0)}}},
		{name: "nan stock", items: []models.InventoryItem{{Name: "milk", CurrentStock: math.NaN()}}},
		{name: "negative demand", demand: ptr(-10.0)},
		{name: "infinite demand", demand: ptr(math.Inf(1))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Optimize(tc.items, tc.demand)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestOptimizeRequestValidatesTags(t *testing.T) {
	req := models.InventoryOptimizationRequest{
		Inventory: []models.InventoryItem{{Name: "milk", CurrentStock: -3}},
	}

	_, err := newTestInventoryService().OptimizeRequest(req)

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogUnitCost(t *testing.T) {
	opts := DefaultInventoryOptions()
	opts.Cost = CatalogUnitCost{
		Costs:    map[string]float64{"milk": 2},
		Fallback: FixedUnitCost(7),
	}
	service := NewInventoryService(opts, nil, nil, nil)

	result, err := service.Optimize([]models.InventoryItem{
		{Name: "milk", CurrentStock: 0, MinStock: ptr(5.0)},
		{Name: "beans", CurrentStock: 0, MinStock: ptr(1.0)},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 10*2.0+2*7.0, result.EstimatedCost)
	assert.Equal(t, DefaultUnitCost, CatalogUnitCost{}.UnitCost(models.InventoryItem{Name: "x"}))
}

func TestOptimizeRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector("test")
	service := NewInventoryService(DefaultInventoryOptions(), nil, collector, nil)

	_, err := service.Optimize([]models.InventoryItem{
		{Name: "milk", CurrentStock: 1, MinStock: ptr(5.0)},
		{Name: "beans", CurrentStock: 6, MinStock: ptr(5.0)},
	}, ptr(100.0))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.OptimizerActionsTotal.WithLabelValues(models.ActionReorder)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.OptimizerActionsTotal.WithLabelValues(models.ActionIncreaseStock)))
}

type stubPredictor struct {
	demand int
	err    error
}

func (p stubPredictor) PredictDemand(context.Context, models.DemandPredictionRequest) (*models.DemandPrediction, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.DemandPrediction{PredictedDemand: p.demand, Confidence: DefaultConfidence}, nil
}

func TestOptimizeForecast(t *testing.T) {
	service := NewInventoryService(DefaultInventoryOptions(), stubPredictor{demand: 100}, nil, nil)

	result, err := service.OptimizeForecast(context.Background(), models.ForecastOptimizationRequest{
		Inventory: []models.InventoryItem{{Name: "beans", CurrentStock: 8, MinStock: ptr(5.0)}},
	})
	require.NoError(t, err)

	assert.Equal(t, 100, result.Prediction.PredictedDemand)
	require.Len(t, result.Optimization.Recommendations, 1)
	assert.Equal(t, 2.0, result.Optimization.Recommendations[0].Quantity)
}

func TestOptimizeForecastErrors(t *testing.T) {
	withoutPredictor := newTestInventoryService()
	_, err := withoutPredictor.OptimizeForecast(context.Background(), models.ForecastOptimizationRequest{})
	assert.ErrorIs(t, err, ErrModelNotReady)

	notReady := NewInventoryService(DefaultInventoryOptions(), stubPredictor{err: ErrModelNotReady}, nil, nil)
	_, err = notReady.OptimizeForecast(context.Background(), models.ForecastOptimizationRequest{})
	assert.ErrorIs(t, err, ErrModelNotReady)
}
