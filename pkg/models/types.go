package models

import "time"

// 天候区分
const (
	ConditionSunny  = "sunny"
	ConditionCloudy = "cloudy"
	ConditionRainy  = "rainy"
)

// 季節区分
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonFall   = "fall"
	SeasonWinter = "winter"
)

// 在庫アクション
const (
	ActionReorder       = "reorder"
	ActionIncreaseStock = "increase_stock"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// WeatherObservation 気象観測値。各フィールドは省略可能
type WeatherObservation struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Condition   *string  `json:"condition,omitempty"`
}

// TimeContext 時間コンテキスト。各フィールドは省略可能
type TimeContext struct {
	Hour      *int    `json:"hour,omitempty" validate:"omitempty,min=0,max=23"`
	DayOfWeek *int    `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	Season    *string `json:"season,omitempty"`
}

// DemandPredictionRequest 需要予測リクエスト
type DemandPredictionRequest struct {
	Weather WeatherObservation `json:"weather"`
	Time    TimeContext        `json:"time"`
}

// DemandFactors 予測に使われた要因（リクエストのエコー）
type DemandFactors struct {
	WeatherImpact string `json:"weather_impact"`
	TimeImpact    int    `json:"time_impact"`
	SeasonImpact  string `json:"season_impact"`
}

// DemandPrediction 需要予測結果
type DemandPrediction struct {
	PredictedDemand int           `json:"predicted_demand"`
	Confidence      float64       `json:"confidence"`
	Factors         DemandFactors `json:"factors"`
}

// InventoryItem 在庫品目
type InventoryItem struct {
	Name         string   `json:"name" validate:"max=200"`
	CurrentStock float64  `json:"currentStock" validate:"gte=0"`
	MinStock     *float64 `json:"minStock,omitempty" validate:"omitempty,gte=0"`
}

// ReorderAction 発注・補充アクション
type ReorderAction struct {
	Item     string  `json:"item"`
	Action   string  `json:"action"`
	Quantity float64 `json:"quantity"`
	Priority string  `json:"priority"`
	Reason   string  `json:"reason"`
}

// InventoryOptimizationRequest 在庫最適化リクエスト
type InventoryOptimizationRequest struct {
	Inventory       []InventoryItem `json:"inventory" validate:"dive"`
	PredictedDemand *float64        `json:"predicted_demand,omitempty" validate:"omitempty,gte=0"`
}

// InventoryOptimization 在庫最適化結果
type InventoryOptimization struct {
	Recommendations     []ReorderAction `json:"recommendations"`
	TotalItemsToReorder int             `json:"total_items_to_reorder"`
	EstimatedCost       float64         `json:"estimated_cost"`
}

// ForecastOptimizationRequest 需要予測から在庫最適化までを一度に行うリクエスト
type ForecastOptimizationRequest struct {
	Inventory []InventoryItem    `json:"inventory" validate:"dive"`
	Weather   WeatherObservation `json:"weather"`
	Time      TimeContext        `json:"time"`
}

// ForecastOptimization 予測と最適化の結果
type ForecastOptimization struct {
	Prediction   DemandPrediction      `json:"prediction"`
	Optimization InventoryOptimization `json:"optimization"`
}

// ModelInfo 現在のモデルのメタデータ
type ModelInfo struct {
	ArtifactID    string    `json:"artifact_id"`
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	Seed          uint64    `json:"seed"`
	Samples       int       `json:"samples"`
	Trees         int       `json:"trees"`
	HoldoutMAE    float64   `json:"holdout_mae"`
	HoldoutRMSE   float64   `json:"holdout_rmse"`
	HoldoutR2     float64   `json:"holdout_r2"`
}

// SaleRecord 売上記録
type SaleRecord struct {
	Amount    *float64 `json:"amount,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// SalesAnalysisRequest 売上分析リクエスト
type SalesAnalysisRequest struct {
	Sales []SaleRecord `json:"sales"`
}

// SalesTrends 売上トレンド
type SalesTrends struct {
	GrowthRate  float64 `json:"growth_rate"`
	Seasonality string  `json:"seasonality"`
}

// SalesAnalysis 売上分析結果
type SalesAnalysis struct {
	TotalSales        float64     `json:"total_sales"`
	TotalOrders       int         `json:"total_orders"`
	AverageOrderValue float64     `json:"average_order_value"`
	PeakHour          int         `json:"peak_hour"`
	Trends            SalesTrends `json:"trends"`
}

// OrderLine 注文明細
type OrderLine struct {
	Name string `json:"name"`
}

// Order 過去の注文
type Order struct {
	Items []OrderLine `json:"items"`
}

// Recommendation おすすめ商品
type Recommendation struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// RecommendationResult おすすめ結果
type RecommendationResult struct {
	UserID               string           `json:"user_id"`
	Recommendations      []Recommendation `json:"recommendations"`
	PersonalizationScore float64          `json:"personalization_score"`
	BasedOn              string           `json:"based_on"`
}
