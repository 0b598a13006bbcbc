// Package router はGinエンジンとサービス群を組み立てます。
// cmd/server とサーバーレス用の api パッケージで共有されます。
package router

import (
	"crypto/subtle"
	"net/http"

	config "cafesync-ai/configs"
	"cafesync-ai/pkg/handlers"
	"cafesync-ai/pkg/metrics"
	"cafesync-ai/pkg/ml"
	"cafesync-ai/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// metricsNamespace Prometheusメトリクスの名前空間
const metricsNamespace = "cafesync"

// App 初期化済みのHTTPアプリケーション
type App struct {
	Engine  *gin.Engine
	Demand  *services.DemandService
	Store   *ml.Store
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// NewApp 設定からサービス・ハンドラー・ルートを組み立てる。モデルのロードは行わない
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// サービスの初期化
	collector := metrics.NewCollector(metricsNamespace)
	store := ml.NewStore(cfg.Model.Dir, cfg.TrainConfig(), logger, ml.WithObserver(collector))
	demandService := services.NewDemandService(store, cfg.Model.Confidence, collector, logger)
	inventoryService := services.NewInventoryService(services.InventoryOptions{
		UsageFraction:          cfg.Inventory.UsageFraction,
		DefaultMinStock:        cfg.Inventory.DefaultMinStock,
		DefaultPredictedDemand: cfg.Inventory.DefaultPredictedDemand,
		Cost:                   services.FixedUnitCost(cfg.Inventory.UnitCost),
	}, demandService, collector, logger)
	monitoringService := services.NewMonitoringService(collector, logger)

	// ハンドラーの初期化
	demandHandler := handlers.NewDemandHandler(demandService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	analyticsHandler := handlers.NewAnalyticsHandler(services.NewAnalyticsService(), services.NewRecommendationService())
	adminHandler := handlers.NewAdminHandler(cfg, demandService, logger)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	r := gin.New()

	// ミドルウェアの登録
	r.Use(gin.Recovery())
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.New(corsConfig()))

	r.GET("/health", adminHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	v1.Use(APIKeyAuth(cfg.APIKey))
	{
		v1.POST("/predict/demand", demandHandler.PredictDemand)
		v1.GET("/model", demandHandler.GetModelInfo)

		v1.POST("/optimize/inventory", inventoryHandler.OptimizeInventory)
		v1.POST("/optimize/inventory/forecast", inventoryHandler.OptimizeWithForecast)
		v1.POST("/inventory/optimize/file", inventoryHandler.OptimizeFromFile)

		v1.GET("/recommendations/:userId", analyticsHandler.GetRecommendations)
		v1.POST("/analyze/sales", analyticsHandler.AnalyzeSales)

		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
			admin.POST("/model/retrain", adminHandler.RetrainModel)
			admin.DELETE("/model", adminHandler.DiscardModel)
		}

		// モニタリングAPI
		v1.GET("/monitoring/logs", monitoringHandler.GetLogs)
	}

	return &App{
		Engine:  r,
		Demand:  demandService,
		Store:   store,
		Metrics: collector,
		Logger:  logger,
	}
}

func corsConfig() cors.Config {
	c := cors.DefaultConfig()
	c.AllowAllOrigins = true
	c.AllowHeaders = append(c.AllowHeaders, "X-API-KEY")
	return c
}

// APIKeyAuth X-API-KEYヘッダーを検証する。キー未設定なら素通しする
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		providedKey := c.GetHeader("X-API-KEY")
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
				"code":    "unauthorized",
			})
			return
		}
		c.Next()
	}
}
