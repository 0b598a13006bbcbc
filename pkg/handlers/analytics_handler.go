package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"cafesync-ai/pkg/models"
	"cafesync-ai/pkg/services"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 売上分析・おすすめハンドラー
type AnalyticsHandler struct {
	analytics       *services.AnalyticsService
	recommendations *services.RecommendationService
}

// NewAnalyticsHandler 新しい売上分析ハンドラーを作成
func NewAnalyticsHandler(analytics *services.AnalyticsService, recommendations *services.RecommendationService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:       analytics,
		recommendations: recommendations,
	}
}

// AnalyzeSales 売上データを集計
func (h *AnalyticsHandler) AnalyzeSales(c *gin.Context) {
	var request models.SalesAnalysisRequest
	if err := bindJSON(c, &request); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.analytics.AnalyzeSales(request.Sales)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// GetRecommendations 注文履歴（order_historyクエリのJSON）からおすすめを返す
func (h *AnalyticsHandler) GetRecommendations(c *gin.Context) {
	userID := c.Param("userId")

	var history []models.Order
	if raw := strings.TrimSpace(c.Query("order_history")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			respondError(c, fmt.Errorf("%w: order_historyの解析に失敗しました: %w", services.ErrInvalidInput, err))
			return
		}
	}

	respondOK(c, h.recommendations.Recommend(userID, history))
}
