package handlers

import (
	"cafesync-ai/pkg/models"
	"cafesync-ai/pkg/services"

	"github.com/gin-gonic/gin"
)

// DemandHandler 需要予測ハンドラー
type DemandHandler struct {
	service *services.DemandService
}

// NewDemandHandler 新しい需要予測ハンドラーを作成
func NewDemandHandler(service *services.DemandService) *DemandHandler {
	return &DemandHandler{service: service}
}

// PredictDemand 天候と時間帯から需要を予測
func (h *DemandHandler) PredictDemand(c *gin.Context) {
	var request models.DemandPredictionRequest
	if err := bindJSON(c, &request); err != nil {
		respondError(c, err)
		return
	}

	prediction, err := h.service.PredictDemand(c.Request.Context(), request)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, prediction)
}

// GetModelInfo 現在のモデルのメタデータを返す
func (h *DemandHandler) GetModelInfo(c *gin.Context) {
	info, err := h.service.ModelInfo()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, info)
}
