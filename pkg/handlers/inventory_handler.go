package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"cafesync-ai/pkg/models"
	"cafesync-ai/pkg/services"

	"github.com/gin-gonic/gin"
)

// maxUploadSize 在庫ファイルのアップロード上限 (10MB)
const maxUploadSize = 10 << 20

// InventoryHandler 在庫最適化ハンドラー
type InventoryHandler struct {
	service *services.InventoryService
}

// NewInventoryHandler 新しい在庫最適化ハンドラーを作成
func NewInventoryHandler(service *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// OptimizeInventory 予測需要をもとに在庫アクションを返す
func (h *InventoryHandler) OptimizeInventory(c *gin.Context) {
	var request models.InventoryOptimizationRequest
	if err := bindJSON(c, &request); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.OptimizeRequest(request)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// OptimizeWithForecast 需要予測と在庫最適化をまとめて実行
func (h *InventoryHandler) OptimizeWithForecast(c *gin.Context) {
	var request models.ForecastOptimizationRequest
	if err := bindJSON(c, &request); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.OptimizeForecast(c.Request.Context(), request)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// OptimizeFromFile アップロードされた在庫ファイル(.xlsx/.csv)を最適化
func (h *InventoryHandler) OptimizeFromFile(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(c, fmt.Errorf("%w: フォームの解析に失敗しました: %w", services.ErrInvalidInput, err))
		return
	}

	var demand *float64
	if raw := strings.TrimSpace(c.PostForm("predicted_demand")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, fmt.Errorf("%w: predicted_demandが数値ではありません: %q", services.ErrInvalidInput, raw))
			return
		}
		demand = &v
	}

	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, fmt.Errorf("%w: ファイルの取得に失敗しました: %w", services.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	rows, err := readInventoryRows(fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := parseInventoryRows(rows)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Optimize(items, demand)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"file":         fileHeader.Filename,
		"items":        len(items),
		"optimization": result,
	})
}
