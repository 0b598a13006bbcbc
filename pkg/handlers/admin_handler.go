package handlers

import (
	"crypto/subtle"
	"net/http"
	"sync/atomic"
	"time"

	config "cafesync-ai/configs"
	"cafesync-ai/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceName ヘルスチェックで返すサービス名
const ServiceName = "CafeSync AI"

// AdminHandler は管理者向け操作のハンドラです。
type AdminHandler struct {
	AdminUsername string
	AdminPassword string

	demand *services.DemandService
	logger *zap.Logger

	// maintenance はサーバーがメンテナンスモードかどうかを示します。
	maintenance atomic.Bool
}

// NewAdminHandler は新しいAdminHandlerを生成します。
func NewAdminHandler(cfg *config.Config, demand *services.DemandService, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		demand:        demand,
		logger:        logger.Named("admin"),
	}
}

// AdminCredentials は管理者認証のためのリクエストボディです。
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// authorize は認証情報を検証し、失敗時はレスポンスを書き込んでfalseを返します。
func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password are required", "code": codeInvalidInput})
		return false
	}

	// パスワード未設定の場合は管理操作を受け付けない
	if h.AdminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.AdminUsername)) != 1 ||
		subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.AdminPassword)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials", "code": codeUnauthorized})
		return false
	}
	return true
}

// StartMaintenance はメンテナンスモードを開始します。
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	h.logger.Warn("maintenance mode started")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Maintenance mode started"})
}

// StopMaintenance はメンテナンスモードを停止します。
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	h.logger.Info("maintenance mode stopped")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Maintenance mode stopped"})
}

// RetrainModel は永続化済みモデルを無視して再学習し、差し替えます。
func (h *AdminHandler) RetrainModel(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	if _, err := h.demand.Retrain(c.Request.Context()); err != nil {
		h.logger.Error("retrain failed", zap.Error(err))
		respondError(c, err)
		return
	}
	info, err := h.demand.ModelInfo()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, info)
}

// DiscardModel は永続化済みモデルを削除します。次の予測時に再作成されます。
func (h *AdminHandler) DiscardModel(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	if err := h.demand.Discard(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Model artifact removed"})
}

// GetHealthStatus は現在のサーバーの状態を返します。
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"isMaintenanceMode": h.maintenance.Load(),
		"modelLoaded":       h.demand.Current() != nil,
	})
}

// HealthCheck は外部のヘルスチェッカー（例: ロードバランサー）からのリクエストに応答します。
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.maintenance.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unavailable",
			"service":   ServiceName,
			"message":   "Server is in maintenance mode",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
