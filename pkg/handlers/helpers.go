package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cafesync-ai/pkg/ml"
	"cafesync-ai/pkg/services"

	"github.com/gin-gonic/gin"
)

// エラーレスポンスのコード
const (
	codeInvalidInput    = "invalid_input"
	codeModelNotReady   = "model_not_ready"
	codeArtifactCorrupt = "artifact_corrupt"
	codeUnauthorized    = "unauthorized"
	codeInternal        = "internal_error"
)

// findIndex finds the index of the first candidate in a slice
func findIndex(slice []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, item := range slice {
			if strings.EqualFold(strings.TrimSpace(item), candidate) {
				return i
			}
		}
	}
	return -1
}

// respondOK 成功レスポンスを返す
func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError エラー種別に応じたステータスとコードで失敗レスポンスを返す
func respondError(c *gin.Context, err error) {
	status, code := classifyError(err)
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, services.ErrModelNotReady):
		return http.StatusServiceUnavailable, codeModelNotReady
	case errors.Is(err, ml.ErrArtifactCorrupt):
		return http.StatusInternalServerError, codeArtifactCorrupt
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// bindJSON リクエストボディを読み込む。空のボディは全項目省略として扱い、
// 構造上のエラーはErrInvalidInputとして返す
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: リクエストの解析に失敗しました: %w", services.ErrInvalidInput, err)
	}
	return nil
}
