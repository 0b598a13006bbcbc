package handler

import (
	"net/http"
	"sync"

	config "cafesync-ai/configs"
	"cafesync-ai/pkg/logging"
	"cafesync-ai/pkg/router"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	app     *gin.Engine
	initErr error
	once    sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
// モデルは最初の予測リクエストで読み込み（または学習）されます。
func setupApp() (*gin.Engine, error) {
	once.Do(func() {
		app, initErr = newEngine()
	})
	return app, initErr
}

func newEngine() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel, "cafesync-ai")
	if err != nil {
		return nil, err
	}
	logger.Info("initializing serverless handler", zap.String("model_dir", cfg.Model.Dir))
	return router.NewApp(cfg, logger).Engine, nil
}

// Handler はサーバーレス関数のエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	engine, err := setupApp()
	if err != nil {
		http.Error(w, "server configuration error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	engine.ServeHTTP(w, r)
}
