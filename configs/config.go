package config

import (
	"fmt"

	"cafesync-ai/pkg/ml"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration
type Config struct {
	Port          string `envconfig:"PORT" default:"8080" validate:"required"`
	Environment   string `envconfig:"ENVIRONMENT" default:"development" validate:"oneof=development test staging production"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	APIKey        string `envconfig:"API_KEY"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	Model     ModelConfig
	Inventory InventoryConfig
}

// ModelConfig 需要予測モデルの学習・保存設定
type ModelConfig struct {
	Dir       string `envconfig:"MODEL_DIR" default:"models" validate:"required"`
	Seed      uint64 `envconfig:"MODEL_SEED" default:"42"`
	Samples   int    `envconfig:"MODEL_SAMPLES" default:"1000" validate:"min=10"`
	Trees     int    `envconfig:"MODEL_TREES" default:"100" validate:"min=1,max=1000"`
	MaxDepth  int    `envconfig:"MODEL_MAX_DEPTH" default:"0" validate:"min=0"`
	MinLeaf   int    `envconfig:"MODEL_MIN_LEAF" default:"1" validate:"min=1"`
	EagerLoad bool   `envconfig:"MODEL_EAGER_LOAD" default:"true"`

	Confidence float64 `envconfig:"PREDICTION_CONFIDENCE" default:"0.85" validate:"gte=0,lte=1"`
}

// InventoryConfig 在庫最適化の設定
type InventoryConfig struct {
	UnitCost               float64 `envconfig:"UNIT_COST" default:"5" validate:"gte=0"`
	UsageFraction          float64 `envconfig:"USAGE_FRACTION" default:"0.1" validate:"gte=0"`
	DefaultMinStock        float64 `envconfig:"DEFAULT_MIN_STOCK" default:"5" validate:"gte=0"`
	DefaultPredictedDemand float64 `envconfig:"DEFAULT_PREDICTED_DEMAND" default:"50" validate:"gte=0"`
}

// LoadConfig loads configuration from .env and environment variables
func LoadConfig() (*Config, error) {
	// .envが無くてもエラーにしない。既存の環境変数は上書きしない
	_ = godotenv.Load()
	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// TrainConfig モデル設定を学習設定に変換する
func (c *Config) TrainConfig() ml.TrainConfig {
	tc := ml.DefaultTrainConfig()
	tc.Seed = c.Model.Seed
	tc.Samples = c.Model.Samples
	tc.Trees = c.Model.Trees
	tc.MaxDepth = c.Model.MaxDepth
	tc.MinSamplesLeaf = c.Model.MinLeaf
	return tc
}
