package ml

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T {
	return &v
}

// testTrainConfig keeps training fast while preserving the default seed.
func testTrainConfig() TrainConfig {
	cfg := DefaultTrainConfig()
	cfg.Samples = 400
	cfg.Trees = 12
	return cfg
}
