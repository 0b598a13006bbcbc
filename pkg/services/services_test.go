package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cafesync-ai/pkg/ml"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

var (
	sharedArtifact     *ml.Artifact
	sharedArtifactErr  error
	sharedArtifactOnce sync.Once
)

// testArtifact 小さな設定で一度だけ学習したモデルを返す
func testArtifact(t *testing.T) *ml.Artifact {
	t.Helper()
	sharedArtifactOnce.Do(func() {
		cfg := ml.DefaultTrainConfig()
		cfg.Samples = 300
		cfg.Trees = 8
		cfg.HoldoutFraction = 0
		sharedArtifact, sharedArtifactErr = ml.TrainSynthetic(context.Background(), cfg)
	})
	require.NoError(t, sharedArtifactErr)
	return sharedArtifact
}

// fakeStore 呼び出し回数を数えるModelStore
type fakeStore struct {
	artifact *ml.Artifact
	err      error
	delay    time.Duration

	getCalls    atomic.Int32
	createCalls atomic.Int32
	resetCalls  atomic.Int32
}

func (f *fakeStore) GetOrCreate(context.Context) (*ml.Artifact, error) {
	f.getCalls.Add(1)
	time.Sleep(f.delay)
	return f.artifact, f.err
}

func (f *fakeStore) CreateAndPersist(context.Context) (*ml.Artifact, error) {
	f.createCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	next := *f.artifact
	next.Meta.ArtifactID = f.artifact.Meta.ArtifactID + "-retrained"
	return &next, nil
}

func (f *fakeStore) Reset() error {
	f.resetCalls.Add(1)
	return nil
}
