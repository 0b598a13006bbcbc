package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitScalerStandardizes(t *testing.T) {
	x := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
		{4, 40, 5},
	}

	s, err := FitScaler(x)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2.5, 25, 5}, s.Mean, 1e-12)
	// constant column keeps unit scale
	assert.Equal(t, 1.0, s.Scale[2])

	scaled, err := s.TransformAll(x)
	require.NoError(t, err)
	for j := 0; j < 2; j++ {
		var mean, sq float64
		for _, row := range scaled {
			mean += row[j]
		}
		mean /= float64(len(scaled))
		for _, row := range scaled {
			sq += (row[j] - mean) * (row[j] - mean)
		}
		assert.InDelta(t, 0, mean, 1e-12)
		assert.InDelta(t, 1, math.Sqrt(sq/float64(len(scaled))), 1e-12)
	}
}

func TestScalerTransformDimensionMismatch(t *testing.T) {
	s, err := FitScaler([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	_, err = s.Transform([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestFitScalerRejectsBadInput(t *testing.T) {
	_, err := FitScaler(nil)
	assert.Error(t, err)

	_, err = FitScaler([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}
