package ml

import (
	"fmt"
	"math"
)

// Scaler standardizes each feature dimension to zero mean and unit variance.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-dimension mean and population standard deviation.
// Dimensions with zero variance keep a scale of 1.
func FitScaler(x [][]float64) (*Scaler, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fit scaler: empty corpus")
	}
	dims := len(x[0])
	mean := make([]float64, dims)
	for i, row := range x {
		if len(row) != dims {
			return nil, fmt.Errorf("fit scaler: row %d has %d features, want %d", i, len(row), dims)
		}
		for j, val := range row {
			mean[j] += val
		}
	}
	n := float64(len(x))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, dims)
	for _, row := range x {
		for j, val := range row {
			d := val - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		sd := math.Sqrt(scale[j] / n)
		if sd == 0 {
			sd = 1
		}
		scale[j] = sd
	}

	return &Scaler{Mean: mean, Scale: scale}, nil
}

// Dims returns the number of dimensions the scaler was fit on.
func (s *Scaler) Dims() int {
	return len(s.Mean)
}

// Transform returns a standardized copy of v.
func (s *Scaler) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(v))
	}
	out := make([]float64, len(v))
	for j, val := range v {
		out[j] = (val - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll standardizes every row of x.
func (s *Scaler) TransformAll(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *Scaler) validate() error {
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler mean/scale length mismatch: %d vs %d", len(s.Mean), len(s.Scale))
	}
	for j, sd := range s.Scale {
		if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
			return fmt.Errorf("scaler dimension %d has invalid scale %v", j, sd)
		}
	}
	return nil
}
