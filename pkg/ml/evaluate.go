package ml

import (
	"math"
	"math/rand/v2"
)

// Metrics summarizes regression error on a holdout set.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	N    int     `json:"n"`
}

// holdoutSplit deterministically shuffles row indices and returns
// (train, test) with len(test) = round(n*fraction).
func holdoutSplit(n int, fraction float64, seed uint64) ([]int, []int) {
	perm := rand.New(rand.NewPCG(seed, 0xb01d)).Perm(n)
	testN := int(math.Round(float64(n) * fraction))
	if testN < 1 {
		testN = 1
	}
	if testN >= n {
		testN = n - 1
	}
	return perm[testN:], perm[:testN]
}

// score compares predictions against targets.
func score(pred, y []float64) Metrics {
	var absSum, sqSum, mean float64
	for i := range y {
		d := pred[i] - y[i]
		absSum += math.Abs(d)
		sqSum += d * d
		mean += y[i]
	}
	n := float64(len(y))
	mean /= n

	var total float64
	for _, v := range y {
		total += (v - mean) * (v - mean)
	}
	r2 := 0.0
	if total > 0 {
		r2 = 1 - sqSum/total
	}

	return Metrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		R2:   r2,
		N:    len(y),
	}
}

func pick[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
