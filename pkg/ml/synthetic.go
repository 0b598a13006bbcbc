package ml

import (
	"math"
	"math/rand/v2"

	"cafesync-ai/pkg/models"
)

// Ground-truth demand model constants.
const (
	BaseDemand = 50.0

	syntheticTempMean  = 20.0
	syntheticTempSD    = 10.0
	syntheticNoiseSD   = 10.0
	syntheticHourStart = 6
	syntheticHourEnd   = 21
)

var (
	syntheticConditions = []string{models.ConditionSunny, models.ConditionCloudy, models.ConditionRainy}
	syntheticSeasons    = []string{models.SeasonSpring, models.SeasonSummer, models.SeasonFall, models.SeasonWinter}
)

// TrainingSample pairs an encoded observation with its demand target.
type TrainingSample struct {
	Features FeatureVector
	Demand   float64
}

// WeatherMultiplier is the ground-truth demand lift for a condition.
func WeatherMultiplier(condition string) float64 {
	switch condition {
	case models.ConditionRainy:
		return 1.2
	case models.ConditionSunny:
		return 1.1
	default:
		return 1.0
	}
}

// TimeMultiplier is the ground-truth demand lift for an hour of day:
// morning rush, lunch, and evening peaks.
func TimeMultiplier(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return 1.5
	case hour >= 12 && hour <= 14:
		return 1.3
	case hour >= 17 && hour <= 19:
		return 1.2
	default:
		return 1.0
	}
}

// GroundTruthDemand is the noiseless synthetic demand.
func GroundTruthDemand(condition string, hour int) float64 {
	return BaseDemand * WeatherMultiplier(condition) * TimeMultiplier(hour)
}

// SyntheticCorpus draws n bootstrap training samples from the ground-truth
// model. The same seed always yields the same corpus.
func SyntheticCorpus(n int, seed uint64) []TrainingSample {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	samples := make([]TrainingSample, n)

	for i := range samples {
		temp := syntheticTempMean + syntheticTempSD*rng.NormFloat64()
		condition := syntheticConditions[rng.IntN(len(syntheticConditions))]
		hour := syntheticHourStart + rng.IntN(syntheticHourEnd-syntheticHourStart+1)
		day := rng.IntN(7)
		season := syntheticSeasons[rng.IntN(len(syntheticSeasons))]

		features := Encode(
			models.WeatherObservation{Temperature: &temp, Condition: &condition},
			models.TimeContext{Hour: &hour, DayOfWeek: &day, Season: &season},
		)
		demand := GroundTruthDemand(condition, hour) + syntheticNoiseSD*rng.NormFloat64()

		samples[i] = TrainingSample{Features: features, Demand: math.Max(0, demand)}
	}

	return samples
}
