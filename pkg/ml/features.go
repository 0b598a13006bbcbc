package ml

import "cafesync-ai/pkg/models"

// FeatureCount is the length of every encoded feature vector.
const FeatureCount = 10

// Defaults applied when an observation omits a field.
const (
	DefaultTemperature = 20.0
	DefaultHour        = 12
	DefaultDayOfWeek   = 0
)

// Feature vector layout.
const (
	idxTemperature = iota
	idxSunny
	idxCloudy
	idxRainy
	idxHour
	idxDayOfWeek
	idxSpring
	idxSummer
	idxFall
	idxWinter
)

// FeatureVector is the fixed encoding consumed by the scaler and the forest:
// [temperature, is_sunny, is_cloudy, is_rainy, hour, day_of_week,
// is_spring, is_summer, is_fall, is_winter].
type FeatureVector [FeatureCount]float64

// Slice returns the vector as a fresh slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

var conditionSlots = map[string]int{
	models.ConditionSunny:  idxSunny,
	models.ConditionCloudy: idxCloudy,
	models.ConditionRainy:  idxRainy,
}

var seasonSlots = map[string]int{
	models.SeasonSpring: idxSpring,
	models.SeasonSummer: idxSummer,
	models.SeasonFall:   idxFall,
	models.SeasonWinter: idxWinter,
}

// Encode maps a weather observation and time context to a feature vector.
// Missing fields take the package defaults. Unknown condition or season values
// leave their indicator block all zero instead of failing.
func Encode(weather models.WeatherObservation, tc models.TimeContext) FeatureVector {
	var v FeatureVector

	v[idxTemperature] = DefaultTemperature
	if weather.Temperature != nil {
		v[idxTemperature] = *weather.Temperature
	}
	if weather.Condition != nil {
		if slot, ok := conditionSlots[*weather.Condition]; ok {
			v[slot] = 1
		}
	}

	v[idxHour] = DefaultHour
	if tc.Hour != nil {
		v[idxHour] = float64(*tc.Hour)
	}
	v[idxDayOfWeek] = DefaultDayOfWeek
	if tc.DayOfWeek != nil {
		v[idxDayOfWeek] = float64(*tc.DayOfWeek)
	}
	if tc.Season != nil {
		if slot, ok := seasonSlots[*tc.Season]; ok {
			v[slot] = 1
		}
	}

	return v
}
