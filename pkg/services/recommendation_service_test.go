package services

import (
	"testing"

	"cafesync-ai/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestRecommendWithoutHistory(t *testing.T) {
	result := NewRecommendationService().Recommend("u1", nil)

	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, "0 previous orders", result.BasedOn)
	assert.Equal(t, 0.8, result.PersonalizationScore)
	names := make([]string, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"Latte", "Cappuccino", "Iced Coffee"}, names)
}

func TestRecommendBoostsPreferences(t *testing.T) {
	history := []models.Order{
		{Items: []models.OrderLine{{Name: "Cold Brew Coffee"}}},
		{Items: []models.OrderLine{{Name: "Green Tea"}}},
	}

	result := NewRecommendationService().Recommend("u2", history)

	assert.Equal(t, "2 previous orders", result.BasedOn)
	assert.Len(t, result.Recommendations, 3)
	assert.Equal(t, "Latte", result.Recommendations[0].Name)
	assert.Equal(t, "Iced Coffee", result.Recommendations[1].Name)
	assert.InDelta(t, 0.9, result.Recommendations[1].Score, 1e-9)
	assert.Equal(t, "Cappuccino", result.Recommendations[2].Name)
}

func TestRecommendDoesNotMutateCatalog(t *testing.T) {
	history := []models.Order{{Items: []models.OrderLine{{Name: "latte"}}}}

	boosted := NewRecommendationService().Recommend("u3", history)
	assert.InDelta(t, 1.1, boosted.Recommendations[0].Score, 1e-9)

	plain := NewRecommendationService().Recommend("u4", nil)
	assert.Equal(t, 0.9, plain.Recommendations[0].Score)
}
