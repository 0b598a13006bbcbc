package services

import (
	"fmt"
	"slices"
	"strings"

	"cafesync-ai/pkg/models"
)

const (
	preferenceBoost            = 0.2
	placeholderPersonalization = 0.8
	maxRecommendations         = 5
)

// popularItems 時間帯・天候を問わない定番商品
var popularItems = []models.Recommendation{
	{Name: "Latte", Score: 0.9, Reason: "Popular choice"},
	{Name: "Cappuccino", Score: 0.8, Reason: "Perfect for this weather"},
	{Name: "Iced Coffee", Score: 0.7, Reason: "Great for warm weather"},
}

// RecommendationService ドリンクのおすすめサービス（単純なルールベース）
type RecommendationService struct{}

// NewRecommendationService 新しいおすすめサービスを作成
func NewRecommendationService() *RecommendationService {
	return &RecommendationService{}
}

// Recommend 注文履歴から好みを推定し、定番商品のスコアを補正して返す
func (s *RecommendationService) Recommend(userID string, history []models.Order) *models.RecommendationResult {
	preferred := preferredTypes(history)

	recs := slices.Clone(popularItems)
	for i := range recs {
		name := strings.ToLower(recs[i].Name)
		for _, pref := range preferred {
			if strings.Contains(name, pref) {
				recs[i].Score += preferenceBoost
				break
			}
		}
	}
	slices.SortStableFunc(recs, func(a, b models.Recommendation) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	return &models.RecommendationResult{
		UserID:               userID,
		Recommendations:      recs,
		PersonalizationScore: placeholderPersonalization,
		BasedOn:              fmt.Sprintf("%d previous orders", len(history)),
	}
}

// preferredTypes 注文商品名から好みのドリンク種別を抽出する
func preferredTypes(history []models.Order) []string {
	var types []string
	for _, order := range history {
		for _, line := range order.Items {
			name := strings.ToLower(line.Name)
			var kind string
			switch {
			case strings.Contains(name, "coffee"):
				kind = "coffee"
			case strings.Contains(name, "tea"):
				kind = "tea"
			case strings.Contains(name, "latte"):
				kind = "latte"
			default:
				continue
			}
			if !slices.Contains(types, kind) {
				types = append(types, kind)
			}
		}
	}
	return types
}
