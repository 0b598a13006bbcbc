package services

import (
	"fmt"
	"strings"
	"time"

	"cafesync-ai/pkg/models"
)

// 売上トレンドの暫定値（実データ由来ではない）
const (
	placeholderGrowthRate  = 0.12
	placeholderSeasonality = "moderate"
	defaultPeakHour        = 12
)

// AnalyticsService 売上分析サービス
type AnalyticsService struct {
	dateLayouts []string
}

// NewAnalyticsService 新しい売上分析サービスを作成
func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{
		dateLayouts: []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"2006/01/02 15:04:05",
		},
	}
}

// AnalyzeSales 売上合計・注文数・平均注文額・ピーク時間帯を集計する
func (s *AnalyticsService) AnalyzeSales(sales []models.SaleRecord) (*models.SalesAnalysis, error) {
	if len(sales) == 0 {
		return nil, fmt.Errorf("%w: no sales data provided", ErrInvalidInput)
	}

	var total float64
	var hourly [24]float64
	hasTimestamps := false

	for i, sale := range sales {
		amount := 0.0
		if sale.Amount != nil {
			amount = *sale.Amount
		}
		total += amount

		if strings.TrimSpace(sale.Timestamp) == "" {
			continue
		}
		ts, err := s.parseTimestamp(sale.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: sales[%d].timestamp: %w", ErrInvalidInput, i, err)
		}
		hourly[ts.Hour()] += amount
		hasTimestamps = true
	}

	peak := defaultPeakHour
	if hasTimestamps {
		peak = 0
		for h := 1; h < len(hourly); h++ {
			if hourly[h] > hourly[peak] {
				peak = h
			}
		}
	}

	return &models.SalesAnalysis{
		TotalSales:        total,
		TotalOrders:       len(sales),
		AverageOrderValue: total / float64(len(sales)),
		PeakHour:          peak,
		Trends: models.SalesTrends{
			GrowthRate:  placeholderGrowthRate,
			Seasonality: placeholderSeasonality,
		},
	}, nil
}

func (s *AnalyticsService) parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range s.dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
