package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"cafesync-ai/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultMaxLogEntries メモリに保持するリクエストログの上限
const defaultMaxLogEntries = 10000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService はAPIのモニタリング機能を提供します。
type MonitoringService struct {
	logs       []LogEntry
	maxEntries int
	mu         sync.RWMutex

	metrics *metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService(collector *metrics.Collector, logger *zap.Logger) *MonitoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonitoringService{
		logs:       make([]LogEntry, 0),
		maxEntries: defaultMaxLogEntries,
		metrics:    collector,
		logger:     logger.Named("http"),
		now:        time.Now,
	}
}

// LogRequest はリクエストを記録します。
// 古いログは上限の2倍に達した時点でまとめて捨てます。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) >= 2*s.maxEntries {
		kept := make([]LogEntry, s.maxEntries, 2*s.maxEntries)
		copy(kept, s.logs[len(s.logs)-s.maxEntries:])
		s.logs = kept
	}
}

// retained は集計対象となる直近maxEntries件を返します。呼び出し側でロックを保持すること。
func (s *MonitoringService) retained() []LogEntry {
	if over := len(s.logs) - s.maxEntries; over > 0 {
		return s.logs[over:]
	}
	return s.logs
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()

		// 次のミドルウェア/ハンドラを実行
		c.Next()

		elapsed := s.now().Sub(start)
		path := c.Request.URL.Path
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()

		s.metrics.RecordAPIRequest(endpoint, c.Request.Method, status, elapsed)
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("client_ip", c.ClientIP()))

		// 管理系・監視系のリクエストはダッシュボードに含めない
		if strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") || path == "/metrics" {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   status,
			ResponseTime: elapsed,
		})
	}
}

// EndpointLatency はエンドポイントごとの平均応答時間です。
type EndpointLatency struct {
	Endpoint       string `json:"endpoint"`
	ResponseTimeMs int64  `json:"responseTime"`
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	TotalRequests    int               `json:"totalRequests"`
	Endpoints        map[string]int    `json:"endpoints"`
	StatusCodes      map[string]int    `json:"statusCodes"`
	AvgResponseTimes []EndpointLatency `json:"avgResponseTimes"`
	RecentErrors     []LogEntry        `json:"recentErrors"`
}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := s.now().Add(-time.Duration(periodHours) * time.Hour)

	data := DashboardData{
		Endpoints: make(map[string]int),
		StatusCodes: map[string]int{
			"2xx Success":      0,
			"4xx Client Error": 0,
			"5xx Server Error": 0,
		},
		AvgResponseTimes: make([]EndpointLatency, 0),
		RecentErrors:     make([]LogEntry, 0),
	}
	responseTimeSum := make(map[string]time.Duration)
	logs := s.retained()

	for _, entry := range logs {
		if !entry.Timestamp.After(since) {
			continue
		}
		data.TotalRequests++
		data.Endpoints[entry.Path]++
		responseTimeSum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			data.StatusCodes["2xx Success"]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			data.StatusCodes["4xx Client Error"]++
		case entry.StatusCode >= 500:
			data.StatusCodes["5xx Server Error"]++
		}
	}

	for path, total := range responseTimeSum {
		data.AvgResponseTimes = append(data.AvgResponseTimes, EndpointLatency{
			Endpoint:       path,
			ResponseTimeMs: total.Milliseconds() / int64(data.Endpoints[path]),
		})
	}
	sort.Slice(data.AvgResponseTimes, func(i, j int) bool {
		return data.AvgResponseTimes[i].Endpoint < data.AvgResponseTimes[j].Endpoint
	})

	// 新しい順に最大10件の5xxを返す
	for i := len(logs) - 1; i >= 0 && len(data.RecentErrors) < 10; i-- {
		if logs[i].StatusCode >= 500 && logs[i].Timestamp.After(since) {
			data.RecentErrors = append(data.RecentErrors, logs[i])
		}
	}

	return data
}
