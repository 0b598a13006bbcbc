package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cafesync-ai/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	collector := metrics.NewCollector("test")
	monitor := NewMonitoringService(collector, nil)

	router := gin.New()
	router.Use(monitor.LoggingMiddleware())
	router.GET("/api/v1/model", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/admin/health-status", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/v1/model", "/api/v1/model", "/api/v1/admin/health-status", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	data := monitor.GetDashboardData(1)
	assert.Equal(t, 3, data.TotalRequests)
	assert.Equal(t, 2, data.Endpoints["/api/v1/model"])
	assert.Equal(t, 1, data.Endpoints["/missing"])
	assert.Equal(t, 2, data.StatusCodes["2xx Success"])
	assert.Equal(t, 1, data.StatusCodes["4xx Client Error"])

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.APIRequestsTotal.WithLabelValues("/api/v1/model", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.APIRequestsTotal.WithLabelValues("/api/v1/admin/health-status", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.APIRequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}

func TestGetDashboardData(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	monitor := NewMonitoringService(nil, nil)
	monitor.now = func() time.Time { return now }

	monitor.LogRequest(LogEntry{Timestamp: now.Add(-3 * time.Hour), Path: "/old", StatusCode: 500})
	monitor.LogRequest(LogEntry{Timestamp: now.Add(-30 * time.Minute), Path: "/b", StatusCode: 200, ResponseTime: 10 * time.Millisecond})
	monitor.LogRequest(LogEntry{Timestamp: now.Add(-20 * time.Minute), Path: "/b", StatusCode: 500, ResponseTime: 30 * time.Millisecond})
	monitor.LogRequest(LogEntry{Timestamp: now.Add(-10 * time.Minute), Path: "/a", StatusCode: 503, ResponseTime: 5 * time.Millisecond})

	data := monitor.GetDashboardData(1)

	assert.Equal(t, 3, data.TotalRequests)
	assert.Equal(t, 2, data.StatusCodes["5xx Server Error"])
	assert.Equal(t, []EndpointLatency{
		{Endpoint: "/a", ResponseTimeMs: 5},
		{Endpoint: "/b", ResponseTimeMs: 20},
	}, data.AvgResponseTimes)
	require.Len(t, data.RecentErrors, 2)
	assert.Equal(t, "/a", data.RecentErrors[0].Path)
	assert.Equal(t, "/b", data.RecentErrors[1].Path)

	wide := monitor.GetDashboardData(24)
	assert.Equal(t, 4, wide.TotalRequests)
}

func TestLogRequestRetention(t *testing.T) {
	monitor := NewMonitoringService(nil, nil)
	monitor.maxEntries = 3

	for i := range 5 {
		monitor.LogRequest(LogEntry{Timestamp: time.Now(), Path: "/p", StatusCode: 200 + i})
	}

	// 上限の2倍に達するまでは捨てずに、集計は直近3件だけを使う
	require.Len(t, monitor.logs, 5)
	assert.Equal(t, 3, monitor.GetDashboardData(1).TotalRequests)
	window := monitor.retained()
	require.Len(t, window, 3)
	assert.Equal(t, 202, window[0].StatusCode)
	assert.Equal(t, 204, window[2].StatusCode)

	monitor.LogRequest(LogEntry{Timestamp: time.Now(), Path: "/p", StatusCode: 205})

	require.Len(t, monitor.logs, 3)
	assert.Equal(t, 203, monitor.logs[0].StatusCode)
	assert.Equal(t, 205, monitor.logs[2].StatusCode)
	assert.Equal(t, 3, monitor.GetDashboardData(1).TotalRequests)
}
