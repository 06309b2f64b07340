package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkchat_http_requests_total",
			Help: "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkchat_http_request_duration_seconds",
			Help:    "HTTP 请求耗时分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	wsOnlineConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkchat_ws_online_connections",
			Help: "当前在线 WebSocket 连接数",
		},
	)

	liveCallSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkchat_live_call_sessions",
			Help: "当前内存中的通话会话数（含终态滞留期）",
		},
	)
)

// PrometheusMiddleware HTTP 指标采集中间件
// 使用路由模板 (c.FullPath) 作为 path 标签，避免路径参数导致标签爆炸
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			// 未匹配任何路由（404），统一归并
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// SetOnlineConnections 更新在线连接数指标
func SetOnlineConnections(n int) {
	wsOnlineConnections.Set(float64(n))
}

// SetLiveCallSessions 更新会话表规模指标
func SetLiveCallSessions(n int) {
	liveCallSessions.Set(float64(n))
}
