package util

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderXRequestID = "X-Request-ID"

// TraceLogger 追踪中间件，为每个 HTTP 请求和 WS 握手生成或透传 trace_id。
// WebSocket 升级也走这条链，连接级 ctx 会继承同一个 trace_id，
// 一条连接上的全部上行事件日志都能按它检索。
func TraceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 优先透传上游反向代理带来的请求 ID
		traceId := c.GetHeader(HeaderXRequestID)
		if traceId == "" {
			traceId = uuid.New().String()
		}

		// 写入 Gin 上下文，NewContextWithGin 会把它带进业务 ctx
		c.Set("trace_id", traceId)

		// 回写响应头，客户端报障时带上该 ID 即可检索全链路日志
		c.Header(HeaderXRequestID, traceId)

		c.Next()
	}
}

// NewUUID 生成新的 UUID（call_id 等业务标识）
func NewUUID() string {
	return uuid.New().String()
}
