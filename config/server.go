package config

import (
	"os"
	"time"
)

// ServerConfig HTTP 服务运行参数。
// 超时用于限制异常连接占用资源，避免慢连接拖垮服务。
// 注意：/ws 升级后的长连接不受 ReadTimeout/WriteTimeout 约束（由连接层自行管理）。
type ServerConfig struct {
	Addr              string        `json:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
	IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	// IP 级限流参数（令牌桶）
	RateLimitPerSec float64 `json:"rateLimitPerSec" yaml:"rateLimitPerSec"` // 每秒产生的令牌数
	RateLimitBurst  int     `json:"rateLimitBurst" yaml:"rateLimitBurst"`   // 令牌桶容量
}

// DefaultServerConfig 返回默认配置。
// 端口优先读取 SERVER_ADDR，未设置时默认监听 :8080。
func DefaultServerConfig() ServerConfig {
	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return ServerConfig{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		RateLimitPerSec:   20,
		RateLimitBurst:    40,
	}
}
