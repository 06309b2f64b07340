package rediskey

import (
	"fmt"
	"time"
)

// ==================== TTL 常量 ====================

const (
	// UserInfoTTL 用户信息缓存 TTL
	UserInfoTTL = 1 * time.Hour
	// UserInfoEmptyTTL 用户信息空值缓存 TTL（防穿透）
	UserInfoEmptyTTL = 5 * time.Minute

	// UserActiveTTL 用户活跃时间缓存 TTL
	UserActiveTTL = 7 * 24 * time.Hour
)

// ==================== Key 构造函数 ====================

// AccessTokenKey 生成 AccessToken Key: auth:at:{user_uuid}
// value 为 access_token 的 md5，登录写入、登出删除，
// WebSocket 握手鉴权时比对（Redis 不可用时降级为仅 JWT 校验）。
func AccessTokenKey(userUUID string) string {
	return fmt.Sprintf("auth:at:%s", userUUID)
}

// UserInfoKey 生成用户信息缓存 Key: user:info:{uuid}
func UserInfoKey(uuid string) string {
	return fmt.Sprintf("user:info:%s", uuid)
}

// UserActiveKey 生成用户活跃时间 Key: user:active:{uuid}
// value 为最近一次心跳的 unix 秒。
func UserActiveKey(userUUID string) string {
	return fmt.Sprintf("user:active:%s", userUUID)
}

// IPRateLimitKey 生成 IP 限流 Key: rate:limit:ip:{ip}
func IPRateLimitKey(ip string) string {
	return fmt.Sprintf("rate:limit:ip:%s", ip)
}
