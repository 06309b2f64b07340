package middleware

import (
	"LinkChat/consts"
	rediskey "LinkChat/consts/redisKey"
	"LinkChat/pkg/logger"
	pkgredis "LinkChat/pkg/redis"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// luaTokenBucket Redis 令牌桶 Lua 脚本
// 原子性地补充令牌并判断是否允许通过
// 参数：
//
//	KEYS[1]: 限流 key (如: rate:limit:ip:{ip})
//	ARGV[1]: 当前时间戳 (毫秒)
//	ARGV[2]: 令牌桶容量
//	ARGV[3]: 每秒产生的令牌数
//	ARGV[4]: 每次请求消耗的令牌数
//
// 返回值：1 允许通过，0 令牌不足
const luaTokenBucket = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

if current_tokens == nil then
    current_tokens = capacity
end
if last_time == nil then
    last_time = now
end

-- 毫秒精度补充令牌，只有真正补到令牌才推进时间，防止精度丢失
local time_diff = math.max(0, now - last_time)
local new_tokens = math.floor((time_diff * rate) / 1000)
if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now
end

local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

redis.call('HMSET', key, 'tokens', current_tokens, 'last_time', last_time)

-- 过期时间：桶填满所需时间 * 2，至少 60 秒
local fill_time = math.ceil(capacity / rate)
local ttl = math.max(60, fill_time * 2)
redis.call('EXPIRE', key, ttl)

return allowed
`

// RedisRateLimiter 基于 Redis 令牌桶的限流器
// Redis 不可用时退化为本地令牌桶（单实例兜底），不拒绝请求风暴之外的正常流量
type RedisRateLimiter struct {
	mu          sync.RWMutex
	redisClient *redis.Client

	rate  float64 // 每秒产生的令牌数
	burst int     // 令牌桶容量

	// 本地兜底限流器，仅在 Redis 不可用时生效
	local *rate.Limiter
}

// NewRedisRateLimiter 创建限流器
// ratePerSec: 每秒产生的令牌数；burst: 令牌桶容量
func NewRedisRateLimiter(ratePerSec float64, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{
		rate:  ratePerSec,
		burst: burst,
		local: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// SetRedisClient 设置 Redis 客户端
// 使用延迟初始化避免启动顺序依赖
func (r *RedisRateLimiter) SetRedisClient(client *redis.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redisClient = client
}

// Allow 检查是否允许请求通过
// Redis 超时或出错时降级为本地令牌桶判断
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	r.mu.RLock()
	client := r.redisClient
	r.mu.RUnlock()

	if client == nil {
		return r.local.Allow()
	}

	// 给 Redis 操作加独立短超时，防止 Redis 响应慢拖死入口
	redisCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	now := time.Now().UnixMilli()
	result, err := client.Eval(redisCtx, luaTokenBucket, []string{key}, now, r.burst, r.rate, 1).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 限流检查超时，降级为本地限流",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
		} else {
			logger.Error(ctx, "Redis 限流检查失败，降级为本地限流",
				logger.String("key", key),
				logger.ErrorField("error", err),
			)
		}
		return r.local.Allow()
	}

	allowed, ok := result.(int64)
	if !ok {
		logger.Warn(ctx, "Redis 限流返回值类型错误，放行",
			logger.String("key", key),
			logger.Any("result", result),
		)
		return true
	}
	return allowed == 1
}

// IPRateLimitMiddleware 基于 Redis 的 IP 级别限流中间件
// ratePerSec: 每秒产生的令牌数；burst: 令牌桶容量
func IPRateLimitMiddleware(ratePerSec float64, burst int) gin.HandlerFunc {
	limiter := NewRedisRateLimiter(ratePerSec, burst)

	// 懒加载 Redis Client，只执行一次
	var once sync.Once

	return func(c *gin.Context) {
		once.Do(func() {
			if client := pkgredis.Client(); client != nil {
				limiter.SetRedisClient(client)
			}
		})

		ip, exists := GetClientIPSafe(c)
		if !exists || ip == "" {
			// 无法获取 IP，放行请求（记录警告）
			logger.Warn(NewContextWithGin(c), "无法获取客户端 IP，跳过限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		if !limiter.Allow(c.Request.Context(), rediskey.IPRateLimitKey(ip)) {
			logger.Warn(NewContextWithGin(c), "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    consts.CodeTooManyRequests,
				"message": consts.GetMessage(consts.CodeTooManyRequests),
			})
			return
		}

		c.Next()
	}
}
