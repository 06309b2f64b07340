package router

import (
	"LinkChat/apps/chat/internal/handler"
	"LinkChat/apps/chat/internal/middleware"
	v1 "LinkChat/apps/chat/internal/router/v1"
	"LinkChat/apps/chat/internal/service"
	"LinkChat/config"
	"LinkChat/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的处理器集合（依赖注入）
type Handlers struct {
	Auth    *v1.AuthHandler
	User    *v1.UserHandler
	Friend  *v1.FriendHandler
	Message *v1.MessageHandler
	Call    *v1.CallHandler
	WS      *handler.WSHandler
}

// InitRouter 初始化路由
func InitRouter(cfg config.ServerConfig, authService service.AuthService, h Handlers) *gin.Engine {
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery(true))

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware())

	// IP 限流中间件（Redis 令牌桶，Redis 不可用时本地兜底）
	r.Use(middleware.IPRateLimitMiddleware(cfg.RateLimitPerSec, cfg.RateLimitBurst))

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus 指标暴露接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket 接入（token 走 query 参数，不经过 JWT 中间件）
	r.GET("/ws", h.WS.ServeWS)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 公开接口（不需要认证）
		public := api.Group("/public")
		{
			auth := public.Group("/auth")
			{
				auth.POST("/register", h.Auth.Register)
				auth.POST("/login", h.Auth.Login)
			}
		}

		// 需要认证的接口
		auth := api.Group("/auth")
		auth.Use(middleware.JWTAuthMiddleware(authService))
		{
			// 认证相关接口
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/check", h.Auth.Check)

			// 用户资料
			auth.PUT("/user/profile", h.User.UpdateProfile)

			// 好友关系
			friend := auth.Group("/friend")
			{
				friend.GET("/available", h.Friend.GetAvailableUsers)
				friend.GET("/list", h.Friend.GetFriendList)
				friend.GET("/requests", h.Friend.GetFriendRequests)
				friend.POST("/request/:uuid", h.Friend.SendFriendRequest)
				friend.POST("/accept/:uuid", h.Friend.AcceptFriendRequest)
				friend.POST("/reject/:uuid", h.Friend.RejectFriendRequest)
				friend.DELETE("/:uuid", h.Friend.DeleteFriend)
			}

			// 单聊消息
			message := auth.Group("/message")
			{
				message.GET("/sidebar", h.Message.GetSidebar)
				message.GET("/:uuid", h.Message.GetMessageList)
				message.POST("/:uuid", h.Message.SendMessage)
			}

			// 通话
			call := auth.Group("/call")
			{
				call.POST("/initiate", h.Call.InitiateCall)
				call.GET("/status/:callId", h.Call.GetCallStatus)
				call.GET("/history", h.Call.GetCallHistory)
			}
		}
	}

	return r
}
