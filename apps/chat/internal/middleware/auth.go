package middleware

import (
	"LinkChat/apps/chat/internal/service"
	"LinkChat/consts"
	"LinkChat/pkg/result"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware JWT 认证中间件
// 从请求头中提取 Token 并交给 authService 校验（JWT 签名 + Redis 指纹），
// 验证通过后将用户 UUID 存入 Context
func JWTAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 中获取 Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// 客户端请求错误,属于正常业务流程,不记录日志
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    consts.CodeUnauthorized,
				"message": consts.GetMessage(consts.CodeUnauthorized),
			})
			return
		}

		// 2. 验证格式: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    consts.CodeInvalidToken,
				"message": "认证格式错误",
			})
			return
		}

		// 3. 解析并验证 Token（Redis 故障时降级为仅 JWT 校验）
		userUUID, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    consts.CodeInvalidToken,
				"message": consts.GetMessage(consts.CodeInvalidToken),
			})
			return
		}

		// 4. 将用户信息存入 Context，供后续 Handler 使用
		c.Set("user_uuid", userUUID)

		c.Next()
	}
}

// GetUserUUID 从 Context 中获取当前登录用户的 UUID
func GetUserUUID(c *gin.Context) (string, bool) {
	userUUID, exists := c.Get("user_uuid")
	if !exists {
		return "", false
	}
	uuid, ok := userUUID.(string)
	return uuid, ok
}

// MustUserUUID 获取当前登录用户 UUID，获取失败时直接写 401 响应。
// 仅用于挂在 JWTAuthMiddleware 之后的 Handler。
func MustUserUUID(c *gin.Context) (string, bool) {
	uuid, ok := GetUserUUID(c)
	if !ok || uuid == "" {
		result.Fail(c, nil, consts.CodeUnauthorized)
		c.Abort()
		return "", false
	}
	return uuid, true
}
