package v1

import (
	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/middleware"
	"LinkChat/apps/chat/internal/service"
	"LinkChat/consts"
	"LinkChat/pkg/logger"
	"LinkChat/pkg/result"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Register 用户注册接口
// @Summary 用户注册
// @Description 用户通过邮箱和密码注册
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册请求"
// @Success 200 {object} dto.RegisterResponse
// @Router /api/v1/public/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	// 1. 绑定请求数据
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 参数错误由客户端输入导致,属于正常业务流程,不记录日志
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	// 2. 调用服务层处理业务逻辑
	registerResp, err := h.authService.Register(ctx, &req)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			// 业务逻辑失败（如邮箱已占用）
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "注册服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	// 3. 返回成功响应
	result.Success(c, registerResp)
}

// Login 用户登录接口
// @Summary 用户登录
// @Description 用户通过邮箱和密码登录
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.LoginResponse
// @Router /api/v1/public/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	loginResp, err := h.authService.Login(ctx, &req)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			// 业务逻辑失败（如密码错误）
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "登录服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, loginResp)
}

// Logout 用户登出接口
// @Summary 用户登出
// @Description 吊销当前访问令牌
// @Tags 认证接口
// @Produce json
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(ctx, userUUID); err != nil {
		logger.Error(ctx, "登出服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// Check 令牌校验接口
// @Summary 令牌校验
// @Description 校验当前令牌并返回用户资料，供前端恢复会话使用
// @Tags 认证接口
// @Produce json
// @Success 200 {object} dto.ProfileResponse
// @Router /api/v1/auth/check [get]
func (h *AuthHandler) Check(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(ctx, userUUID)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "令牌校验服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, profile)
}
