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

// UserHandler 用户资料处理器
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建用户资料处理器
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UpdateProfile 更新个人资料接口
// @Summary 更新个人资料
// @Description 更新昵称/头像，头像支持 URL 或 base64（base64 上传对象存储后存 URL）
// @Tags 用户接口
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "更新资料请求"
// @Success 200 {object} dto.ProfileResponse
// @Router /api/v1/auth/user/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	profile, err := h.userService.UpdateProfile(ctx, userUUID, &req)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "更新资料服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, profile)
}
