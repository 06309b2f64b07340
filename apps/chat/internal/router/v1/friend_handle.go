package v1

import (
	"LinkChat/apps/chat/internal/middleware"
	"LinkChat/apps/chat/internal/service"
	"LinkChat/consts"
	"LinkChat/pkg/logger"
	"LinkChat/pkg/result"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友处理器
type FriendHandler struct {
	friendService service.FriendService
}

// NewFriendHandler 创建好友处理器
func NewFriendHandler(friendService service.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// GetAvailableUsers 获取可添加用户列表接口
// @Summary 获取可添加用户列表
// @Description 列出可以发起好友申请的用户（排除本人、好友、有待处理申请的）
// @Tags 好友接口
// @Produce json
// @Success 200 {object} dto.GetAvailableUsersResponse
// @Router /api/v1/auth/friend/available [get]
func (h *FriendHandler) GetAvailableUsers(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	resp, err := h.friendService.ListAvailable(ctx, userUUID)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "获取可添加用户服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// GetFriendList 获取好友列表接口
// @Summary 获取好友列表
// @Description 获取好友列表（附带在线状态）
// @Tags 好友接口
// @Produce json
// @Success 200 {object} dto.GetFriendListResponse
// @Router /api/v1/auth/friend/list [get]
func (h *FriendHandler) GetFriendList(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	resp, err := h.friendService.ListFriends(ctx, userUUID)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "获取好友列表服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// GetFriendRequests 获取好友申请列表接口
// @Summary 获取好友申请列表
// @Description 获取发给自己的待处理好友申请
// @Tags 好友接口
// @Produce json
// @Success 200 {object} dto.GetFriendRequestsResponse
// @Router /api/v1/auth/friend/requests [get]
func (h *FriendHandler) GetFriendRequests(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	resp, err := h.friendService.ListRequests(ctx, userUUID)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "获取好友申请服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// SendFriendRequest 发送好友申请接口
// @Summary 发送好友申请
// @Description 向目标用户发送好友申请
// @Tags 好友接口
// @Produce json
// @Param uuid path string true "目标用户 UUID"
// @Router /api/v1/auth/friend/request/{uuid} [post]
func (h *FriendHandler) SendFriendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	targetUUID := c.Param("uuid")
	if targetUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.SendRequest(ctx, userUUID, targetUUID); err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			// 业务逻辑失败（如已经是好友、重复申请）
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "发送好友申请服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("target_uuid", targetUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// AcceptFriendRequest 同意好友申请接口
// @Summary 同意好友申请
// @Description 同意来自指定用户的好友申请，建立双向好友关系
// @Tags 好友接口
// @Produce json
// @Param uuid path string true "申请人 UUID"
// @Router /api/v1/auth/friend/accept/{uuid} [post]
func (h *FriendHandler) AcceptFriendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	fromUUID := c.Param("uuid")
	if fromUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.AcceptRequest(ctx, userUUID, fromUUID); err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "同意好友申请服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("from_uuid", fromUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// RejectFriendRequest 拒绝好友申请接口
// @Summary 拒绝好友申请
// @Description 拒绝来自指定用户的好友申请
// @Tags 好友接口
// @Produce json
// @Param uuid path string true "申请人 UUID"
// @Router /api/v1/auth/friend/reject/{uuid} [post]
func (h *FriendHandler) RejectFriendRequest(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	fromUUID := c.Param("uuid")
	if fromUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.RejectRequest(ctx, userUUID, fromUUID); err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "拒绝好友申请服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("from_uuid", fromUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}

// DeleteFriend 删除好友接口
// @Summary 删除好友
// @Description 解除与指定用户的双向好友关系
// @Tags 好友接口
// @Produce json
// @Param uuid path string true "好友 UUID"
// @Router /api/v1/auth/friend/{uuid} [delete]
func (h *FriendHandler) DeleteFriend(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	friendUUID := c.Param("uuid")
	if friendUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.DeleteFriend(ctx, userUUID, friendUUID); err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "删除好友服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("friend_uuid", friendUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, nil)
}
