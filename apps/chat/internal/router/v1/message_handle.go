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

// MessageHandler 消息处理器
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// GetSidebar 获取会话侧边栏接口
// @Summary 获取会话侧边栏
// @Description 获取有过消息往来的用户列表，按最近一条消息时间倒序
// @Tags 消息接口
// @Produce json
// @Success 200 {object} dto.GetSidebarResponse
// @Router /api/v1/auth/message/sidebar [get]
func (h *MessageHandler) GetSidebar(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	resp, err := h.messageService.Sidebar(ctx, userUUID)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "获取侧边栏服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// GetMessageList 获取消息列表接口
// @Summary 获取消息列表
// @Description 获取与指定用户的双向消息，时间升序分页
// @Tags 消息接口
// @Produce json
// @Param uuid path string true "对端用户 UUID"
// @Param page query int false "页码(默认1)"
// @Param pageSize query int false "每页数量(默认50)"
// @Success 200 {object} dto.GetMessageListResponse
// @Router /api/v1/auth/message/{uuid} [get]
func (h *MessageHandler) GetMessageList(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	peerUUID := c.Param("uuid")
	if peerUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	var req dto.GetMessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.messageService.List(ctx, userUUID, peerUUID, &req)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "获取消息列表服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("peer_uuid", peerUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// SendMessage 发送消息接口
// @Summary 发送消息
// @Description 向指定用户发送文本/图片消息，落库后向双方推送 newMessage
// @Tags 消息接口
// @Accept json
// @Produce json
// @Param uuid path string true "接收方 UUID"
// @Param request body dto.SendMessageRequest true "发送消息请求"
// @Success 200 {object} dto.SendMessageResponse
// @Router /api/v1/auth/message/{uuid} [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	peerUUID := c.Param("uuid")
	if peerUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.messageService.Send(ctx, userUUID, peerUUID, &req)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			// 业务逻辑失败（如内容为空、接收方不存在）
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "发送消息服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("peer_uuid", peerUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
