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

// CallHandler 通话处理器
// 状态流转事件（接听/拒接/挂断）走 WebSocket 通道，
// HTTP 只承载发起、状态查询与历史记录
type CallHandler struct {
	callService service.CallService
}

// NewCallHandler 创建通话处理器
func NewCallHandler(callService service.CallService) *CallHandler {
	return &CallHandler{
		callService: callService,
	}
}

// InitiateCall 发起通话接口
// @Summary 发起通话
// @Description 向指定用户发起通话；双方都不在通话中时创建会话并推送 incomingCall
// @Tags 通话接口
// @Accept json
// @Produce json
// @Param request body dto.InitiateCallRequest true "发起通话请求"
// @Success 200 {object} dto.InitiateCallResponse
// @Router /api/v1/auth/call/initiate [post]
func (h *CallHandler) InitiateCall(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	var req dto.InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.callService.Initiate(ctx, userUUID, req.ReceiverID)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			// 业务逻辑失败（如一方忙线、被叫不存在）
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "发起通话服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("receiver_uuid", req.ReceiverID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// GetCallStatus 查询通话状态接口
// @Summary 查询通话状态
// @Description 查询通话状态快照，仅通话参与方可访问
// @Tags 通话接口
// @Produce json
// @Param callId path string true "通话 ID"
// @Success 200 {object} dto.CallStatusResponse
// @Router /api/v1/auth/call/status/{callId} [get]
func (h *CallHandler) GetCallStatus(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	callID := c.Param("callId")
	if callID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.callService.Status(ctx, callID, userUUID)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "查询通话状态服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.String("call_id", callID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// GetCallHistory 获取通话历史接口
// @Summary 获取通话历史
// @Description 获取当前用户参与的通话记录，按开始时间倒序分页，附带对端展示信息
// @Tags 通话接口
// @Produce json
// @Param page query int false "页码(默认1)"
// @Param pageSize query int false "每页数量(默认30，上限100)"
// @Success 200 {object} dto.CallHistoryResponse
// @Router /api/v1/auth/call/history [get]
func (h *CallHandler) GetCallHistory(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.MustUserUUID(c)
	if !ok {
		return
	}

	var req dto.CallHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.callService.History(ctx, userUUID, req.Page, req.PageSize)
	if err != nil {
		if code := extractErrorCode(err); consts.IsNonServerError(code) {
			result.Fail(c, nil, code)
			return
		}

		logger.Error(ctx, "获取通话历史服务内部错误",
			logger.String("user_uuid", userUUID),
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
