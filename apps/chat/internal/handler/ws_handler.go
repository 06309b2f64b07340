package handler

import (
	"LinkChat/apps/chat/internal/manager"
	"LinkChat/apps/chat/internal/protocol"
	"LinkChat/apps/chat/internal/service"
	"LinkChat/pkg/logger"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// WebSocket 协议层业务错误码（仅用于 ws 帧内的 error 消息，不是 HTTP 状态码）。
	wsMessageInvalidFormatCode = 10001
	wsMessageUnsupportedCode   = 10002
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 当前阶段默认放开来源校验，方便本地多端调试。
	// 生产环境建议按域名白名单收紧校验策略。
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WSHandler 负责处理 /ws 接入请求。
// 职责边界：
// - 处理 Gin/HTTP 层参数、升级与错误响应；
// - 鉴权交给 authService，事件分发到 call/signal/user 服务；
// - 调用 manager 维护连接生命周期，连接增减后全量广播在线列表。
type WSHandler struct {
	connManager *manager.ConnectionManager
	authService service.AuthService
	userService service.UserService
	callService service.CallService
	signalSvc   service.SignalService
}

// NewWSHandler 创建 WebSocket 入口处理器。
func NewWSHandler(
	connManager *manager.ConnectionManager,
	authService service.AuthService,
	userService service.UserService,
	callService service.CallService,
	signalSvc service.SignalService,
) *WSHandler {
	return &WSHandler{
		connManager: connManager,
		authService: authService,
		userService: userService,
		callService: callService,
		signalSvc:   signalSvc,
	}
}

// ServeWS 处理 WebSocket 握手与接入。
// 执行流程：
// 1. 从 query 中读取 token 并鉴权；
// 2. 构建连接级 context（注入 trace_id）；
// 3. 完成协议升级并进入连接处理主循环。
func (h *WSHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "token is required",
		})
		return
	}

	userUUID, err := h.authService.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "token invalid or expired",
		})
		return
	}

	connCtx := context.Background()
	if traceID, ok := c.Value("trace_id").(string); ok && traceID != "" {
		connCtx = context.WithValue(connCtx, "trace_id", traceID) //nolint:staticcheck
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败", logger.ErrorField("error", err))
		return
	}

	h.handleConnection(connCtx, conn, userUUID)
}

// handleConnection 承载单个连接的完整生命周期。
// 关键语义：
// - 同一用户重复连接时，用新连接替换旧连接（last-connect-wins）；
// - 连接建立/断开后全量广播 getOnlineUsers；
// - 断开时兜底结束该用户参与的存活通话。
func (h *WSHandler) handleConnection(ctx context.Context, conn *websocket.Conn, userUUID string) {
	client := manager.NewClient(conn, userUUID)
	replaced := h.connManager.Register(client)
	if replaced != nil {
		replaced.Close()
	}

	h.broadcastOnlineUsers(ctx)
	logger.Info(ctx, "WebSocket 连接已建立",
		logger.String("user_uuid", userUUID),
		logger.Int("online_count", h.connManager.Count()),
	)

	client.Run(ctx, func(raw []byte) {
		h.handleMessage(ctx, client, userUUID, raw)
	}, func() {
		// 被重连挤掉的旧连接收尾时用户仍在线，
		// 不能广播下线，更不能兜底结束该用户的存活通话
		if !h.connManager.Unregister(client) {
			logger.Info(ctx, "旧连接已被新连接替换，跳过下线处理",
				logger.String("user_uuid", userUUID),
			)
			return
		}
		h.broadcastOnlineUsers(ctx)
		h.callService.HandleDisconnect(ctx, userUUID)
		logger.Info(ctx, "WebSocket 连接已断开",
			logger.String("user_uuid", userUUID),
			logger.Int("online_count", h.connManager.Count()),
		)
	})
}

// broadcastOnlineUsers 向所有在线连接广播在线用户全量列表。
// O(在线数) 的全量广播，在线规模上去后需要换成增量/订阅模型。
func (h *WSHandler) broadcastOnlineUsers(ctx context.Context) {
	payload, err := protocol.Marshal(protocol.EventGetOnlineUsers, protocol.OnlineUsersData{
		OnlineUserIds: h.connManager.OnlineUsers(),
	})
	if err != nil {
		logger.Warn(ctx, "在线列表序列化失败", logger.ErrorField("error", err))
		return
	}
	h.connManager.Broadcast(payload)
}

// handleMessage 处理客户端上行帧。
// 上行事件是封闭集合，穷举分发；未知类型返回 error 帧。
func (h *WSHandler) handleMessage(ctx context.Context, client *manager.Client, userUUID string, raw []byte) {
	envelope, err := protocol.ParseEnvelope(raw)
	if err != nil {
		h.sendErrorFrame(ctx, client, wsMessageInvalidFormatCode, "invalid frame format")
		return
	}

	switch envelope.Type {
	case protocol.EventHeartbeat:
		h.userService.TouchActive(ctx, userUUID)
		ack, marshalErr := protocol.Marshal(protocol.EventHeartbeatAck, nil)
		if marshalErr != nil {
			logger.Warn(ctx, "心跳应答序列化失败", logger.ErrorField("error", marshalErr))
			return
		}
		if !client.Enqueue(ack) {
			client.Close()
		}

	case protocol.EventOfferSignal, protocol.EventAnswerSignal, protocol.EventICECandidate:
		h.signalSvc.Relay(ctx, userUUID, envelope.Type, envelope.Data)

	case protocol.EventCallAccepted:
		if callID, ok := parseCallID(envelope.Data); ok {
			h.callService.Accept(ctx, callID, userUUID)
		}

	case protocol.EventCallRejected:
		if callID, ok := parseCallID(envelope.Data); ok {
			h.callService.Reject(ctx, callID, userUUID)
		}

	case protocol.EventEndCall:
		if callID, ok := parseCallID(envelope.Data); ok {
			h.callService.End(ctx, callID, userUUID)
		}

	default:
		h.sendErrorFrame(ctx, client, wsMessageUnsupportedCode, "unsupported message type")
	}
}

// parseCallID 从生命周期事件体中取 callId，缺失时丢弃事件
func parseCallID(raw []byte) (string, bool) {
	var data protocol.CallEventData
	if err := json.Unmarshal(raw, &data); err != nil || data.CallID == "" {
		return "", false
	}
	return data.CallID, true
}

// sendErrorFrame 发送 ws 协议层错误帧。
// 发送失败通常表示连接不可写，此时主动关闭连接避免资源泄漏。
func (h *WSHandler) sendErrorFrame(ctx context.Context, client *manager.Client, code int, message string) {
	payload, err := protocol.Marshal(protocol.EventError, protocol.ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		logger.Warn(ctx, "错误帧序列化失败",
			logger.Int("code", code),
			logger.ErrorField("error", err),
		)
		return
	}
	if !client.Enqueue(payload) {
		client.Close()
	}
}
