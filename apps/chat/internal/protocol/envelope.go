package protocol

import (
	"encoding/json"
	"errors"
	"strings"
)

// 事件类型为封闭集合：上行事件在 ws_handler 中做穷举分发，
// 新增事件必须同时扩展这里的常量与分发表。
const (
	// ==================== 上行（客户端 → 服务端） ====================

	// EventHeartbeat 心跳
	EventHeartbeat = "heartbeat"
	// EventOfferSignal WebRTC offer 信令（透传）
	EventOfferSignal = "offerSignal"
	// EventAnswerSignal WebRTC answer 信令（透传）
	EventAnswerSignal = "answerSignal"
	// EventICECandidate ICE candidate（透传）
	EventICECandidate = "iceCandidate"
	// EventCallAccepted 被叫接听
	EventCallAccepted = "callAccepted"
	// EventCallRejected 被叫拒接
	EventCallRejected = "callRejected"
	// EventEndCall 任一方挂断
	EventEndCall = "endCall"

	// ==================== 下行（服务端 → 客户端） ====================

	// EventHeartbeatAck 心跳应答
	EventHeartbeatAck = "heartbeat_ack"
	// EventGetOnlineUsers 在线用户全量广播
	EventGetOnlineUsers = "getOnlineUsers"
	// EventIncomingCall 来电通知（仅发给被叫）
	EventIncomingCall = "incomingCall"
	// EventCallEnded 通话结束通知（发给另一方）
	EventCallEnded = "callEnded"
	// EventCallTimeout 呼叫超时未接听（发给主叫）
	EventCallTimeout = "callTimeout"
	// EventNewMessage 新消息推送
	EventNewMessage = "newMessage"
	// EventError 协议层错误帧
	EventError = "error"
)

// Envelope WebSocket 通用消息包格式。
// Type: 事件类型；Data: 事件体（由上层按 Type 再解析）。
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ParseEnvelope 解析客户端上行帧。
// 若 type 缺失或 JSON 不合法，返回错误交由 handler 返回 error 帧。
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	envelope.Type = strings.TrimSpace(envelope.Type)
	if envelope.Type == "" {
		return nil, errors.New("type is required")
	}
	return &envelope, nil
}

// Marshal 组装并序列化下行帧。
// 约定：data=nil 时省略 data 字段，避免无意义空对象。
func Marshal(eventType string, data any) ([]byte, error) {
	envelope := map[string]any{
		"type": eventType,
	}
	if data != nil {
		envelope["data"] = data
	}
	return json.Marshal(envelope)
}

// ==================== 事件体定义 ====================

// OnlineUsersData getOnlineUsers 事件体
type OnlineUsersData struct {
	OnlineUserIds []string `json:"onlineUserIds"`
}

// IncomingCallData incomingCall 事件体
type IncomingCallData struct {
	CallID       string `json:"callId"`
	CallerID     string `json:"callerId"`
	CallerName   string `json:"callerName"`
	CallerAvatar string `json:"callerAvatar"`
}

// CallEventData callAccepted/callRejected/endCall/callEnded/callTimeout 事件体
type CallEventData struct {
	CallID string `json:"callId"`
}

// SignalInbound 上行信令路由字段。
// Signal/Candidate 是对端协商协议的不透明载荷，服务端不解析内容。
type SignalInbound struct {
	CallID    string          `json:"callId"`
	Signal    json.RawMessage `json:"signal,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	To        string          `json:"to"`
}

// SignalOutbound 下行信令，to 被替换为 from 后原样转发。
type SignalOutbound struct {
	CallID    string          `json:"callId"`
	Signal    json.RawMessage `json:"signal,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	From      string          `json:"from"`
}

// ErrorData type=error 时的 data 结构
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
