package service

import (
	"LinkChat/apps/chat/internal/protocol"
	"LinkChat/pkg/logger"
	"context"
	"encoding/json"
)

// signalServiceImpl WebRTC 信令中继实现。
// 服务端只做路由：把 to 换成 from 后原样转发，
// 不解析 signal/candidate 内容，不做应答确认，不重试。
type signalServiceImpl struct {
	pusher Pusher
}

// NewSignalService 创建信令服务实例
func NewSignalService(pusher Pusher) SignalService {
	return &signalServiceImpl{pusher: pusher}
}

// Relay 转发信令事件
// raw 为上行帧的 data 字段；解析失败或目标不在线都静默丢弃——
// 信令丢失由客户端的协商超时机制兜底
func (s *signalServiceImpl) Relay(ctx context.Context, fromUUID, event string, raw []byte) {
	var inbound protocol.SignalInbound
	if err := json.Unmarshal(raw, &inbound); err != nil {
		logger.Debug(ctx, "信令帧解析失败，丢弃",
			logger.String("event", event),
			logger.ErrorField("error", err),
		)
		return
	}
	if inbound.To == "" || inbound.CallID == "" {
		return
	}

	payload, err := protocol.Marshal(event, protocol.SignalOutbound{
		CallID:    inbound.CallID,
		Signal:    inbound.Signal,
		Candidate: inbound.Candidate,
		From:      fromUUID,
	})
	if err != nil {
		logger.Error(ctx, "信令帧序列化失败", logger.ErrorField("error", err))
		return
	}

	if !s.pusher.SendToUser(inbound.To, payload) {
		logger.Debug(ctx, "信令目标不在线，丢弃",
			logger.String("event", event),
			logger.String("call_id", inbound.CallID),
			logger.String("to", inbound.To),
		)
	}
}
