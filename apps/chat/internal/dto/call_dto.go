package dto

import (
	"LinkChat/model"
)

// ==================== 通话相关 DTO ====================

// InitiateCallRequest 发起通话请求 DTO
type InitiateCallRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"` // 被叫UUID
}

// InitiateCallResponse 发起通话响应 DTO
type InitiateCallResponse struct {
	CallID         string `json:"callId"`         // 通话ID
	ReceiverOnline bool   `json:"receiverOnline"` // 被叫是否在线（离线时等待超时转未接）
}

// CallStatusResponse 通话状态查询响应 DTO
type CallStatusResponse struct {
	CallID       string `json:"callId"`            // 通话ID
	Status       string `json:"status"`            // pending/active/rejected/ended/missed
	CallerUUID   string `json:"callerUuid"`        // 主叫UUID
	ReceiverUUID string `json:"receiverUuid"`      // 被叫UUID
	StartTime    int64  `json:"startTime"`         // 发起时间（毫秒时间戳）
	EndTime      int64  `json:"endTime,omitempty"` // 结束时间（毫秒时间戳，未结束为 0）
}

// CallHistoryRequest 通话历史请求 DTO
type CallHistoryRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`                 // 页码
	PageSize int `form:"pageSize" json:"pageSize" binding:"omitempty,min=1,max=100"` // 每页大小
}

// CallHistoryItem 通话历史条目 DTO
type CallHistoryItem struct {
	CallID       string `json:"callId"`       // 通话ID
	CallerUUID   string `json:"callerUuid"`   // 主叫UUID
	ReceiverUUID string `json:"receiverUuid"` // 被叫UUID
	PeerUUID     string `json:"peerUuid"`     // 相对当前用户的对端UUID
	PeerNickname string `json:"peerNickname"` // 对端昵称
	PeerAvatar   string `json:"peerAvatar"`   // 对端头像
	Outgoing     bool   `json:"outgoing"`     // 当前用户是否主叫
	Status       string `json:"status"`       // missed/accepted/rejected/ended
	Duration     int    `json:"duration"`     // 通话时长(秒)
	StartTime    int64  `json:"startTime"`    // 发起时间（毫秒时间戳）
}

// CallHistoryResponse 通话历史响应 DTO
type CallHistoryResponse struct {
	Items []*CallHistoryItem `json:"items"` // 通话历史（按发起时间倒序）
}

// ConvertToCallHistoryItem 将通话记录模型转换为 DTO
// viewerUUID: 当前请求用户，用于计算对端和方向
func ConvertToCallHistoryItem(record *model.CallRecord, viewerUUID string) *CallHistoryItem {
	if record == nil {
		return nil
	}
	item := &CallHistoryItem{
		CallID:       record.CallId,
		CallerUUID:   record.CallerUuid,
		ReceiverUUID: record.ReceiverUuid,
		Status:       record.Status,
		Duration:     record.Duration,
		StartTime:    record.StartTime.UnixMilli(),
	}
	if record.CallerUuid == viewerUUID {
		item.Outgoing = true
		item.PeerUUID = record.ReceiverUuid
	} else {
		item.PeerUUID = record.CallerUuid
	}
	return item
}
