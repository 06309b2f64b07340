package dto

import (
	"LinkChat/model"
)

// ==================== 消息相关 DTO ====================

// SendMessageRequest 发送消息请求 DTO（接收方取自路径参数）
// Text 和 Image 至少一个非空（服务层校验）；Image 为 base64 Data URL
type SendMessageRequest struct {
	Text  string `json:"text" binding:"omitempty,max=2000"` // 文本内容
	Image string `json:"image" binding:"omitempty"`         // 图片（base64）
}

// MessageItem 消息 DTO
type MessageItem struct {
	ID           int64  `json:"id"`           // 消息ID
	SenderUUID   string `json:"senderUuid"`   // 发送方UUID
	ReceiverUUID string `json:"receiverUuid"` // 接收方UUID
	Text         string `json:"text"`         // 文本内容
	Image        string `json:"image"`        // 图片URL
	CreatedAt    int64  `json:"createdAt"`    // 发送时间（毫秒时间戳）
}

// SendMessageResponse 发送消息响应 DTO
type SendMessageResponse struct {
	Message *MessageItem `json:"message"` // 已落库的消息
}

// GetMessageListRequest 获取消息列表请求 DTO（对端取自路径参数）
type GetMessageListRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`                 // 页码
	PageSize int `form:"pageSize" json:"pageSize" binding:"omitempty,min=1,max=200"` // 每页大小
}

// GetMessageListResponse 获取消息列表响应 DTO
type GetMessageListResponse struct {
	Items []*MessageItem `json:"items"` // 消息列表（时间正序）
}

// SidebarItem 会话侧边栏条目 DTO
type SidebarItem struct {
	User          *UserInfoItem `json:"user"`          // 对端用户
	LastMessageAt int64         `json:"lastMessageAt"` // 最近一条消息时间（毫秒时间戳）
}

// GetSidebarResponse 会话侧边栏响应 DTO
type GetSidebarResponse struct {
	Items []*SidebarItem `json:"items"` // 按最近消息倒序
}

// ConvertToMessageItem 将消息模型转换为 DTO
func ConvertToMessageItem(msg *model.Message) *MessageItem {
	if msg == nil {
		return nil
	}
	return &MessageItem{
		ID:           msg.Id,
		SenderUUID:   msg.SenderUuid,
		ReceiverUUID: msg.ReceiverUuid,
		Text:         msg.Text,
		Image:        msg.Image,
		CreatedAt:    msg.CreatedAt.UnixMilli(),
	}
}
