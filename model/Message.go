package model

import (
	"time"

	"gorm.io/gorm"
)

// Message 单聊消息表。
// 投递回执与离线队列不在服务端职责内，消息落库后尽力推送一次。
type Message struct {
	Id           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	SenderUuid   string `gorm:"column:sender_uuid;type:char(20);not null;index:idx_pair,priority:1;comment:发送方uuid"`
	ReceiverUuid string `gorm:"column:receiver_uuid;type:char(20);not null;index:idx_pair,priority:2;comment:接收方uuid"`
	Text         string `gorm:"column:text;type:varchar(2048);comment:文本内容"`
	Image        string `gorm:"column:image;type:varchar(256);comment:图片URL"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Message) TableName() string { return "message" }
