package model

import (
	"time"

	"gorm.io/gorm"
)

// CallRecord 通话历史表。
// 与内存中的通话会话相互独立：记录在发起时以悲观默认值 missed 创建，
// 会话状态流转时原地更新，永不删除。写入是尽力而为的——
// 持久化失败只记日志，不回滚也不阻塞实时通话状态。
type CallRecord struct {
	Id int64 `gorm:"column:id;primaryKey;autoIncrement"`

	// 通话唯一标识（发起时生成的 uuid），一条通话一条记录
	CallId string `gorm:"column:call_id;type:char(36);not null;uniqueIndex;comment:通话uuid"`

	CallerUuid   string `gorm:"column:caller_uuid;type:char(20);not null;index:idx_caller_created,priority:1;comment:主叫uuid"`
	ReceiverUuid string `gorm:"column:receiver_uuid;type:char(20);not null;index:idx_receiver_created,priority:1;comment:被叫uuid"`

	// missed(未接) / accepted(已接) / rejected(已拒) / ended(已结束)
	Status string `gorm:"column:status;type:varchar(16);not null;default:'missed';comment:通话结果"`

	// 通话时长（秒），end_time - start_time 四舍五入；未接通时为 0
	Duration int `gorm:"column:duration;not null;default:0;comment:通话时长(秒)"`

	StartTime time.Time  `gorm:"column:start_time;not null;comment:发起时间"`
	EndTime   *time.Time `gorm:"column:end_time;comment:结束时间"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index:idx_caller_created,priority:2;index:idx_receiver_created,priority:2"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (CallRecord) TableName() string { return "call_record" }

const (
	// CallRecordMissed 未接（悲观默认值，发起即写入）
	CallRecordMissed = "missed"
	// CallRecordAccepted 已接听
	CallRecordAccepted = "accepted"
	// CallRecordRejected 已拒绝
	CallRecordRejected = "rejected"
	// CallRecordEnded 已结束
	CallRecordEnded = "ended"
)
