package model

import (
	"time"

	"gorm.io/gorm"
)

// FriendApply 好友申请表。
// 约束：同一对 (from, to) 最多一条待处理申请（uniqueIndex + status 过滤在仓储层保证）。
type FriendApply struct {
	Id       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	FromUuid string `gorm:"column:from_uuid;type:char(20);not null;uniqueIndex:uidx_from_to;comment:申请方uuid"`
	ToUuid   string `gorm:"column:to_uuid;type:char(20);not null;index;uniqueIndex:uidx_from_to;comment:目标方uuid"`
	Status   int8   `gorm:"column:status;not null;default:0;comment:状态 0.待处理 1.已同意 2.已拒绝"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (FriendApply) TableName() string { return "friend_apply" }

const (
	// ApplyStatusPending 待处理
	ApplyStatusPending int8 = 0
	// ApplyStatusAccepted 已同意
	ApplyStatusAccepted int8 = 1
	// ApplyStatusRejected 已拒绝
	ApplyStatusRejected int8 = 2
)
