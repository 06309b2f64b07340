package model

import (
	"time"

	"gorm.io/gorm"
)

// UserRelation 维护用户之间的好友关系。
// 好友关系是对称的：建立/解除时总是成对写入两个方向的记录。
// 约束：uniqueIndex:uidx_user_peer 确保同一对用户不重复；长度与 user_info.uuid 保持一致（char(20)）。
type UserRelation struct {
	Id       int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserUuid string `gorm:"column:user_uuid;type:char(20);not null;uniqueIndex:uidx_user_peer;index:idx_user_updated_at;comment:用户uuid"`
	PeerUuid string `gorm:"column:peer_uuid;type:char(20);not null;index;uniqueIndex:uidx_user_peer;comment:对端用户uuid"`
	Status   int8   `gorm:"column:status;not null;default:0;comment:关系状态 0.正常 2.删除"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;index:idx_user_updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserRelation) TableName() string { return "user_relation" }

const (
	// RelationStatusNormal 正常好友关系
	RelationStatusNormal int8 = 0
	// RelationStatusDeleted 已删除（软删除恢复场景用）
	RelationStatusDeleted int8 = 2
)
