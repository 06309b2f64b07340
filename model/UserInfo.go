package model

import (
	"time"

	"gorm.io/gorm"
)

// UserInfo 用户账号表。
// uuid 为业务主键（snowflake 生成，char(20)），对外接口一律使用 uuid，不暴露自增 id。
type UserInfo struct {
	Id       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid     string `gorm:"column:uuid;type:char(20);not null;uniqueIndex;comment:用户uuid"`
	Email    string `gorm:"column:email;type:varchar(128);not null;uniqueIndex;comment:登录邮箱"`
	Nickname string `gorm:"column:nickname;type:varchar(64);not null;comment:昵称"`

	// bcrypt 哈希，永远不出现在任何响应里
	Password string `gorm:"column:password;type:varchar(128);not null;comment:密码哈希" json:"-"`

	Avatar string `gorm:"column:avatar;type:varchar(256);comment:头像URL"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (UserInfo) TableName() string { return "user_info" }
