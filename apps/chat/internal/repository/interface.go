package repository

import (
	"LinkChat/model"
	"context"
	"time"
)

// ==================== 认证相关 Repository ====================

// IAuthRepository 认证相关数据访问接口
type IAuthRepository interface {
	// GetByEmail 根据邮箱查询用户信息（不存在时返回 ErrRecordNotFound）
	GetByEmail(ctx context.Context, email string) (*model.UserInfo, error)

	// ExistsByEmail 检查邮箱是否已存在
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create 创建新用户
	Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error)

	// StoreAccessToken 将 AccessToken 指纹存入 Redis（登录时写入）
	StoreAccessToken(ctx context.Context, userUUID, tokenMD5 string, expire time.Duration) error

	// VerifyAccessToken 比对 AccessToken 指纹
	// 返回值: true=有效; Redis 不可用时返回 ErrRedis，由调用方决定是否降级
	VerifyAccessToken(ctx context.Context, userUUID, tokenMD5 string) (bool, error)

	// DeleteAccessToken 删除 AccessToken 指纹（登出时调用）
	DeleteAccessToken(ctx context.Context, userUUID string) error
}

// ==================== 用户信息 Repository ====================

// IUserRepository 用户信息数据访问接口
type IUserRepository interface {
	// GetByUUID 根据UUID查询用户信息（缓存优先，不存在时返回 nil, nil）
	GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error)

	// BatchGetByUUIDs 批量查询用户信息，不存在的用户不包含在结果中
	BatchGetByUUIDs(ctx context.Context, uuids []string) ([]*model.UserInfo, error)

	// UpdateProfile 更新昵称/头像（空字段跳过），并失效缓存
	UpdateProfile(ctx context.Context, userUUID, nickname, avatar string) error

	// ListOthers 列出除 userUUID 外的用户（可添加好友入口用），按注册时间倒序
	ListOthers(ctx context.Context, userUUID string, limit int) ([]*model.UserInfo, error)

	// TouchActive 刷新用户活跃时间（心跳时调用，尽力而为）
	TouchActive(ctx context.Context, userUUID string)
}

// ==================== 好友关系 Repository ====================

// IFriendRepository 好友关系/好友申请数据访问接口
type IFriendRepository interface {
	// ListFriends 获取好友的 uuid 列表
	ListFriends(ctx context.Context, userUUID string) ([]string, error)

	// IsFriend 检查是否是好友
	IsFriend(ctx context.Context, userUUID, peerUUID string) (bool, error)

	// CreateApply 创建好友申请（同一对 from/to 重复申请返回 ErrDuplicateKey）
	CreateApply(ctx context.Context, apply *model.FriendApply) error

	// GetApplyByID 根据ID获取好友申请
	GetApplyByID(ctx context.Context, id int64) (*model.FriendApply, error)

	// ListPendingApplies 获取发给 toUUID 的待处理申请列表
	ListPendingApplies(ctx context.Context, toUUID string) ([]*model.FriendApply, error)

	// ExistsPendingApply 检查是否存在待处理的申请
	ExistsPendingApply(ctx context.Context, fromUUID, toUUID string) (bool, error)

	// GetPendingApplyBetween 获取 from→to 的待处理申请（不存在返回 ErrRecordNotFound）
	GetPendingApplyBetween(ctx context.Context, fromUUID, toUUID string) (*model.FriendApply, error)

	// AcceptApplyAndCreateRelation 同意申请并建立双向好友关系（事务 + CAS 幂等）
	// 返回值: alreadyProcessed=true 表示申请已被处理过（幂等成功）
	AcceptApplyAndCreateRelation(ctx context.Context, applyID int64) (alreadyProcessed bool, err error)

	// RejectApply 拒绝好友申请（CAS：仅 pending 状态可拒绝）
	RejectApply(ctx context.Context, applyID int64) error

	// DeleteFriendRelation 解除好友关系（双向软删除）
	DeleteFriendRelation(ctx context.Context, userUUID, peerUUID string) error
}

// ==================== 消息 Repository ====================

// IMessageRepository 单聊消息数据访问接口
type IMessageRepository interface {
	// Create 写入一条消息
	Create(ctx context.Context, msg *model.Message) (*model.Message, error)

	// ListBetween 获取两个用户之间的消息，按时间正序
	ListBetween(ctx context.Context, userUUID, peerUUID string, page, pageSize int) ([]*model.Message, error)

	// Sidebar 获取用户的会话侧边栏（对端 uuid + 最近消息时间，按最近消息倒序）
	Sidebar(ctx context.Context, userUUID string) ([]*SidebarEntry, error)
}

// SidebarEntry 会话侧边栏条目（仓储层聚合结果）
type SidebarEntry struct {
	PeerUuid      string    `gorm:"column:peer_uuid"`
	LastMessageAt time.Time `gorm:"column:last_message_at"`
}

// ==================== 通话历史 Repository ====================

// ICallRepository 通话历史数据访问接口。
// 写路径套了熔断器：数据库持续故障时快速失败，
// 由服务层记日志后放弃，不影响实时通话状态。
type ICallRepository interface {
	// Create 创建通话记录（发起时写入，status 为悲观默认值 missed）
	Create(ctx context.Context, record *model.CallRecord) error

	// UpdateByCallID 按 callID 原地更新通话结果
	// updates 仅允许 status/duration/end_time；callID 不存在时为空操作
	UpdateByCallID(ctx context.Context, callID string, updates map[string]interface{}) error

	// GetByCallID 按 callID 查询通话记录（不存在时返回 ErrRecordNotFound）
	GetByCallID(ctx context.Context, callID string) (*model.CallRecord, error)

	// ListByUser 获取用户参与的通话历史，按发起时间倒序
	ListByUser(ctx context.Context, userUUID string, limit, offset int) ([]*model.CallRecord, error)
}
