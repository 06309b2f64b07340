package repository

import (
	"LinkChat/model"
	"context"

	"gorm.io/gorm"
)

// messageRepositoryImpl 单聊消息数据访问层实现
type messageRepositoryImpl struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *gorm.DB) IMessageRepository {
	return &messageRepositoryImpl{db: db}
}

// Create 写入一条消息
func (r *messageRepositoryImpl) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return msg, nil
}

// ListBetween 获取两个用户之间的消息
// 双向条件（A→B 或 B→A），按时间正序便于前端直接渲染
func (r *messageRepositoryImpl) ListBetween(ctx context.Context, userUUID, peerUUID string, page, pageSize int) ([]*model.Message, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	var messages []*model.Message
	err := r.db.WithContext(ctx).
		Where("((sender_uuid = ? AND receiver_uuid = ?) OR (sender_uuid = ? AND receiver_uuid = ?)) AND deleted_at IS NULL",
			userUUID, peerUUID, peerUUID, userUUID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&messages).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return messages, nil
}

// Sidebar 获取用户的会话侧边栏
// 用 CASE 表达式把双向消息折叠到对端维度，按最近消息倒序
func (r *messageRepositoryImpl) Sidebar(ctx context.Context, userUUID string) ([]*SidebarEntry, error) {
	var entries []*SidebarEntry
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("CASE WHEN sender_uuid = ? THEN receiver_uuid ELSE sender_uuid END AS peer_uuid, MAX(created_at) AS last_message_at", userUUID).
		Where("(sender_uuid = ? OR receiver_uuid = ?) AND deleted_at IS NULL", userUUID, userUUID).
		Group("peer_uuid").
		Order("last_message_at DESC").
		Find(&entries).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return entries, nil
}
