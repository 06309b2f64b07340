package repository

import (
	"LinkChat/model"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// friendRepositoryImpl 好友关系数据访问层实现
type friendRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewFriendRepository 创建好友关系仓储实例
func NewFriendRepository(db *gorm.DB, redisClient *redis.Client) IFriendRepository {
	return &friendRepositoryImpl{db: db, redisClient: redisClient}
}

// ListFriends 获取好友的 uuid 列表
func (r *friendRepositoryImpl) ListFriends(ctx context.Context, userUUID string) ([]string, error) {
	var peers []string
	err := r.db.WithContext(ctx).
		Model(&model.UserRelation{}).
		Where("user_uuid = ? AND status = ? AND deleted_at IS NULL", userUUID, model.RelationStatusNormal).
		Order("created_at DESC, id DESC").
		Pluck("peer_uuid", &peers).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return peers, nil
}

// IsFriend 检查是否是好友
func (r *friendRepositoryImpl) IsFriend(ctx context.Context, userUUID, peerUUID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserRelation{}).
		Where("user_uuid = ? AND peer_uuid = ? AND status = ? AND deleted_at IS NULL",
			userUUID, peerUUID, model.RelationStatusNormal).
		Count(&count).
		Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// CreateApply 创建好友申请
func (r *friendRepositoryImpl) CreateApply(ctx context.Context, apply *model.FriendApply) error {
	if err := r.db.WithContext(ctx).Create(apply).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

// GetApplyByID 根据ID获取好友申请
func (r *friendRepositoryImpl) GetApplyByID(ctx context.Context, id int64) (*model.FriendApply, error) {
	var apply model.FriendApply
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&apply).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &apply, nil
}

// ListPendingApplies 获取发给 toUUID 的待处理申请列表
func (r *friendRepositoryImpl) ListPendingApplies(ctx context.Context, toUUID string) ([]*model.FriendApply, error) {
	var applies []*model.FriendApply
	err := r.db.WithContext(ctx).
		Where("to_uuid = ? AND status = ? AND deleted_at IS NULL", toUUID, model.ApplyStatusPending).
		Order("created_at DESC").
		Find(&applies).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return applies, nil
}

// ExistsPendingApply 检查是否存在待处理的申请
func (r *friendRepositoryImpl) ExistsPendingApply(ctx context.Context, fromUUID, toUUID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FriendApply{}).
		Where("from_uuid = ? AND to_uuid = ? AND status = ? AND deleted_at IS NULL",
			fromUUID, toUUID, model.ApplyStatusPending).
		Count(&count).
		Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// GetPendingApplyBetween 获取 from→to 的待处理申请
func (r *friendRepositoryImpl) GetPendingApplyBetween(ctx context.Context, fromUUID, toUUID string) (*model.FriendApply, error) {
	var apply model.FriendApply
	err := r.db.WithContext(ctx).
		Where("from_uuid = ? AND to_uuid = ? AND status = ? AND deleted_at IS NULL",
			fromUUID, toUUID, model.ApplyStatusPending).
		First(&apply).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &apply, nil
}

// AcceptApplyAndCreateRelation 同意申请并建立双向好友关系
// 事务内先 CAS 更新申请状态（仅 pending 可同意），
// 再 Upsert 两个方向的关系记录。重复同意是幂等空操作。
func (r *friendRepositoryImpl) AcceptApplyAndCreateRelation(ctx context.Context, applyID int64) (bool, error) {
	alreadyProcessed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. CAS 更新申请状态
		res := tx.Model(&model.FriendApply{}).
			Where("id = ? AND status = ? AND deleted_at IS NULL", applyID, model.ApplyStatusPending).
			Update("status", model.ApplyStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 已被处理或不存在，由调用方区分
			alreadyProcessed = true
			return nil
		}

		// 2. 读取申请拿到双方 uuid
		var apply model.FriendApply
		if err := tx.Where("id = ?", applyID).First(&apply).Error; err != nil {
			return err
		}

		// 3. Upsert 双向关系（正确处理软删除恢复场景）
		now := time.Now()
		relations := []*model.UserRelation{
			{UserUuid: apply.FromUuid, PeerUuid: apply.ToUuid, Status: model.RelationStatusNormal, CreatedAt: now, UpdatedAt: now},
			{UserUuid: apply.ToUuid, PeerUuid: apply.FromUuid, Status: model.RelationStatusNormal, CreatedAt: now, UpdatedAt: now},
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_uuid"}, {Name: "peer_uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     model.RelationStatusNormal,
				"deleted_at": nil,
				"updated_at": now,
			}),
		}).Create(&relations).Error
	})
	if err != nil {
		return false, WrapDBError(err)
	}

	return alreadyProcessed, nil
}

// RejectApply 拒绝好友申请
// CAS：仅 pending 状态可拒绝，已处理过的申请返回 ErrRecordNotFound
func (r *friendRepositoryImpl) RejectApply(ctx context.Context, applyID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.FriendApply{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", applyID, model.ApplyStatusPending).
		Update("status", model.ApplyStatusRejected)
	if res.Error != nil {
		return WrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteFriendRelation 解除好友关系（双向软删除）
func (r *friendRepositoryImpl) DeleteFriendRelation(ctx context.Context, userUUID, peerUUID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pair := range [][2]string{{userUUID, peerUUID}, {peerUUID, userUUID}} {
			if err := tx.Model(&model.UserRelation{}).
				Where("user_uuid = ? AND peer_uuid = ? AND deleted_at IS NULL", pair[0], pair[1]).
				Updates(map[string]interface{}{
					"status":     model.RelationStatusDeleted,
					"deleted_at": time.Now(),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return WrapDBError(err)
	}
	return nil
}
