package repository

import (
	"LinkChat/model"
	"LinkChat/pkg/logger"
	"context"
	"time"

	"github.com/sony/gobreaker"
	"gorm.io/gorm"
)

// callRepositoryImpl 通话历史数据访问层实现。
// 写路径（Create/UpdateByCallID）套了熔断器：通话历史是尽力而为的持久化，
// 数据库持续故障时快速失败比排队重试更合适——实时通话状态不依赖它。
type callRepositoryImpl struct {
	db      *gorm.DB
	breaker *gobreaker.CircuitBreaker
}

// NewCallRepository 创建通话历史仓储实例
func NewCallRepository(db *gorm.DB) ICallRepository {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "call-record-db",
		MaxRequests: 3,                // 半开状态下最多允许 3 个请求尝试
		Interval:    15 * time.Second, // 清除计数的时间间隔
		Timeout:     45 * time.Second, // 熔断器开启后多久尝试进入半开状态
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 失败率超过 50% 且请求数达到 5 次时触发熔断
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "熔断器状态变化",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return &callRepositoryImpl{db: db, breaker: breaker}
}

// Create 创建通话记录
func (r *callRepositoryImpl) Create(ctx context.Context, record *model.CallRecord) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.db.WithContext(ctx).Create(record).Error
	})
	if err != nil {
		return WrapDBError(err)
	}
	return nil
}

// UpdateByCallID 按 callID 原地更新通话结果
// callID 不存在时 RowsAffected 为 0，视为空操作（记录可能因写入失败本就不存在）
func (r *callRepositoryImpl) UpdateByCallID(ctx context.Context, callID string, updates map[string]interface{}) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.db.WithContext(ctx).
			Model(&model.CallRecord{}).
			Where("call_id = ? AND deleted_at IS NULL", callID).
			Updates(updates).
			Error
	})
	if err != nil {
		return WrapDBError(err)
	}
	return nil
}

// GetByCallID 按 callID 查询通话记录
func (r *callRepositoryImpl) GetByCallID(ctx context.Context, callID string) (*model.CallRecord, error) {
	var record model.CallRecord
	err := r.db.WithContext(ctx).
		Where("call_id = ? AND deleted_at IS NULL", callID).
		First(&record).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &record, nil
}

// ListByUser 获取用户参与的通话历史
// 主叫或被叫均计入，按发起时间倒序
func (r *callRepositoryImpl) ListByUser(ctx context.Context, userUUID string, limit, offset int) ([]*model.CallRecord, error) {
	if limit <= 0 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	var records []*model.CallRecord
	err := r.db.WithContext(ctx).
		Where("(caller_uuid = ? OR receiver_uuid = ?) AND deleted_at IS NULL", userUUID, userUUID).
		Order("start_time DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return records, nil
}
