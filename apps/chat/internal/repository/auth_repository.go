package repository

import (
	"LinkChat/consts/redisKey"
	"LinkChat/model"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// authRepositoryImpl 认证数据访问层实现
type authRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewAuthRepository 创建认证仓储实例
func NewAuthRepository(db *gorm.DB, redisClient *redis.Client) IAuthRepository {
	return &authRepositoryImpl{db: db, redisClient: redisClient}
}

// GetByEmail 根据邮箱查询用户信息
// 登录是低频操作且必须看到最新密码哈希，不走缓存
func (r *authRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	var user model.UserInfo
	err := r.db.WithContext(ctx).
		Where("email = ? AND deleted_at IS NULL", email).
		First(&user).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// ExistsByEmail 检查邮箱是否已存在
func (r *authRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("email = ? AND deleted_at IS NULL", email).
		Count(&count).
		Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return count > 0, nil
}

// Create 创建新用户
// 邮箱唯一索引冲突时返回 ErrDuplicateKey（注册并发场景由数据库兜底）
func (r *authRepositoryImpl) Create(ctx context.Context, user *model.UserInfo) (*model.UserInfo, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return user, nil
}

// StoreAccessToken 将 AccessToken 指纹存入 Redis
// Redis 降级模式（client 为 nil）下返回 ErrRedis，由调用方决定是否放行
func (r *authRepositoryImpl) StoreAccessToken(ctx context.Context, userUUID, tokenMD5 string, expire time.Duration) error {
	if r.redisClient == nil {
		return ErrRedis
	}
	key := rediskey.AccessTokenKey(userUUID)
	if err := r.redisClient.Set(ctx, key, tokenMD5, expire).Err(); err != nil {
		return WrapRedisError(err)
	}
	return nil
}

// VerifyAccessToken 比对 AccessToken 指纹
// key 不存在视为未登录（false, nil）；Redis 故障或降级模式返回 ErrRedis 由调用方降级
func (r *authRepositoryImpl) VerifyAccessToken(ctx context.Context, userUUID, tokenMD5 string) (bool, error) {
	if r.redisClient == nil {
		return false, ErrRedis
	}
	key := rediskey.AccessTokenKey(userUUID)
	stored, err := r.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, WrapRedisError(err)
	}
	return stored == tokenMD5, nil
}

// DeleteAccessToken 删除 AccessToken 指纹
func (r *authRepositoryImpl) DeleteAccessToken(ctx context.Context, userUUID string) error {
	if r.redisClient == nil {
		return ErrRedis
	}
	key := rediskey.AccessTokenKey(userUUID)
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return WrapRedisError(err)
	}
	return nil
}
