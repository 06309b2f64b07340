package repository

import (
	"LinkChat/consts/redisKey"
	"LinkChat/model"
	"LinkChat/pkg/async"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// userRepositoryImpl 用户信息数据访问层实现
type userRepositoryImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewUserRepository 创建用户信息仓储实例
func NewUserRepository(db *gorm.DB, redisClient *redis.Client) IUserRepository {
	return &userRepositoryImpl{db: db, redisClient: redisClient}
}

// getRandomExpireTime 生成带随机抖动的过期时间（±10%，防缓存雪崩）
func getRandomExpireTime(baseExpire time.Duration) time.Duration {
	jitterRange := float64(baseExpire) * 0.1
	jitter := time.Duration(rand.Float64()*float64(jitterRange)*2 - float64(jitterRange))
	return baseExpire + jitter
}

// GetByUUID 根据UUID查询用户信息
// Redis 降级模式（client 为 nil）下跳过缓存，直接读 MySQL
func (r *userRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	// ==================== 1. 先从 Redis 缓存中查询 ====================
	cacheKey := rediskey.UserInfoKey(uuid)
	if r.redisClient != nil {
		cachedData, err := r.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			// 空占位符 `{}` 表示用户不存在，不回源
			if cachedData == "{}" {
				return nil, nil
			}
			var user model.UserInfo
			if err := json.Unmarshal([]byte(cachedData), &user); err == nil {
				return &user, nil
			}
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			LogRedisError(ctx, err) // 记录日志 降级处理
		}
	}

	// ==================== 2. 缓存未命中，查询 MySQL ====================
	var user model.UserInfo
	err := r.db.WithContext(ctx).Where("uuid = ? AND deleted_at IS NULL", uuid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 存一份空占位到 Redis，防止缓存穿透
			if r.redisClient != nil {
				async.RunSafe(ctx, func(runCtx context.Context) {
					if err := r.redisClient.Set(runCtx, cacheKey, "{}", getRandomExpireTime(rediskey.UserInfoEmptyTTL)).Err(); err != nil {
						LogRedisError(runCtx, err)
					}
				}, 0)
			}
			return nil, nil
		}
		return nil, WrapDBError(err)
	}

	// ==================== 3. 异步回填 Redis 缓存 ====================
	if r.redisClient == nil {
		return &user, nil
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		// 序列化失败不影响主流程，直接返回数据库数据
		return &user, nil
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := r.redisClient.Set(runCtx, cacheKey, userJSON, getRandomExpireTime(rediskey.UserInfoTTL)).Err(); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)

	return &user, nil
}

// BatchGetByUUIDs 批量查询用户信息
// 返回结果按传入的 uuids 顺序排列，不存在的用户不包含在结果中
func (r *userRepositoryImpl) BatchGetByUUIDs(ctx context.Context, uuids []string) ([]*model.UserInfo, error) {
	if len(uuids) == 0 {
		return []*model.UserInfo{}, nil
	}

	userMap := make(map[string]*model.UserInfo, len(uuids))
	missUUIDs := make([]string, 0, len(uuids))

	// ==================== 1. 批量查询 Redis ====================
	// 降级模式下 cachedValues 保持 nil，全量回源 DB
	var cachedValues []interface{}
	if r.redisClient != nil {
		keys := make([]string, 0, len(uuids))
		for _, uuid := range uuids {
			keys = append(keys, rediskey.UserInfoKey(uuid))
		}

		var err error
		cachedValues, err = r.redisClient.MGet(ctx, keys...).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			LogRedisError(ctx, err)
			// Redis 异常时降级走 DB 全量查询
			cachedValues = nil
		}
	}

	if cachedValues != nil {
		for i, value := range cachedValues {
			uuid := uuids[i]

			raw, ok := value.(string)
			if !ok {
				missUUIDs = append(missUUIDs, uuid)
				continue
			}

			// 空占位符表示用户不存在，标记为已处理，不回源
			if raw == "" || raw == "{}" {
				userMap[uuid] = nil
				continue
			}

			var user model.UserInfo
			if err := json.Unmarshal([]byte(raw), &user); err != nil {
				missUUIDs = append(missUUIDs, uuid)
				continue
			}
			userMap[uuid] = &user
		}
	} else {
		missUUIDs = append(missUUIDs, uuids...)
	}

	// ==================== 2. 对未命中部分回源 MySQL ====================
	if len(missUUIDs) > 0 {
		var dbUsers []*model.UserInfo
		err := r.db.WithContext(ctx).
			Where("uuid IN ? AND deleted_at IS NULL", missUUIDs).
			Find(&dbUsers).
			Error
		if err != nil {
			return nil, WrapDBError(err)
		}

		foundUUIDs := make(map[string]struct{}, len(dbUsers))
		for _, user := range dbUsers {
			if user != nil && user.Uuid != "" {
				userMap[user.Uuid] = user
				foundUUIDs[user.Uuid] = struct{}{}
			}
		}

		// ==================== 3. 异步回填 Redis 缓存 ====================
		if r.redisClient != nil {
			async.RunSafe(ctx, func(runCtx context.Context) {
				pipe := r.redisClient.Pipeline()

				for _, user := range dbUsers {
					if user == nil || user.Uuid == "" {
						continue
					}
					userJSON, err := json.Marshal(user)
					if err != nil {
						continue
					}
					pipe.Set(runCtx, rediskey.UserInfoKey(user.Uuid), userJSON, getRandomExpireTime(rediskey.UserInfoTTL))
				}

				// 对不存在的 UUID 写入空占位，避免缓存穿透
				for _, uuid := range missUUIDs {
					if _, ok := foundUUIDs[uuid]; ok {
						continue
					}
					pipe.Set(runCtx, rediskey.UserInfoKey(uuid), "{}", getRandomExpireTime(rediskey.UserInfoEmptyTTL))
				}

				if _, err := pipe.Exec(runCtx); err != nil {
					LogRedisError(runCtx, err)
				}
			}, 0)
		}
	}

	// ==================== 4. 按原始 uuids 顺序构建结果 ====================
	result := make([]*model.UserInfo, 0, len(uuids))
	for _, uuid := range uuids {
		if user, ok := userMap[uuid]; ok && user != nil {
			result = append(result, user)
		}
	}

	return result, nil
}

// UpdateProfile 更新昵称/头像
func (r *userRepositoryImpl) UpdateProfile(ctx context.Context, userUUID, nickname, avatar string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if nickname != "" {
		updates["nickname"] = nickname
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}

	err := r.db.WithContext(ctx).
		Model(&model.UserInfo{}).
		Where("uuid = ? AND deleted_at IS NULL", userUUID).
		Updates(updates).
		Error
	if err != nil {
		return WrapDBError(err)
	}

	// 更新成功后删除缓存（下次读取回源）；降级模式下无缓存可删
	if r.redisClient != nil {
		cacheKey := rediskey.UserInfoKey(userUUID)
		if err := r.redisClient.Del(ctx, cacheKey).Err(); err != nil {
			LogRedisError(ctx, err)
		}
	}

	return nil
}

// ListOthers 列出除 userUUID 外的用户
// 可添加好友入口用，按注册时间倒序。用户规模小，不做游标分页
func (r *userRepositoryImpl) ListOthers(ctx context.Context, userUUID string, limit int) ([]*model.UserInfo, error) {
	if limit <= 0 {
		limit = 200
	}

	var users []*model.UserInfo
	err := r.db.WithContext(ctx).
		Where("uuid != ? AND deleted_at IS NULL", userUUID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return users, nil
}

// TouchActive 刷新用户活跃时间
// 心跳路径上的尽力而为写，Redis 故障只记日志，降级模式直接丢弃
func (r *userRepositoryImpl) TouchActive(ctx context.Context, userUUID string) {
	if r.redisClient == nil {
		return
	}
	async.RunSafe(ctx, func(runCtx context.Context) {
		key := rediskey.UserActiveKey(userUUID)
		if err := r.redisClient.Set(runCtx, key, time.Now().Unix(), rediskey.UserActiveTTL).Err(); err != nil {
			LogRedisError(runCtx, err)
		}
	}, 0)
}
