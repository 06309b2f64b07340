package repository

import (
	"context"
	"sync"
	"testing"

	"LinkChat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

var repoLoggerOnce sync.Once

func initRepoTestLogger() {
	repoLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

// Redis 降级模式（client 为 nil）下令牌指纹操作统一返回 ErrRedis，
// 由认证服务的降级分支兜底，绝不能解引用空客户端
func TestAuthRepositoryDegradedWithoutRedis(t *testing.T) {
	initRepoTestLogger()
	repo := NewAuthRepository(nil, nil)
	ctx := context.Background()

	valid, err := repo.VerifyAccessToken(ctx, "u1", "fingerprint")
	require.ErrorIs(t, err, ErrRedis)
	assert.False(t, valid)

	err = repo.StoreAccessToken(ctx, "u1", "fingerprint", 0)
	assert.ErrorIs(t, err, ErrRedis)

	err = repo.DeleteAccessToken(ctx, "u1")
	assert.ErrorIs(t, err, ErrRedis)
}

// 心跳活跃时间是尽力而为写，降级模式下直接丢弃，不 panic
func TestUserRepositoryTouchActiveDegradedWithoutRedis(t *testing.T) {
	initRepoTestLogger()
	repo := NewUserRepository(nil, nil)

	assert.NotPanics(t, func() {
		repo.TouchActive(context.Background(), "u1")
	})
}
