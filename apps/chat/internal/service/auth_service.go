package service

import (
	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/config"
	"LinkChat/model"
	"LinkChat/pkg/logger"
	"LinkChat/pkg/util"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// authServiceImpl 认证服务实现
type authServiceImpl struct {
	authRepo repository.IAuthRepository
	jwtCfg   config.JWTConfig
}

// NewAuthService 创建认证服务实例
func NewAuthService(authRepo repository.IAuthRepository, jwtCfg config.JWTConfig) AuthService {
	return &authServiceImpl{authRepo: authRepo, jwtCfg: jwtCfg}
}

// tokenFingerprint 计算令牌指纹。
// Redis 里只存 md5，避免令牌明文落入缓存
func tokenFingerprint(token string) string {
	sum := md5.Sum([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Register 注册新用户
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	// 1. 邮箱查重（数据库唯一索引兜底并发场景）
	exists, err := s.authRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	// 2. 密码哈希
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// 3. 昵称缺省取邮箱前缀
	nickname := req.Nickname
	if nickname == "" {
		nickname = strings.SplitN(req.Email, "@", 2)[0]
	}

	user := &model.UserInfo{
		Uuid:     util.NewUserUUID(),
		Email:    req.Email,
		Nickname: nickname,
		Password: string(hashed),
	}
	if _, err := s.authRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.Info(ctx, "用户注册成功", logger.String("user_uuid", user.Uuid))

	return &dto.RegisterResponse{
		UserUUID: user.Uuid,
		Email:    user.Email,
		Nickname: user.Nickname,
	}, nil
}

// Login 登录，签发访问令牌
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.authRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrPasswordWrong
	}

	token, err := util.GenerateToken(user.Uuid)
	if err != nil {
		return nil, err
	}

	// 令牌指纹写入 Redis；失败只记日志，登录仍然成功（校验侧会降级）
	if err := s.authRepo.StoreAccessToken(ctx, user.Uuid, tokenFingerprint(token), s.jwtCfg.AccessTokenTTL); err != nil {
		logger.Warn(ctx, "令牌指纹写入失败，跳过", logger.ErrorField("error", err))
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtCfg.AccessTokenTTL.Seconds()),
		UserInfo:    dto.ConvertToUserInfoItem(user),
	}, nil
}

// Logout 登出，吊销令牌指纹
func (s *authServiceImpl) Logout(ctx context.Context, userUUID string) error {
	if err := s.authRepo.DeleteAccessToken(ctx, userUUID); err != nil {
		// Redis 故障时令牌指纹会随 TTL 过期，记日志后放行
		logger.Warn(ctx, "令牌指纹删除失败", logger.ErrorField("error", err))
	}
	return nil
}

// Authenticate 校验访问令牌
// 先做 JWT 签名/过期校验，再比对 Redis 指纹（登出吊销用）。
// Redis 不可用时降级为仅 JWT 校验，保证认证链路不被缓存故障拖垮
func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := util.ParseToken(token)
	if err != nil {
		return "", util.ErrTokenInvalid
	}

	valid, err := s.authRepo.VerifyAccessToken(ctx, claims.UserUUID, tokenFingerprint(token))
	if err != nil {
		logger.Warn(ctx, "令牌指纹校验降级", logger.ErrorField("error", err))
		return claims.UserUUID, nil
	}
	if !valid {
		return "", util.ErrTokenInvalid
	}
	return claims.UserUUID, nil
}
