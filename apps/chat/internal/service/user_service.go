package service

import (
	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/pkg/logger"
	"LinkChat/pkg/minio"
	"context"
	"strings"
)

// ImageUploader 图片上传抽象（头像/聊天图片），由 pkg/minio 实现。
// dataURL 为 "data:image/png;base64,..." 形式，返回可公开访问的 URL
type ImageUploader interface {
	UploadBase64Image(ctx context.Context, dir, dataURL string) (string, error)
}

// userServiceImpl 用户服务实现
type userServiceImpl struct {
	userRepo repository.IUserRepository
	uploader ImageUploader
}

// NewUserService 创建用户服务实例
// uploader 可为 nil（对象存储未配置时 base64 头像直接报错）
func NewUserService(userRepo repository.IUserRepository, uploader ImageUploader) UserService {
	return &userServiceImpl{userRepo: userRepo, uploader: uploader}
}

// GetProfile 获取个人资料
func (s *userServiceImpl) GetProfile(ctx context.Context, userUUID string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return &dto.ProfileResponse{UserInfo: dto.ConvertToUserInfoItem(user)}, nil
}

// UpdateProfile 更新昵称/头像
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userUUID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	avatar := req.Avatar

	// base64 头像先上传对象存储换取 URL
	if strings.HasPrefix(avatar, "data:image/") {
		if s.uploader == nil {
			return nil, minio.ErrImageFormat
		}
		url, err := s.uploader.UploadBase64Image(ctx, "avatar", avatar)
		if err != nil {
			return nil, err
		}
		avatar = url
	}

	if err := s.userRepo.UpdateProfile(ctx, userUUID, req.Nickname, avatar); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	logger.Info(ctx, "个人资料更新", logger.String("user_uuid", userUUID))
	return &dto.ProfileResponse{UserInfo: dto.ConvertToUserInfoItem(user)}, nil
}

// TouchActive 刷新活跃时间
func (s *userServiceImpl) TouchActive(ctx context.Context, userUUID string) {
	s.userRepo.TouchActive(ctx, userUUID)
}
