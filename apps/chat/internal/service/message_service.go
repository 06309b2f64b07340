package service

import (
	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/protocol"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/model"
	"LinkChat/pkg/logger"
	"context"
	"strings"
)

// messageServiceImpl 消息服务实现
type messageServiceImpl struct {
	messageRepo repository.IMessageRepository
	userRepo    repository.IUserRepository
	uploader    ImageUploader
	pusher      Pusher
}

// NewMessageService 创建消息服务实例
func NewMessageService(
	messageRepo repository.IMessageRepository,
	userRepo repository.IUserRepository,
	uploader ImageUploader,
	pusher Pusher,
) MessageService {
	return &messageServiceImpl{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		uploader:    uploader,
		pusher:      pusher,
	}
}

// Sidebar 获取会话侧边栏
func (s *messageServiceImpl) Sidebar(ctx context.Context, userUUID string) (*dto.GetSidebarResponse, error) {
	entries, err := s.messageRepo.Sidebar(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	peerUUIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		peerUUIDs = append(peerUUIDs, entry.PeerUuid)
	}
	users, err := s.userRepo.BatchGetByUUIDs(ctx, peerUUIDs)
	if err != nil {
		return nil, err
	}
	userMap := make(map[string]*model.UserInfo, len(users))
	for _, user := range users {
		userMap[user.Uuid] = user
	}

	items := make([]*dto.SidebarItem, 0, len(entries))
	for _, entry := range entries {
		user, ok := userMap[entry.PeerUuid]
		if !ok {
			// 对端已注销，跳过
			continue
		}
		items = append(items, &dto.SidebarItem{
			User:          dto.ConvertToUserInfoItem(user),
			LastMessageAt: entry.LastMessageAt.UnixMilli(),
		})
	}

	return &dto.GetSidebarResponse{Items: items}, nil
}

// List 获取与 peerUUID 的消息列表
func (s *messageServiceImpl) List(ctx context.Context, userUUID, peerUUID string, req *dto.GetMessageListRequest) (*dto.GetMessageListResponse, error) {
	messages, err := s.messageRepo.ListBetween(ctx, userUUID, peerUUID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.MessageItem, 0, len(messages))
	for _, msg := range messages {
		items = append(items, dto.ConvertToMessageItem(msg))
	}
	return &dto.GetMessageListResponse{Items: items}, nil
}

// Send 发送消息
// 落库成功后向接收方和发送方各推送一次 newMessage（发送方用于多端同步视图）
func (s *messageServiceImpl) Send(ctx context.Context, userUUID, peerUUID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if req.Text == "" && req.Image == "" {
		return nil, ErrMessageEmpty
	}

	receiver, err := s.userRepo.GetByUUID(ctx, peerUUID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	imageURL := ""
	if strings.HasPrefix(req.Image, "data:image/") {
		if s.uploader == nil {
			return nil, ErrMessageEmpty
		}
		imageURL, err = s.uploader.UploadBase64Image(ctx, "message", req.Image)
		if err != nil {
			return nil, err
		}
	}

	msg, err := s.messageRepo.Create(ctx, &model.Message{
		SenderUuid:   userUUID,
		ReceiverUuid: peerUUID,
		Text:         req.Text,
		Image:        imageURL,
	})
	if err != nil {
		return nil, err
	}

	item := dto.ConvertToMessageItem(msg)

	// 下行推送是尽力而为：不在线或队列满都静默跳过
	if payload, err := protocol.Marshal(protocol.EventNewMessage, item); err == nil {
		s.pusher.SendToUser(peerUUID, payload)
		s.pusher.SendToUser(userUUID, payload)
	} else {
		logger.Error(ctx, "newMessage 序列化失败", logger.ErrorField("error", err))
	}

	return &dto.SendMessageResponse{Message: item}, nil
}
