package service

import (
	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/model"
	"LinkChat/pkg/logger"
	"context"
	"errors"
)

// friendServiceImpl 好友服务实现
type friendServiceImpl struct {
	userRepo   repository.IUserRepository
	friendRepo repository.IFriendRepository
	pusher     Pusher
}

// NewFriendService 创建好友服务实例
func NewFriendService(userRepo repository.IUserRepository, friendRepo repository.IFriendRepository, pusher Pusher) FriendService {
	return &friendServiceImpl{userRepo: userRepo, friendRepo: friendRepo, pusher: pusher}
}

// ListAvailable 列出可添加的用户
// 排除本人、已是好友的、以及任一方向有待处理申请的
func (s *friendServiceImpl) ListAvailable(ctx context.Context, userUUID string) (*dto.GetAvailableUsersResponse, error) {
	users, err := s.userRepo.ListOthers(ctx, userUUID, 0)
	if err != nil {
		return nil, err
	}

	friends, err := s.friendRepo.ListFriends(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	friendSet := make(map[string]struct{}, len(friends))
	for _, f := range friends {
		friendSet[f] = struct{}{}
	}

	items := make([]*dto.UserInfoItem, 0, len(users))
	for _, user := range users {
		if _, ok := friendSet[user.Uuid]; ok {
			continue
		}

		outgoing, err := s.friendRepo.ExistsPendingApply(ctx, userUUID, user.Uuid)
		if err != nil {
			return nil, err
		}
		incoming, err := s.friendRepo.ExistsPendingApply(ctx, user.Uuid, userUUID)
		if err != nil {
			return nil, err
		}
		if outgoing || incoming {
			continue
		}

		items = append(items, dto.ConvertToUserInfoItem(user))
	}

	return &dto.GetAvailableUsersResponse{Items: items}, nil
}

// ListFriends 获取好友列表（附带在线状态）
func (s *friendServiceImpl) ListFriends(ctx context.Context, userUUID string) (*dto.GetFriendListResponse, error) {
	peers, err := s.friendRepo.ListFriends(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.BatchGetByUUIDs(ctx, peers)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.FriendItem, 0, len(users))
	for _, user := range users {
		items = append(items, &dto.FriendItem{
			UUID:     user.Uuid,
			Email:    user.Email,
			Nickname: user.Nickname,
			Avatar:   user.Avatar,
			Online:   s.pusher.IsOnline(user.Uuid),
		})
	}

	return &dto.GetFriendListResponse{Items: items}, nil
}

// ListRequests 获取发给自己的待处理申请
func (s *friendServiceImpl) ListRequests(ctx context.Context, userUUID string) (*dto.GetFriendRequestsResponse, error) {
	applies, err := s.friendRepo.ListPendingApplies(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	// 批量联结申请人展示字段
	fromUUIDs := make([]string, 0, len(applies))
	for _, apply := range applies {
		fromUUIDs = append(fromUUIDs, apply.FromUuid)
	}
	users, err := s.userRepo.BatchGetByUUIDs(ctx, fromUUIDs)
	if err != nil {
		return nil, err
	}
	userMap := make(map[string]*model.UserInfo, len(users))
	for _, user := range users {
		userMap[user.Uuid] = user
	}

	items := make([]*dto.FriendRequestItem, 0, len(applies))
	for _, apply := range applies {
		item := &dto.FriendRequestItem{
			ApplyID:       apply.Id,
			ApplicantUUID: apply.FromUuid,
			CreatedAt:     apply.CreatedAt.UnixMilli(),
		}
		if user, ok := userMap[apply.FromUuid]; ok {
			item.ApplicantNickname = user.Nickname
			item.ApplicantAvatar = user.Avatar
		}
		items = append(items, item)
	}

	return &dto.GetFriendRequestsResponse{Items: items}, nil
}

// SendRequest 向 targetUUID 发送好友申请
func (s *friendServiceImpl) SendRequest(ctx context.Context, userUUID, targetUUID string) error {
	if userUUID == targetUUID {
		return ErrSelfApply
	}

	target, err := s.userRepo.GetByUUID(ctx, targetUUID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}

	isFriend, err := s.friendRepo.IsFriend(ctx, userUUID, targetUUID)
	if err != nil {
		return err
	}
	if isFriend {
		return ErrAlreadyFriend
	}

	// 任一方向已有待处理申请则拒绝重复发送
	outgoing, err := s.friendRepo.ExistsPendingApply(ctx, userUUID, targetUUID)
	if err != nil {
		return err
	}
	incoming, err := s.friendRepo.ExistsPendingApply(ctx, targetUUID, userUUID)
	if err != nil {
		return err
	}
	if outgoing || incoming {
		return ErrApplyExists
	}

	err = s.friendRepo.CreateApply(ctx, &model.FriendApply{
		FromUuid: userUUID,
		ToUuid:   targetUUID,
		Status:   model.ApplyStatusPending,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrApplyExists
		}
		return err
	}

	logger.Info(ctx, "好友申请已发送",
		logger.String("from", userUUID),
		logger.String("to", targetUUID),
	)
	return nil
}

// AcceptRequest 同意来自 fromUUID 的申请
func (s *friendServiceImpl) AcceptRequest(ctx context.Context, userUUID, fromUUID string) error {
	apply, err := s.friendRepo.GetPendingApplyBetween(ctx, fromUUID, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrApplyNotFound
		}
		return err
	}

	alreadyProcessed, err := s.friendRepo.AcceptApplyAndCreateRelation(ctx, apply.Id)
	if err != nil {
		return err
	}
	if alreadyProcessed {
		// 并发处理下的幂等成功
		return nil
	}

	logger.Info(ctx, "好友关系建立",
		logger.String("user", userUUID),
		logger.String("friend", fromUUID),
	)
	return nil
}

// RejectRequest 拒绝来自 fromUUID 的申请
func (s *friendServiceImpl) RejectRequest(ctx context.Context, userUUID, fromUUID string) error {
	apply, err := s.friendRepo.GetPendingApplyBetween(ctx, fromUUID, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrApplyNotFound
		}
		return err
	}

	if err := s.friendRepo.RejectApply(ctx, apply.Id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrApplyNotFound
		}
		return err
	}
	return nil
}

// DeleteFriend 解除好友关系
func (s *friendServiceImpl) DeleteFriend(ctx context.Context, userUUID, friendUUID string) error {
	isFriend, err := s.friendRepo.IsFriend(ctx, userUUID, friendUUID)
	if err != nil {
		return err
	}
	if !isFriend {
		return ErrNotFriend
	}

	return s.friendRepo.DeleteFriendRelation(ctx, userUUID, friendUUID)
}
