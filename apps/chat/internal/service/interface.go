package service

import (
	"LinkChat/apps/chat/internal/dto"
	"context"
)

// Pusher 下行推送抽象。
// 服务层通过它向在线用户推送事件，由连接管理器实现；
// 测试中用 fake 替换，避免依赖真实 WebSocket 连接。
type Pusher interface {
	// SendToUser 向指定用户推送消息，目标不在线返回 false
	SendToUser(userUUID string, msg []byte) bool
	// Broadcast 向所有在线连接广播，返回送达的连接数
	Broadcast(msg []byte) int
	// OnlineUsers 返回在线用户 uuid 列表（升序）
	OnlineUsers() []string
	// IsOnline 判断用户是否在线
	IsOnline(userUUID string) bool
}

// ==================== 认证服务 ====================

// AuthService 注册/登录/登出/令牌校验
type AuthService interface {
	// Register 注册新用户
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)

	// Login 登录，签发访问令牌
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)

	// Logout 登出，吊销令牌指纹
	Logout(ctx context.Context, userUUID string) error

	// Authenticate 校验访问令牌（HTTP 中间件与 WS 握手共用）
	// Redis 不可用时降级为仅 JWT 校验
	Authenticate(ctx context.Context, token string) (userUUID string, err error)
}

// ==================== 用户服务 ====================

// UserService 个人资料
type UserService interface {
	// GetProfile 获取个人资料
	GetProfile(ctx context.Context, userUUID string) (*dto.ProfileResponse, error)

	// UpdateProfile 更新昵称/头像（base64 头像先上传对象存储）
	UpdateProfile(ctx context.Context, userUUID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)

	// TouchActive 刷新活跃时间（心跳路径，尽力而为）
	TouchActive(ctx context.Context, userUUID string)
}

// ==================== 好友服务 ====================

// FriendService 好友关系与好友申请
type FriendService interface {
	// ListAvailable 列出可添加的用户（排除本人/好友/有双向待处理申请的）
	ListAvailable(ctx context.Context, userUUID string) (*dto.GetAvailableUsersResponse, error)

	// ListFriends 获取好友列表（附带在线状态）
	ListFriends(ctx context.Context, userUUID string) (*dto.GetFriendListResponse, error)

	// ListRequests 获取发给自己的待处理申请
	ListRequests(ctx context.Context, userUUID string) (*dto.GetFriendRequestsResponse, error)

	// SendRequest 向 targetUUID 发送好友申请
	SendRequest(ctx context.Context, userUUID, targetUUID string) error

	// AcceptRequest 同意来自 fromUUID 的申请，建立双向好友关系
	AcceptRequest(ctx context.Context, userUUID, fromUUID string) error

	// RejectRequest 拒绝来自 fromUUID 的申请
	RejectRequest(ctx context.Context, userUUID, fromUUID string) error

	// DeleteFriend 解除与 friendUUID 的好友关系（双向）
	DeleteFriend(ctx context.Context, userUUID, friendUUID string) error
}

// ==================== 消息服务 ====================

// MessageService 单聊消息
type MessageService interface {
	// Sidebar 获取会话侧边栏
	Sidebar(ctx context.Context, userUUID string) (*dto.GetSidebarResponse, error)

	// List 获取与 peerUUID 的消息列表
	List(ctx context.Context, userUUID, peerUUID string, req *dto.GetMessageListRequest) (*dto.GetMessageListResponse, error)

	// Send 发送消息（落库后向双方推送 newMessage）
	Send(ctx context.Context, userUUID, peerUUID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
}

// ==================== 通话服务 ====================

// CallService 通话生命周期控制器。
// 所有状态流转在内部互斥锁下执行；通话历史写入是尽力而为的，
// 持久化失败不回滚内存状态。
type CallService interface {
	// Initiate 发起通话
	Initiate(ctx context.Context, callerUUID, receiverUUID string) (*dto.InitiateCallResponse, error)

	// Accept 被叫接听（pending→active），通知主叫
	Accept(ctx context.Context, callID, byUUID string)

	// Reject 被叫拒接（pending→rejected），通知主叫
	Reject(ctx context.Context, callID, byUUID string)

	// End 任一方挂断（pending|active→ended），通知对端
	End(ctx context.Context, callID, byUUID string)

	// HandleDisconnect 连接断开兜底：结束用户参与的存活会话
	HandleDisconnect(ctx context.Context, userUUID string)

	// Status 查询通话状态快照
	Status(ctx context.Context, callID, requesterUUID string) (*dto.CallStatusResponse, error)

	// History 获取通话历史（对端展示字段已联结）
	History(ctx context.Context, userUUID string, page, pageSize int) (*dto.CallHistoryResponse, error)

	// Shutdown 停止所有未触发的定时器
	Shutdown()
}

// ==================== 信令服务 ====================

// SignalService WebRTC 信令中继
type SignalService interface {
	// Relay 把 offerSignal/answerSignal/iceCandidate 原样转发给目标用户，
	// 仅把路由字段 to 替换为 from。目标不在线时静默丢弃。
	Relay(ctx context.Context, fromUUID, event string, raw []byte)
}
