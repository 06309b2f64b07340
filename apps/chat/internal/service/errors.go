package service

import "errors"

// ==================== Service 层业务错误定义 ====================
// 服务层只返回语义化的 sentinel error，
// 到 HTTP/WS 边界再映射为 consts 中的业务码。

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("email already registered")

	// ErrPasswordWrong 密码错误
	ErrPasswordWrong = errors.New("wrong password")

	// ErrSelfApply 不能添加自己为好友
	ErrSelfApply = errors.New("cannot add self as friend")

	// ErrAlreadyFriend 已经是好友
	ErrAlreadyFriend = errors.New("already friends")

	// ErrApplyExists 已有待处理的好友申请
	ErrApplyExists = errors.New("pending apply exists")

	// ErrApplyNotFound 好友申请不存在或已被处理
	ErrApplyNotFound = errors.New("apply not found")

	// ErrNotFriend 不存在该好友关系
	ErrNotFriend = errors.New("not friends")

	// ErrMessageEmpty 消息内容为空
	ErrMessageEmpty = errors.New("message is empty")

	// ErrReceiverNotFound 被叫用户不存在
	ErrReceiverNotFound = errors.New("receiver not found")

	// ErrCallerBusy 主叫方已在通话中
	ErrCallerBusy = errors.New("caller is busy")

	// ErrReceiverBusy 被叫方已在通话中
	ErrReceiverBusy = errors.New("receiver is busy")

	// ErrCallNotFound 通话不存在（或已过保留期）
	ErrCallNotFound = errors.New("call not found")

	// ErrNotCallParty 不是该通话的参与方
	ErrNotCallParty = errors.New("not a call party")
)
