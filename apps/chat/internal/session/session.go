package session

import "time"

// Status 通话会话状态。
type Status string

const (
	// StatusPending 已发起，等待被叫响应
	StatusPending Status = "pending"
	// StatusActive 双方接通
	StatusActive Status = "active"
	// StatusRejected 被叫拒接（终止态）
	StatusRejected Status = "rejected"
	// StatusEnded 任一方挂断（终止态）
	StatusEnded Status = "ended"
	// StatusMissed 超时未接听（终止态）
	StatusMissed Status = "missed"
)

// IsTerminal 判断是否终止态。
// 终止态会话在内存中短暂保留以吸收迟到的重复事件，但不参与忙线判定。
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusEnded || s == StatusMissed
}

// IsLive 判断是否存活态（pending/active）。
// 忙线判定只看存活态：一个用户同一时刻最多是一个存活会话的参与方。
func (s Status) IsLive() bool {
	return s == StatusPending || s == StatusActive
}

// CallSession 通话会话，实时通话状态的权威内存记录。
// 发起时创建，进入终止态后延迟删除；与持久化的通话历史记录相互独立。
// 展示字段（昵称/头像）在发起时一次性解析，信令期间不再查库。
type CallSession struct {
	CallID string

	CallerUUID   string
	CallerName   string
	CallerAvatar string

	ReceiverUUID   string
	ReceiverName   string
	ReceiverAvatar string

	Status    Status
	StartTime time.Time
	EndTime   *time.Time
}

// HasParty 判断用户是否为该会话的参与方。
func (s *CallSession) HasParty(userUUID string) bool {
	return s.CallerUUID == userUUID || s.ReceiverUUID == userUUID
}

// Peer 返回相对于 userUUID 的另一方。
// userUUID 不是参与方时返回空串。
func (s *CallSession) Peer(userUUID string) string {
	switch userUUID {
	case s.CallerUUID:
		return s.ReceiverUUID
	case s.ReceiverUUID:
		return s.CallerUUID
	default:
		return ""
	}
}
