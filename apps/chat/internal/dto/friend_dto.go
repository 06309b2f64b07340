package dto

// ==================== 好友相关 DTO ====================

// GetAvailableUsersResponse 获取可添加用户列表响应 DTO
// 可添加 = 非本人、非好友、且没有双向待处理申请
type GetAvailableUsersResponse struct {
	Items []*UserInfoItem `json:"items"` // 可添加的用户列表
}

// FriendRequestItem 待处理好友申请 DTO
type FriendRequestItem struct {
	ApplyID           int64  `json:"applyId"`           // 申请ID
	ApplicantUUID     string `json:"applicantUuid"`     // 申请人UUID
	ApplicantNickname string `json:"applicantNickname"` // 申请人昵称
	ApplicantAvatar   string `json:"applicantAvatar"`   // 申请人头像
	CreatedAt         int64  `json:"createdAt"`         // 申请时间（毫秒时间戳）
}

// GetFriendRequestsResponse 获取待处理申请列表响应 DTO
type GetFriendRequestsResponse struct {
	Items []*FriendRequestItem `json:"items"` // 待处理申请列表
}

// GetFriendListResponse 获取好友列表响应 DTO
type GetFriendListResponse struct {
	Items []*FriendItem `json:"items"` // 好友列表
}

// FriendItem 好友信息 DTO（附带在线状态）
type FriendItem struct {
	UUID     string `json:"uuid"`     // 好友UUID
	Email    string `json:"email"`    // 邮箱
	Nickname string `json:"nickname"` // 昵称
	Avatar   string `json:"avatar"`   // 头像
	Online   bool   `json:"online"`   // 是否在线
}
