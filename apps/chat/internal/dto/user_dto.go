package dto

// ==================== 用户信息相关 DTO ====================

// UpdateProfileRequest 更新个人资料请求 DTO
// Avatar 支持两种形式：已有 URL 或 base64 Data URL（后者先上传对象存储换取 URL）
type UpdateProfileRequest struct {
	Nickname string `json:"nickname" binding:"omitempty,min=2,max=20"` // 昵称
	Avatar   string `json:"avatar" binding:"omitempty"`                // 头像（URL 或 base64）
}

// ProfileResponse 个人资料响应 DTO
type ProfileResponse struct {
	UserInfo *UserInfoItem `json:"userInfo"` // 用户信息
}
