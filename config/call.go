package config

import "time"

// CallConfig 通话生命周期配置。
//
// TerminalLinger: 会话进入终止态后在内存中保留的时长。
// 作用是吸收客户端迟到/重复的生命周期事件（重复 accept/reject/end 在保留期内
// 是幂等空操作而不是"通话不存在"）。终止态会话不参与忙线判定，
// 保留期内重新拨打不会被误判为忙线。
//
// PendingTimeout: pending 状态的最长等待时长。超时后会话转入 missed 终止态，
// 并通知主叫方。源于历史记录的悲观默认值 missed，无需再补写状态。
//
// DisplayCacheTTL: 通话展示元数据（昵称/头像）进程内缓存的过期时长。
// 过期后回源用户缓存/库，保证改完资料后来电弹窗和历史列表能在该窗口内刷新。
type CallConfig struct {
	TerminalLinger  time.Duration `json:"terminalLinger" yaml:"terminalLinger"`   // 终止态会话保留时长
	PendingTimeout  time.Duration `json:"pendingTimeout" yaml:"pendingTimeout"`   // 未接听超时时长
	HistoryPageSize int           `json:"historyPageSize" yaml:"historyPageSize"` // 通话历史默认分页大小
	DisplayCacheTTL time.Duration `json:"displayCacheTtl" yaml:"displayCacheTtl"` // 展示元数据缓存过期时长
}

// DefaultCallConfig 返回默认配置。
func DefaultCallConfig() CallConfig {
	return CallConfig{
		TerminalLinger:  5 * time.Second,
		PendingTimeout:  60 * time.Second,
		HistoryPageSize: 30,
		DisplayCacheTTL: time.Minute,
	}
}
