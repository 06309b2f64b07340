package config

import "time"

// AsyncConfig 后台任务协程池配置。
// 这个池只承接尽力而为的旁路写：用户缓存回填、空占位写入、心跳活跃时间刷新。
// 主链路（通话流转、消息收发）不经过它，池打满丢任务不影响正确性。
type AsyncConfig struct {
	PoolSize         int           `json:"poolSize" yaml:"poolSize"`                 // 协程池容量
	MaxBlockingTasks int           `json:"maxBlockingTasks" yaml:"maxBlockingTasks"` // 最大阻塞任务数（0 表示不限制）
	ExpiryDuration   time.Duration `json:"expiryDuration" yaml:"expiryDuration"`     // 空闲 worker 过期时间
	Nonblocking      bool          `json:"nonblocking" yaml:"nonblocking"`           // 是否非阻塞提交
	ReleaseTimeout   time.Duration `json:"releaseTimeout" yaml:"releaseTimeout"`     // 优雅释放等待时间
}

// DefaultAsyncConfig 返回默认配置。
// 任务都是毫秒级的 Redis 写，池不必很大；非阻塞提交保证心跳路径绝不被池阻塞，
// 池满时任务直接丢弃（旁路写丢了可以接受）。
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		PoolSize:         128,
		MaxBlockingTasks: 0,
		ExpiryDuration:   30 * time.Second,
		Nonblocking:      true,
		ReleaseTimeout:   3 * time.Second,
	}
}
