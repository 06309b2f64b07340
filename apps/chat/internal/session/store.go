package session

import "sync"

// Store 通话会话表的存储抽象。
// 生命周期控制器只依赖该接口，进程内默认用 MemoryStore；
// 多节点部署时可替换为共享存储实现而不触碰控制器逻辑。
//
// 实现必须并发安全。跨多次调用的复合操作（忙线检查 + 写入）
// 由控制器层加锁保证原子性，Store 自身不承担。
type Store interface {
	// Get 按 callID 查询会话，不存在时返回 (nil, false)。
	Get(callID string) (*CallSession, bool)
	// Put 写入或覆盖会话。
	Put(s *CallSession)
	// Delete 删除会话，不存在时为空操作。
	Delete(callID string)
	// FindLiveByUser 查找用户参与的存活会话（pending/active）。
	// 按不变量同一用户最多一个，返回第一个命中的。
	FindLiveByUser(userUUID string) (*CallSession, bool)
	// Len 返回当前会话数量（含终止态保留中的）。
	Len() int
}

// MemoryStore 进程内会话表实现。
// 全量扫描的 FindLiveByUser 在单用户低并发场景下足够，无需维护反向索引。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
}

// NewMemoryStore 创建内存会话表。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*CallSession),
	}
}

func (m *MemoryStore) Get(callID string) (*CallSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[callID]
	return s, ok
}

func (m *MemoryStore) Put(s *CallSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.CallID] = s
}

func (m *MemoryStore) Delete(callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, callID)
}

func (m *MemoryStore) FindLiveByUser(userUUID string) (*CallSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.Status.IsLive() && s.HasParty(userUUID) {
			return s, true
		}
	}
	return nil, false
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
