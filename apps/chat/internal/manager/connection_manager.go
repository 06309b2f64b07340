package manager

import (
	"sort"
	"sync"
)

// ConnectionManager 管理所有在线 WebSocket 连接，即在线状态的权威来源。
// 每个用户最多一条活跃连接：重连时新连接替换旧连接（last-connect-wins）。
//
// 在线广播对所有连接是 O(n) 的，当前目标规模下可接受；
// 这是已知的扩展上限，多节点部署需要换成共享存储 + 订阅广播。
type ConnectionManager struct {
	mu       sync.RWMutex
	byUser   map[string]*Client
	shutdown bool
}

// NewConnectionManager 创建连接管理器实例。
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		byUser: make(map[string]*Client),
	}
}

// Register 注册一个用户连接。
// 返回值 replaced 表示被新连接替换掉的旧连接（如果存在）。
// 调用方应主动关闭 replaced，确保每用户最多一个活跃连接。
func (m *ConnectionManager) Register(client *Client) (replaced *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil
	}

	if old, ok := m.byUser[client.UserUUID()]; ok && old != client {
		replaced = old
	}
	m.byUser[client.UserUUID()] = client
	return replaced
}

// Unregister 注销一个连接，返回是否真正移除了在线表项。
// 只有当 map 中当前连接与入参完全一致时才删除：
// 旧连接的迟到断开事件不能误删重连后的新连接。
// 返回 false 表示该用户仍然在线（表项已被更新的连接占据），
// 调用方不应触发任何"用户下线"副作用。
func (m *ConnectionManager) Unregister(client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byUser[client.UserUUID()]
	if !ok || current != client {
		return false
	}
	delete(m.byUser, client.UserUUID())
	return true
}

// Resolve 返回指定用户的活跃连接，不在线时返回 nil。
func (m *ConnectionManager) Resolve(userUUID string) *Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byUser[userUUID]
}

// IsOnline 判断用户是否在线。
func (m *ConnectionManager) IsOnline(userUUID string) bool {
	return m.Resolve(userUUID) != nil
}

// SendToUser 向指定用户的连接发送消息。
// 返回 false 表示目标不在线或写队列不可用。
func (m *ConnectionManager) SendToUser(userUUID string, msg []byte) bool {
	client := m.Resolve(userUUID)
	if client == nil {
		return false
	}
	return client.Enqueue(msg)
}

// Broadcast 向所有在线连接广播消息。
// 返回成功入队的连接数量。
func (m *ConnectionManager) Broadcast(msg []byte) int {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.byUser))
	for _, client := range m.byUser {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.Enqueue(msg) {
			sent++
		}
	}
	return sent
}

// OnlineUsers 返回当前在线用户 uuid 列表（排序后，保证广播内容稳定可比）。
func (m *ConnectionManager) OnlineUsers() []string {
	m.mu.RLock()
	users := make([]string, 0, len(m.byUser))
	for userUUID := range m.byUser {
		users = append(users, userUUID)
	}
	m.mu.RUnlock()

	sort.Strings(users)
	return users
}

// Count 返回当前在线连接数。
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser)
}

// Shutdown 关闭全部连接并阻止后续注册。
// 用于进程优雅退出阶段，确保不再接收新连接并尽快释放资源。
func (m *ConnectionManager) Shutdown() {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return
	}
	m.shutdown = true

	clients := make([]*Client, 0, len(m.byUser))
	for _, client := range m.byUser {
		clients = append(clients, client)
	}
	m.byUser = make(map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
