package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReplacesOldConnection(t *testing.T) {
	m := NewConnectionManager()

	first := NewClient(nil, "u1")
	replaced := m.Register(first)
	require.Nil(t, replaced)
	require.Equal(t, 1, m.Count())

	// 同一用户重连：新连接替换旧连接，返回被替换的旧连接
	second := NewClient(nil, "u1")
	replaced = m.Register(second)
	require.Same(t, first, replaced)
	require.Equal(t, 1, m.Count())
	assert.Same(t, second, m.Resolve("u1"))
}

func TestUnregisterIgnoresStaleConnection(t *testing.T) {
	m := NewConnectionManager()

	old := NewClient(nil, "u1")
	m.Register(old)

	// 重连发生后，旧连接的迟到断开事件不能把新连接踢下线，
	// 且必须返回 false，调用方据此跳过下线副作用（广播、兜底挂断）
	fresh := NewClient(nil, "u1")
	m.Register(fresh)

	require.False(t, m.Unregister(old))
	require.True(t, m.IsOnline("u1"))
	assert.Same(t, fresh, m.Resolve("u1"))

	require.True(t, m.Unregister(fresh))
	assert.False(t, m.IsOnline("u1"))
}

func TestOnlineUsersSorted(t *testing.T) {
	m := NewConnectionManager()
	m.Register(NewClient(nil, "charlie"))
	m.Register(NewClient(nil, "alice"))
	m.Register(NewClient(nil, "bob"))

	assert.Equal(t, []string{"alice", "bob", "charlie"}, m.OnlineUsers())
}

func TestSendToUser(t *testing.T) {
	m := NewConnectionManager()
	client := NewClient(nil, "u1")
	m.Register(client)

	require.True(t, m.SendToUser("u1", []byte(`{"type":"heartbeat_ack"}`)))
	// 目标不在线时静默失败
	assert.False(t, m.SendToUser("u2", []byte("x")))
}

func TestBroadcastReachesAllClients(t *testing.T) {
	m := NewConnectionManager()
	m.Register(NewClient(nil, "u1"))
	m.Register(NewClient(nil, "u2"))
	m.Register(NewClient(nil, "u3"))

	sent := m.Broadcast([]byte(`{"type":"getOnlineUsers"}`))
	assert.Equal(t, 3, sent)
}

func TestShutdownBlocksNewRegistrations(t *testing.T) {
	m := NewConnectionManager()
	m.Register(NewClient(nil, "u1"))

	m.Shutdown()
	require.Equal(t, 0, m.Count())

	replaced := m.Register(NewClient(nil, "u2"))
	assert.Nil(t, replaced)
	assert.Equal(t, 0, m.Count())
}
