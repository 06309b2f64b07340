package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(callID, caller, receiver string, status Status) *CallSession {
	return &CallSession{
		CallID:       callID,
		CallerUUID:   caller,
		ReceiverUUID: receiver,
		Status:       status,
		StartTime:    time.Now(),
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get("c1")
	require.False(t, ok)

	store.Put(newSession("c1", "alice", "bob", StatusPending))
	got, ok := store.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", got.CallerUUID)
	assert.Equal(t, 1, store.Len())

	store.Delete("c1")
	_, ok = store.Get("c1")
	assert.False(t, ok)

	// 删除不存在的会话是空操作
	store.Delete("c1")
}

func TestFindLiveByUserMatchesBothParties(t *testing.T) {
	store := NewMemoryStore()
	store.Put(newSession("c1", "alice", "bob", StatusActive))

	got, ok := store.FindLiveByUser("alice")
	require.True(t, ok)
	assert.Equal(t, "c1", got.CallID)

	got, ok = store.FindLiveByUser("bob")
	require.True(t, ok)
	assert.Equal(t, "c1", got.CallID)

	_, ok = store.FindLiveByUser("charlie")
	assert.False(t, ok)
}

func TestFindLiveByUserSkipsTerminalSessions(t *testing.T) {
	store := NewMemoryStore()

	// 终止态会话还在保留期内，但不参与忙线判定
	store.Put(newSession("c1", "alice", "bob", StatusRejected))
	store.Put(newSession("c2", "alice", "carol", StatusEnded))
	store.Put(newSession("c3", "dave", "alice", StatusMissed))

	_, ok := store.FindLiveByUser("alice")
	assert.False(t, ok)
	assert.Equal(t, 3, store.Len())
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPending.IsLive())
	assert.True(t, StatusActive.IsLive())
	assert.False(t, StatusEnded.IsLive())

	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusEnded.IsTerminal())
	assert.True(t, StatusMissed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
}

func TestPeer(t *testing.T) {
	s := newSession("c1", "alice", "bob", StatusPending)
	assert.Equal(t, "bob", s.Peer("alice"))
	assert.Equal(t, "alice", s.Peer("bob"))
	assert.Equal(t, "", s.Peer("charlie"))
}
