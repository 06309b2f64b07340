package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"LinkChat/apps/chat/internal/protocol"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/apps/chat/internal/session"
	"LinkChat/config"
	"LinkChat/model"
	"LinkChat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var callLoggerOnce sync.Once

func initCallTestLogger() {
	callLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

// ==================== 测试替身 ====================

type fakeUserRepoForCall struct {
	getByUUIDFn func(context.Context, string) (*model.UserInfo, error)
}

func (f *fakeUserRepoForCall) GetByUUID(ctx context.Context, uuid string) (*model.UserInfo, error) {
	if f.getByUUIDFn == nil {
		return nil, nil
	}
	return f.getByUUIDFn(ctx, uuid)
}

func (f *fakeUserRepoForCall) BatchGetByUUIDs(ctx context.Context, uuids []string) ([]*model.UserInfo, error) {
	return nil, nil
}

func (f *fakeUserRepoForCall) UpdateProfile(ctx context.Context, userUUID, nickname, avatar string) error {
	return nil
}

func (f *fakeUserRepoForCall) ListOthers(ctx context.Context, userUUID string, limit int) ([]*model.UserInfo, error) {
	return nil, nil
}

func (f *fakeUserRepoForCall) TouchActive(ctx context.Context, userUUID string) {}

type fakeCallRepoForCall struct {
	mu      sync.Mutex
	created []*model.CallRecord
	updated map[string][]map[string]interface{}

	createFn      func(context.Context, *model.CallRecord) error
	getByCallIDFn func(context.Context, string) (*model.CallRecord, error)
	listByUserFn  func(context.Context, string, int, int) ([]*model.CallRecord, error)
}

func newFakeCallRepo() *fakeCallRepoForCall {
	return &fakeCallRepoForCall{updated: make(map[string][]map[string]interface{})}
}

func (f *fakeCallRepoForCall) Create(ctx context.Context, record *model.CallRecord) error {
	f.mu.Lock()
	f.created = append(f.created, record)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, record)
	}
	return nil
}

func (f *fakeCallRepoForCall) UpdateByCallID(ctx context.Context, callID string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[callID] = append(f.updated[callID], updates)
	return nil
}

func (f *fakeCallRepoForCall) GetByCallID(ctx context.Context, callID string) (*model.CallRecord, error) {
	if f.getByCallIDFn == nil {
		return nil, repository.ErrRecordNotFound
	}
	return f.getByCallIDFn(ctx, callID)
}

func (f *fakeCallRepoForCall) ListByUser(ctx context.Context, userUUID string, limit, offset int) ([]*model.CallRecord, error) {
	if f.listByUserFn == nil {
		return nil, nil
	}
	return f.listByUserFn(ctx, userUUID, limit, offset)
}

func (f *fakeCallRepoForCall) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeCallRepoForCall) updatesFor(callID string) []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.updated[callID]...)
}

type fakePusherForCall struct {
	mu      sync.Mutex
	sent    map[string][][]byte
	offline map[string]bool
}

func newFakePusher() *fakePusherForCall {
	return &fakePusherForCall{
		sent:    make(map[string][][]byte),
		offline: make(map[string]bool),
	}
}

func (f *fakePusherForCall) SendToUser(userUUID string, msg []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline[userUUID] {
		return false
	}
	f.sent[userUUID] = append(f.sent[userUUID], msg)
	return true
}

func (f *fakePusherForCall) Broadcast(msg []byte) int { return 0 }

func (f *fakePusherForCall) OnlineUsers() []string { return nil }

func (f *fakePusherForCall) IsOnline(userUUID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.offline[userUUID]
}

func (f *fakePusherForCall) setOffline(userUUID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline[userUUID] = true
}

// eventsTo 返回推送给 userUUID 的事件类型序列
func (f *fakePusherForCall) eventsTo(t *testing.T, userUUID string) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []string
	for _, raw := range f.sent[userUUID] {
		var envelope protocol.Envelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		types = append(types, envelope.Type)
	}
	return types
}

// ==================== 组装 ====================

type callFixture struct {
	svc      CallService
	store    *session.MemoryStore
	userRepo *fakeUserRepoForCall
	callRepo *fakeCallRepoForCall
	pusher   *fakePusherForCall
}

func knownUsers(uuids ...string) func(context.Context, string) (*model.UserInfo, error) {
	set := make(map[string]struct{}, len(uuids))
	for _, uuid := range uuids {
		set[uuid] = struct{}{}
	}
	return func(_ context.Context, uuid string) (*model.UserInfo, error) {
		if _, ok := set[uuid]; !ok {
			return nil, nil
		}
		return &model.UserInfo{Uuid: uuid, Nickname: "nick-" + uuid, Avatar: "avatar-" + uuid}, nil
	}
}

func newCallFixture(t *testing.T, cfg config.CallConfig) *callFixture {
	t.Helper()
	initCallTestLogger()

	store := session.NewMemoryStore()
	callRepo := newFakeCallRepo()
	pusher := newFakePusher()
	userRepo := &fakeUserRepoForCall{getByUUIDFn: knownUsers("alice", "bob", "carol")}

	svc := NewCallService(store, userRepo, callRepo, pusher, cfg)
	t.Cleanup(svc.Shutdown)

	return &callFixture{svc: svc, store: store, userRepo: userRepo, callRepo: callRepo, pusher: pusher}
}

func defaultCallCfg() config.CallConfig {
	return config.CallConfig{
		TerminalLinger:  time.Hour, // 测试默认不让定时器触发
		PendingTimeout:  time.Hour,
		HistoryPageSize: 30,
		DisplayCacheTTL: time.Hour,
	}
}

// ==================== 发起 ====================

func TestInitiateCreatesPendingSessionAndNotifiesReceiver(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.NotEmpty(t, resp.CallID)
	assert.True(t, resp.ReceiverOnline)

	sess, ok := f.store.Get(resp.CallID)
	require.True(t, ok)
	assert.Equal(t, session.StatusPending, sess.Status)
	assert.Equal(t, "alice", sess.CallerUUID)
	assert.Equal(t, "bob", sess.ReceiverUUID)

	// 悲观默认值：发起即落 missed 记录
	require.Equal(t, 1, f.callRepo.createdCount())
	assert.Equal(t, model.CallRecordMissed, f.callRepo.created[0].Status)

	assert.Equal(t, []string{protocol.EventIncomingCall}, f.pusher.eventsTo(t, "bob"))
}

func TestInitiateOfflineReceiverSkipsPush(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())
	f.pusher.setOffline("bob")

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.False(t, resp.ReceiverOnline)
	assert.Empty(t, f.pusher.eventsTo(t, "bob"))

	// 会话照常创建，等待超时转 missed
	_, ok := f.store.Get(resp.CallID)
	assert.True(t, ok)
}

func TestInitiateUnknownReceiver(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	_, err := f.svc.Initiate(context.Background(), "alice", "nobody")
	require.ErrorIs(t, err, ErrReceiverNotFound)
	assert.Equal(t, 0, f.callRepo.createdCount())
	assert.Equal(t, 0, f.store.Len())
}

func TestInitiateBusyChecks(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	_, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	// 主叫忙线
	_, err = f.svc.Initiate(context.Background(), "alice", "carol")
	require.ErrorIs(t, err, ErrCallerBusy)

	// 被叫忙线
	_, err = f.svc.Initiate(context.Background(), "carol", "bob")
	require.ErrorIs(t, err, ErrReceiverBusy)

	// 忙线拒绝不产生历史记录
	assert.Equal(t, 1, f.callRepo.createdCount())
	assert.Equal(t, 1, f.store.Len())
}

// ==================== 接听 / 拒接 / 挂断 ====================

func TestAcceptTransitionsToActive(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	f.svc.Accept(context.Background(), resp.CallID, "bob")

	sess, ok := f.store.Get(resp.CallID)
	require.True(t, ok)
	assert.Equal(t, session.StatusActive, sess.Status)

	updates := f.callRepo.updatesFor(resp.CallID)
	require.Len(t, updates, 1)
	assert.Equal(t, model.CallRecordAccepted, updates[0]["status"])

	assert.Equal(t, []string{protocol.EventCallAccepted}, f.pusher.eventsTo(t, "alice"))
}

func TestAcceptByNonReceiverIsNoop(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	// 主叫不能替被叫接听
	f.svc.Accept(context.Background(), resp.CallID, "alice")
	// 旁观者也不行
	f.svc.Accept(context.Background(), resp.CallID, "carol")

	sess, _ := f.store.Get(resp.CallID)
	assert.Equal(t, session.StatusPending, sess.Status)
	assert.Empty(t, f.callRepo.updatesFor(resp.CallID))
}

func TestAcceptUnknownCallIsNoop(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())
	f.svc.Accept(context.Background(), "no-such-call", "bob")
	assert.Empty(t, f.pusher.eventsTo(t, "alice"))
}

func TestRejectNotifiesCallerAndFreesBusyState(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	f.svc.Reject(context.Background(), resp.CallID, "bob")

	sess, ok := f.store.Get(resp.CallID)
	require.True(t, ok)
	assert.Equal(t, session.StatusRejected, sess.Status)
	require.NotNil(t, sess.EndTime)

	updates := f.callRepo.updatesFor(resp.CallID)
	require.Len(t, updates, 1)
	assert.Equal(t, model.CallRecordRejected, updates[0]["status"])
	assert.Contains(t, updates[0], "end_time")

	assert.Equal(t, []string{protocol.EventCallRejected}, f.pusher.eventsTo(t, "alice"))

	// 终止态不算忙线：保留期内重新拨打成功
	_, err = f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
}

func TestEndComputesRoundedDuration(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	f.svc.Accept(context.Background(), resp.CallID, "bob")

	// 把发起时间拨回 65 秒前，避免真实等待
	sess, _ := f.store.Get(resp.CallID)
	sess.StartTime = time.Now().Add(-65 * time.Second)
	f.store.Put(sess)

	f.svc.End(context.Background(), resp.CallID, "alice")

	sess, ok := f.store.Get(resp.CallID)
	require.True(t, ok)
	assert.Equal(t, session.StatusEnded, sess.Status)

	updates := f.callRepo.updatesFor(resp.CallID)
	require.Len(t, updates, 2) // accepted + ended
	assert.Equal(t, model.CallRecordEnded, updates[1]["status"])
	assert.Equal(t, 65, updates[1]["duration"])

	// 挂断方是主叫，通知发给被叫
	assert.Equal(t, []string{protocol.EventIncomingCall, protocol.EventCallEnded}, f.pusher.eventsTo(t, "bob"))
}

func TestEndPendingCallCancelsIt(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	// 主叫在被叫响应前挂断
	f.svc.End(context.Background(), resp.CallID, "alice")

	sess, _ := f.store.Get(resp.CallID)
	assert.Equal(t, session.StatusEnded, sess.Status)
	assert.Equal(t, []string{protocol.EventIncomingCall, protocol.EventCallEnded}, f.pusher.eventsTo(t, "bob"))
}

func TestEndByNonPartyIsNoop(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	f.svc.End(context.Background(), resp.CallID, "carol")

	sess, _ := f.store.Get(resp.CallID)
	assert.Equal(t, session.StatusPending, sess.Status)
}

func TestDuplicateEventsOnTerminalSessionAreNoops(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	f.svc.Reject(context.Background(), resp.CallID, "bob")

	// 保留期内迟到/重复的生命周期事件全部吞掉
	f.svc.Accept(context.Background(), resp.CallID, "bob")
	f.svc.Reject(context.Background(), resp.CallID, "bob")
	f.svc.End(context.Background(), resp.CallID, "alice")

	sess, _ := f.store.Get(resp.CallID)
	assert.Equal(t, session.StatusRejected, sess.Status)
	assert.Len(t, f.callRepo.updatesFor(resp.CallID), 1)
	assert.Equal(t, []string{protocol.EventCallRejected}, f.pusher.eventsTo(t, "alice"))
}

// ==================== 超时与保留期 ====================

func TestPendingTimeoutTransitionsToMissed(t *testing.T) {
	cfg := defaultCallCfg()
	cfg.PendingTimeout = 30 * time.Millisecond
	f := newCallFixture(t, cfg)
	f.pusher.setOffline("bob")

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	// 推送是超时流程的最后一步，等到它出现后其余断言不再有竞争
	require.Eventually(t, func() bool {
		for _, event := range f.pusher.eventsTo(t, "alice") {
			if event == protocol.EventCallTimeout {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	sess, ok := f.store.Get(resp.CallID)
	require.True(t, ok)
	assert.Equal(t, session.StatusMissed, sess.Status)

	// 记录本就是 missed，只补 end_time
	updates := f.callRepo.updatesFor(resp.CallID)
	require.Len(t, updates, 1)
	assert.NotContains(t, updates[0], "status")
	assert.Contains(t, updates[0], "end_time")
}

func TestAcceptCancelsPendingTimeout(t *testing.T) {
	cfg := defaultCallCfg()
	cfg.PendingTimeout = 30 * time.Millisecond
	f := newCallFixture(t, cfg)

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	f.svc.Accept(context.Background(), resp.CallID, "bob")

	time.Sleep(80 * time.Millisecond)

	sess, ok := f.store.Get(resp.CallID)
	require.True(t, ok)
	assert.Equal(t, session.StatusActive, sess.Status)
	assert.NotContains(t, f.pusher.eventsTo(t, "alice"), protocol.EventCallTimeout)
}

func TestTerminalLingerEvictsSession(t *testing.T) {
	cfg := defaultCallCfg()
	cfg.TerminalLinger = 30 * time.Millisecond
	f := newCallFixture(t, cfg)

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	f.svc.Reject(context.Background(), resp.CallID, "bob")

	require.Eventually(t, func() bool {
		_, ok := f.store.Get(resp.CallID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestShutdownStopsPendingTimers(t *testing.T) {
	cfg := defaultCallCfg()
	cfg.PendingTimeout = 50 * time.Millisecond
	f := newCallFixture(t, cfg)

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	f.svc.Shutdown()
	time.Sleep(120 * time.Millisecond)

	sess, ok := f.store.Get(resp.CallID)
	require.True(t, ok)
	assert.Equal(t, session.StatusPending, sess.Status)
}

// ==================== 断线兜底 ====================

func TestHandleDisconnectEndsLiveCall(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	f.svc.Accept(context.Background(), resp.CallID, "bob")

	f.svc.HandleDisconnect(context.Background(), "bob")

	sess, _ := f.store.Get(resp.CallID)
	assert.Equal(t, session.StatusEnded, sess.Status)
	// 掉线的是被叫，通知发给主叫
	assert.Contains(t, f.pusher.eventsTo(t, "alice"), protocol.EventCallEnded)
}

func TestHandleDisconnectWithoutLiveCallIsNoop(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())
	f.svc.HandleDisconnect(context.Background(), "alice")
	assert.Equal(t, 0, f.store.Len())
}

// ==================== 状态查询 ====================

func TestStatusSnapshotAndAccessControl(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)

	snap, err := f.svc.Status(context.Background(), resp.CallID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "pending", snap.Status)
	assert.Equal(t, "alice", snap.CallerUUID)
	assert.Equal(t, "bob", snap.ReceiverUUID)

	_, err = f.svc.Status(context.Background(), resp.CallID, "carol")
	require.ErrorIs(t, err, ErrNotCallParty)

	_, err = f.svc.Status(context.Background(), "no-such-call", "alice")
	require.ErrorIs(t, err, ErrCallNotFound)
}

func TestStatusSnapshotConsistentUnderConcurrentEnd(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	resp, err := f.svc.Initiate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	f.svc.Accept(context.Background(), resp.CallID, "bob")

	// 状态流转会原地改会话对象，快照必须在锁内整体拷贝：
	// 终止态快照绝不能出现 status 已写、end_time 还没写的撕裂读
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			snap, err := f.svc.Status(context.Background(), resp.CallID, "alice")
			if err != nil {
				continue
			}
			if snap.Status == string(session.StatusEnded) {
				assert.NotZero(t, snap.EndTime)
			}
		}
	}()

	f.svc.End(context.Background(), resp.CallID, "alice")
	<-done

	snap, err := f.svc.Status(context.Background(), resp.CallID, "bob")
	require.NoError(t, err)
	assert.Equal(t, string(session.StatusEnded), snap.Status)
	assert.NotZero(t, snap.EndTime)
}

func TestStatusFallsBackToHistoryRecord(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	end := time.Now()
	f.callRepo.getByCallIDFn = func(_ context.Context, callID string) (*model.CallRecord, error) {
		if callID != "archived" {
			return nil, repository.ErrRecordNotFound
		}
		return &model.CallRecord{
			CallId:       "archived",
			CallerUuid:   "alice",
			ReceiverUuid: "bob",
			Status:       model.CallRecordEnded,
			StartTime:    end.Add(-time.Minute),
			EndTime:      &end,
		}, nil
	}

	snap, err := f.svc.Status(context.Background(), "archived", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.CallRecordEnded, snap.Status)
	assert.NotZero(t, snap.EndTime)
}

// ==================== 历史 ====================

func TestHistoryJoinsPeerDisplay(t *testing.T) {
	f := newCallFixture(t, defaultCallCfg())

	now := time.Now()
	f.callRepo.listByUserFn = func(_ context.Context, userUUID string, limit, offset int) ([]*model.CallRecord, error) {
		assert.Equal(t, "alice", userUUID)
		assert.Equal(t, 30, limit)
		assert.Equal(t, 0, offset)
		return []*model.CallRecord{
			{CallId: "c1", CallerUuid: "alice", ReceiverUuid: "bob", Status: model.CallRecordEnded, Duration: 42, StartTime: now},
			{CallId: "c2", CallerUuid: "carol", ReceiverUuid: "alice", Status: model.CallRecordMissed, StartTime: now.Add(-time.Hour)},
		}, nil
	}

	resp, err := f.svc.History(context.Background(), "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	first := resp.Items[0]
	assert.True(t, first.Outgoing)
	assert.Equal(t, "bob", first.PeerUUID)
	assert.Equal(t, "nick-bob", first.PeerNickname)
	assert.Equal(t, 42, first.Duration)

	second := resp.Items[1]
	assert.False(t, second.Outgoing)
	assert.Equal(t, "carol", second.PeerUUID)
	assert.Equal(t, "nick-carol", second.PeerNickname)
}

func TestDisplayCacheExpiresAndPicksUpProfileChange(t *testing.T) {
	cfg := defaultCallCfg()
	cfg.DisplayCacheTTL = 20 * time.Millisecond
	f := newCallFixture(t, cfg)

	now := time.Now()
	f.callRepo.listByUserFn = func(_ context.Context, _ string, _, _ int) ([]*model.CallRecord, error) {
		return []*model.CallRecord{
			{CallId: "c1", CallerUuid: "alice", ReceiverUuid: "bob", Status: model.CallRecordEnded, StartTime: now},
		}, nil
	}

	resp, err := f.svc.History(context.Background(), "alice", 1, 10)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "nick-bob", resp.Items[0].PeerNickname)

	// 改昵称后展示缓存过期回源，历史列表在 TTL 窗口内拿到新昵称
	f.userRepo.getByUUIDFn = func(_ context.Context, uuid string) (*model.UserInfo, error) {
		return &model.UserInfo{Uuid: uuid, Nickname: "renamed-" + uuid, Avatar: "avatar-" + uuid}, nil
	}
	require.Eventually(t, func() bool {
		resp, err := f.svc.History(context.Background(), "alice", 1, 10)
		return err == nil && len(resp.Items) == 1 && resp.Items[0].PeerNickname == "renamed-bob"
	}, time.Second, 10*time.Millisecond)
}
