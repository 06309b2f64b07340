package service

import (
	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/protocol"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/apps/chat/internal/session"
	"LinkChat/config"
	"LinkChat/model"
	"LinkChat/pkg/logger"
	"LinkChat/pkg/util"
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// peerDisplay 通话展示元数据（昵称/头像），进程内带过期的 LRU 缓存。
// 过期后回源 userRepo，资料修改最多延迟一个 TTL 窗口生效
type peerDisplay struct {
	Nickname string
	Avatar   string
}

const displayCacheSize = 1024

// callServiceImpl 通话生命周期控制器实现。
//
// 并发模型：所有状态流转（忙线检查 + 写入 + 定时器增删）在 mu 下执行，
// 保证"同一用户最多一个存活会话"的不变量；下行推送和历史持久化在锁外。
//
// 定时器：每个 callID 同一时刻最多挂一个定时器——
// pending 阶段是未接听超时定时器，进入终止态后换成保留期删除定时器。
// 状态流转时先取消旧定时器再挂新的，Shutdown 统一停止。
//
// 历史持久化是尽力而为：写失败记日志后放弃，永不回滚内存状态。
type callServiceImpl struct {
	mu     sync.Mutex
	store  session.Store
	timers map[string]*time.Timer
	closed bool

	userRepo repository.IUserRepository
	callRepo repository.ICallRepository
	pusher   Pusher
	cfg      config.CallConfig

	displayCache *expirable.LRU[string, peerDisplay]
}

// NewCallService 创建通话服务实例
// store 可注入（多节点部署时换共享存储实现），传 nil 使用进程内存储
func NewCallService(
	store session.Store,
	userRepo repository.IUserRepository,
	callRepo repository.ICallRepository,
	pusher Pusher,
	cfg config.CallConfig,
) CallService {
	if store == nil {
		store = session.NewMemoryStore()
	}
	cache := expirable.NewLRU[string, peerDisplay](displayCacheSize, nil, cfg.DisplayCacheTTL)
	return &callServiceImpl{
		store:        store,
		timers:       make(map[string]*time.Timer),
		userRepo:     userRepo,
		callRepo:     callRepo,
		pusher:       pusher,
		cfg:          cfg,
		displayCache: cache,
	}
}

// resolveDisplay 查询用户展示元数据（LRU → 用户缓存/库）
// 用户不存在时返回 (zero, false)
func (s *callServiceImpl) resolveDisplay(ctx context.Context, userUUID string) (peerDisplay, bool) {
	if display, ok := s.displayCache.Get(userUUID); ok {
		return display, true
	}

	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		logger.Warn(ctx, "查询用户展示信息失败", logger.ErrorField("error", err))
		return peerDisplay{}, false
	}
	if user == nil {
		return peerDisplay{}, false
	}

	display := peerDisplay{Nickname: user.Nickname, Avatar: user.Avatar}
	s.displayCache.Add(userUUID, display)
	return display, true
}

// ==================== 定时器管理（调用方必须持有 mu） ====================

// armTimerLocked 为 callID 挂定时器，替换已有的
func (s *callServiceImpl) armTimerLocked(callID string, d time.Duration, fn func()) {
	if s.closed {
		return
	}
	if old, ok := s.timers[callID]; ok {
		old.Stop()
	}
	s.timers[callID] = time.AfterFunc(d, fn)
}

// cancelTimerLocked 取消 callID 的定时器
func (s *callServiceImpl) cancelTimerLocked(callID string) {
	if timer, ok := s.timers[callID]; ok {
		timer.Stop()
		delete(s.timers, callID)
	}
}

// ==================== 历史持久化（尽力而为） ====================

func (s *callServiceImpl) persistCreate(ctx context.Context, record *model.CallRecord) {
	if err := s.callRepo.Create(ctx, record); err != nil {
		logger.Error(ctx, "通话记录写入失败，放弃",
			logger.String("call_id", record.CallId),
			logger.ErrorField("error", err),
		)
	}
}

func (s *callServiceImpl) persistUpdate(ctx context.Context, callID string, updates map[string]interface{}) {
	if err := s.callRepo.UpdateByCallID(ctx, callID, updates); err != nil {
		logger.Error(ctx, "通话记录更新失败，放弃",
			logger.String("call_id", callID),
			logger.ErrorField("error", err),
		)
	}
}

// ==================== 下行推送 ====================

// pushCallEvent 向目标用户推送 {callId} 事件，不在线静默跳过
func (s *callServiceImpl) pushCallEvent(ctx context.Context, toUUID, event, callID string) {
	payload, err := protocol.Marshal(event, protocol.CallEventData{CallID: callID})
	if err != nil {
		logger.Error(ctx, "通话事件序列化失败", logger.ErrorField("error", err))
		return
	}
	s.pusher.SendToUser(toUUID, payload)
}

// ==================== 生命周期操作 ====================

// Initiate 发起通话
func (s *callServiceImpl) Initiate(ctx context.Context, callerUUID, receiverUUID string) (*dto.InitiateCallResponse, error) {
	receiverDisplay, ok := s.resolveDisplay(ctx, receiverUUID)
	if !ok {
		return nil, ErrReceiverNotFound
	}
	callerDisplay, ok := s.resolveDisplay(ctx, callerUUID)
	if !ok {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	callID := util.NewUUID()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrCallNotFound
	}
	// 忙线检查与写入必须在同一临界区内完成
	if _, busy := s.store.FindLiveByUser(callerUUID); busy {
		s.mu.Unlock()
		return nil, ErrCallerBusy
	}
	if _, busy := s.store.FindLiveByUser(receiverUUID); busy {
		s.mu.Unlock()
		return nil, ErrReceiverBusy
	}

	s.store.Put(&session.CallSession{
		CallID:         callID,
		CallerUUID:     callerUUID,
		CallerName:     callerDisplay.Nickname,
		CallerAvatar:   callerDisplay.Avatar,
		ReceiverUUID:   receiverUUID,
		ReceiverName:   receiverDisplay.Nickname,
		ReceiverAvatar: receiverDisplay.Avatar,
		Status:         session.StatusPending,
		StartTime:      now,
	})
	s.armTimerLocked(callID, s.cfg.PendingTimeout, func() { s.timeout(callID) })
	s.mu.Unlock()

	// 悲观默认值：发起即落一条 missed 记录，后续流转原地更新
	s.persistCreate(ctx, &model.CallRecord{
		CallId:       callID,
		CallerUuid:   callerUUID,
		ReceiverUuid: receiverUUID,
		Status:       model.CallRecordMissed,
		StartTime:    now,
	})

	receiverOnline := s.pusher.IsOnline(receiverUUID)
	if receiverOnline {
		payload, err := protocol.Marshal(protocol.EventIncomingCall, protocol.IncomingCallData{
			CallID:       callID,
			CallerID:     callerUUID,
			CallerName:   callerDisplay.Nickname,
			CallerAvatar: callerDisplay.Avatar,
		})
		if err == nil {
			s.pusher.SendToUser(receiverUUID, payload)
		}
	}

	logger.Info(ctx, "通话发起",
		logger.String("call_id", callID),
		logger.String("caller", callerUUID),
		logger.String("receiver", receiverUUID),
		logger.Bool("receiver_online", receiverOnline),
	)

	return &dto.InitiateCallResponse{CallID: callID, ReceiverOnline: receiverOnline}, nil
}

// Accept 被叫接听
// 未知 callID、非被叫方、非 pending 状态都是幂等空操作
func (s *callServiceImpl) Accept(ctx context.Context, callID, byUUID string) {
	s.mu.Lock()
	sess, ok := s.store.Get(callID)
	if !ok || sess.ReceiverUUID != byUUID || sess.Status != session.StatusPending {
		s.mu.Unlock()
		return
	}
	sess.Status = session.StatusActive
	s.store.Put(sess)
	s.cancelTimerLocked(callID)
	callerUUID := sess.CallerUUID
	s.mu.Unlock()

	s.persistUpdate(ctx, callID, map[string]interface{}{
		"status": model.CallRecordAccepted,
	})
	s.pushCallEvent(ctx, callerUUID, protocol.EventCallAccepted, callID)

	logger.Info(ctx, "通话接通", logger.String("call_id", callID))
}

// Reject 被叫拒接
func (s *callServiceImpl) Reject(ctx context.Context, callID, byUUID string) {
	now := time.Now()

	s.mu.Lock()
	sess, ok := s.store.Get(callID)
	if !ok || sess.ReceiverUUID != byUUID || sess.Status != session.StatusPending {
		s.mu.Unlock()
		return
	}
	sess.Status = session.StatusRejected
	sess.EndTime = &now
	s.store.Put(sess)
	s.armTimerLocked(callID, s.cfg.TerminalLinger, func() { s.expire(callID) })
	callerUUID := sess.CallerUUID
	s.mu.Unlock()

	s.persistUpdate(ctx, callID, map[string]interface{}{
		"status":   model.CallRecordRejected,
		"end_time": now,
	})
	s.pushCallEvent(ctx, callerUUID, protocol.EventCallRejected, callID)

	logger.Info(ctx, "通话拒接", logger.String("call_id", callID))
}

// End 任一方挂断
func (s *callServiceImpl) End(ctx context.Context, callID, byUUID string) {
	now := time.Now()

	s.mu.Lock()
	sess, ok := s.store.Get(callID)
	if !ok || !sess.HasParty(byUUID) || !sess.Status.IsLive() {
		s.mu.Unlock()
		return
	}
	sess.Status = session.StatusEnded
	sess.EndTime = &now
	s.store.Put(sess)
	s.armTimerLocked(callID, s.cfg.TerminalLinger, func() { s.expire(callID) })
	peerUUID := sess.Peer(byUUID)
	duration := int(math.Round(now.Sub(sess.StartTime).Seconds()))
	s.mu.Unlock()

	s.persistUpdate(ctx, callID, map[string]interface{}{
		"status":   model.CallRecordEnded,
		"duration": duration,
		"end_time": now,
	})
	s.pushCallEvent(ctx, peerUUID, protocol.EventCallEnded, callID)

	logger.Info(ctx, "通话结束",
		logger.String("call_id", callID),
		logger.Int("duration", duration),
	)
}

// timeout 未接听超时（定时器回调）
// 记录的 status 本就是悲观默认值 missed，只需补 end_time
func (s *callServiceImpl) timeout(callID string) {
	ctx := context.Background()
	now := time.Now()

	s.mu.Lock()
	sess, ok := s.store.Get(callID)
	if !ok || sess.Status != session.StatusPending {
		s.mu.Unlock()
		return
	}
	sess.Status = session.StatusMissed
	sess.EndTime = &now
	s.store.Put(sess)
	s.armTimerLocked(callID, s.cfg.TerminalLinger, func() { s.expire(callID) })
	callerUUID := sess.CallerUUID
	s.mu.Unlock()

	s.persistUpdate(ctx, callID, map[string]interface{}{
		"end_time": now,
	})
	s.pushCallEvent(ctx, callerUUID, protocol.EventCallTimeout, callID)

	logger.Info(ctx, "呼叫超时未接听", logger.String("call_id", callID))
}

// expire 终止态保留期结束（定时器回调），从会话表删除
func (s *callServiceImpl) expire(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(callID)
	if !ok || !sess.Status.IsTerminal() {
		return
	}
	s.store.Delete(callID)
	delete(s.timers, callID)
}

// HandleDisconnect 连接断开兜底
// 用户掉线时结束其参与的存活会话，对端会收到 callEnded
func (s *callServiceImpl) HandleDisconnect(ctx context.Context, userUUID string) {
	s.mu.Lock()
	sess, ok := s.store.FindLiveByUser(userUUID)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.End(ctx, sess.CallID, userUUID)
}

// Status 查询通话状态快照
// 会话还在内存（含终止态保留期）时用内存快照，否则回源历史记录
func (s *callServiceImpl) Status(ctx context.Context, callID, requesterUUID string) (*dto.CallStatusResponse, error) {
	// 会话对象会被状态流转原地修改，快照字段必须在锁内拷贝完
	s.mu.Lock()
	sess, ok := s.store.Get(callID)
	var resp *dto.CallStatusResponse
	var isParty bool
	if ok {
		if isParty = sess.HasParty(requesterUUID); isParty {
			resp = &dto.CallStatusResponse{
				CallID:       sess.CallID,
				Status:       string(sess.Status),
				CallerUUID:   sess.CallerUUID,
				ReceiverUUID: sess.ReceiverUUID,
				StartTime:    sess.StartTime.UnixMilli(),
			}
			if sess.EndTime != nil {
				resp.EndTime = sess.EndTime.UnixMilli()
			}
		}
	}
	s.mu.Unlock()

	if ok {
		if !isParty {
			return nil, ErrNotCallParty
		}
		return resp, nil
	}

	record, err := s.callRepo.GetByCallID(ctx, callID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	if record.CallerUuid != requesterUUID && record.ReceiverUuid != requesterUUID {
		return nil, ErrNotCallParty
	}
	resp = &dto.CallStatusResponse{
		CallID:       record.CallId,
		Status:       record.Status,
		CallerUUID:   record.CallerUuid,
		ReceiverUUID: record.ReceiverUuid,
		StartTime:    record.StartTime.UnixMilli(),
	}
	if record.EndTime != nil {
		resp.EndTime = record.EndTime.UnixMilli()
	}
	return resp, nil
}

// History 获取通话历史
func (s *callServiceImpl) History(ctx context.Context, userUUID string, page, pageSize int) (*dto.CallHistoryResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.cfg.HistoryPageSize
	}
	offset := (page - 1) * pageSize

	records, err := s.callRepo.ListByUser(ctx, userUUID, pageSize, offset)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.CallHistoryItem, 0, len(records))
	for _, record := range records {
		item := dto.ConvertToCallHistoryItem(record, userUUID)
		if display, ok := s.resolveDisplay(ctx, item.PeerUUID); ok {
			item.PeerNickname = display.Nickname
			item.PeerAvatar = display.Avatar
		}
		items = append(items, item)
	}

	return &dto.CallHistoryResponse{Items: items}, nil
}

// Shutdown 停止所有未触发的定时器
func (s *callServiceImpl) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for callID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, callID)
	}
}
