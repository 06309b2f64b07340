package service

import (
	"context"
	"testing"
	"time"

	"LinkChat/apps/chat/internal/dto"
	"LinkChat/apps/chat/internal/protocol"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageRepo struct {
	messages []*model.Message
	sidebar  []*repository.SidebarEntry
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *model.Message) (*model.Message, error) {
	msg.Id = int64(len(f.messages) + 1)
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeMessageRepo) ListBetween(_ context.Context, _, _ string, _, _ int) ([]*model.Message, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) Sidebar(_ context.Context, _ string) ([]*repository.SidebarEntry, error) {
	return f.sidebar, nil
}

func newMessageFixture() (MessageService, *fakeMessageRepo, *fakePusherForCall) {
	initCallTestLogger()
	msgRepo := &fakeMessageRepo{}
	pusher := newFakePusher()
	userRepo := &fakeBatchUserRepo{inner: &fakeUserRepoForCall{getByUUIDFn: knownUsers("alice", "bob")}}
	svc := NewMessageService(msgRepo, userRepo, nil, pusher)
	return svc, msgRepo, pusher
}

func TestSendRequiresContent(t *testing.T) {
	svc, _, _ := newMessageFixture()

	_, err := svc.Send(context.Background(), "alice", "bob", &dto.SendMessageRequest{})
	require.ErrorIs(t, err, ErrMessageEmpty)
}

func TestSendUnknownReceiver(t *testing.T) {
	svc, _, _ := newMessageFixture()

	_, err := svc.Send(context.Background(), "alice", "nobody", &dto.SendMessageRequest{Text: "hi"})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendPersistsAndPushesBothParties(t *testing.T) {
	svc, msgRepo, pusher := newMessageFixture()

	resp, err := svc.Send(context.Background(), "alice", "bob", &dto.SendMessageRequest{Text: "hello"})
	require.NoError(t, err)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "hello", resp.Message.Text)

	require.Len(t, msgRepo.messages, 1)
	assert.Equal(t, "alice", msgRepo.messages[0].SenderUuid)
	assert.Equal(t, "bob", msgRepo.messages[0].ReceiverUuid)

	// 双方都收到 newMessage（发送方用于多端同步）
	assert.Equal(t, []string{protocol.EventNewMessage}, pusher.eventsTo(t, "bob"))
	assert.Equal(t, []string{protocol.EventNewMessage}, pusher.eventsTo(t, "alice"))
}

func TestSidebarJoinsPeerInfo(t *testing.T) {
	svc, msgRepo, _ := newMessageFixture()
	now := time.Now()
	msgRepo.sidebar = []*repository.SidebarEntry{
		{PeerUuid: "bob", LastMessageAt: now},
		{PeerUuid: "ghost", LastMessageAt: now.Add(-time.Hour)}, // 已注销，应跳过
	}

	resp, err := svc.Sidebar(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "bob", resp.Items[0].User.UUID)
	assert.Equal(t, now.UnixMilli(), resp.Items[0].LastMessageAt)
}
