package service

import (
	"context"
	"encoding/json"
	"testing"

	"LinkChat/apps/chat/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelaySubstitutesFromForTo(t *testing.T) {
	initCallTestLogger()
	pusher := newFakePusher()
	svc := NewSignalService(pusher)

	raw := []byte(`{"callId":"c1","signal":{"type":"offer","sdp":"v=0..."},"to":"bob"}`)
	svc.Relay(context.Background(), "alice", protocol.EventOfferSignal, raw)

	sent := pusher.sent["bob"]
	require.Len(t, sent, 1)

	var envelope protocol.Envelope
	require.NoError(t, json.Unmarshal(sent[0], &envelope))
	assert.Equal(t, protocol.EventOfferSignal, envelope.Type)

	var outbound protocol.SignalOutbound
	require.NoError(t, json.Unmarshal(envelope.Data, &outbound))
	assert.Equal(t, "c1", outbound.CallID)
	assert.Equal(t, "alice", outbound.From)
	// signal 载荷原样透传
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0..."}`, string(outbound.Signal))
}

func TestRelayCandidatePassthrough(t *testing.T) {
	initCallTestLogger()
	pusher := newFakePusher()
	svc := NewSignalService(pusher)

	raw := []byte(`{"callId":"c1","candidate":{"candidate":"candidate:1 1 UDP ..."},"to":"alice"}`)
	svc.Relay(context.Background(), "bob", protocol.EventICECandidate, raw)

	sent := pusher.sent["alice"]
	require.Len(t, sent, 1)

	var envelope protocol.Envelope
	require.NoError(t, json.Unmarshal(sent[0], &envelope))
	var outbound protocol.SignalOutbound
	require.NoError(t, json.Unmarshal(envelope.Data, &outbound))
	assert.Equal(t, "bob", outbound.From)
	assert.NotEmpty(t, outbound.Candidate)
}

func TestRelayOfflineTargetSilentDrop(t *testing.T) {
	initCallTestLogger()
	pusher := newFakePusher()
	pusher.setOffline("bob")
	svc := NewSignalService(pusher)

	raw := []byte(`{"callId":"c1","signal":{},"to":"bob"}`)
	svc.Relay(context.Background(), "alice", protocol.EventAnswerSignal, raw)

	assert.Empty(t, pusher.sent["bob"])
}

func TestRelayMalformedPayloadDropped(t *testing.T) {
	initCallTestLogger()
	pusher := newFakePusher()
	svc := NewSignalService(pusher)

	svc.Relay(context.Background(), "alice", protocol.EventOfferSignal, []byte("not json"))
	svc.Relay(context.Background(), "alice", protocol.EventOfferSignal, []byte(`{"callId":"c1"}`))
	svc.Relay(context.Background(), "alice", protocol.EventOfferSignal, []byte(`{"to":"bob"}`))

	assert.Empty(t, pusher.sent["bob"])
}
