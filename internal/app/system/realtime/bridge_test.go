package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBridge_DeliversForeignMessages(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	c := NewConn("u", 4)
	reg.Add(c)

	local := NewRedisBridge(nil, reg, zap.NewNop())
	remote := NewRedisBridge(nil, NewRegistry(nil), zap.NewNop())
	require.NotEqual(t, local.Instance(), remote.Instance())

	msg, err := remote.encode(UserChannel("u"), []byte(`{"event":"notification","channel":"user:u"}`))
	require.NoError(t, err)

	assert.Equal(t, 1, local.handle(msg))
	got := <-c.Queue()
	assert.JSONEq(t, `{"event":"notification","channel":"user:u"}`, string(got))
}

func TestBridge_IgnoresOwnMessages(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	c := NewConn("u", 4)
	reg.Add(c)
	b := NewRedisBridge(nil, reg, zap.NewNop())

	msg, err := b.encode(UserChannel("u"), []byte(`{"event":"notification"}`))
	require.NoError(t, err)

	assert.Equal(t, 0, b.handle(msg))
	assert.Len(t, c.Queue(), 0)
}

func TestBridge_BadPayload(t *testing.T) {
	b := NewRedisBridge(nil, NewRegistry(nil), zap.NewNop())
	assert.Equal(t, 0, b.handle([]byte("garbage")))
}

func TestBridge_AppliesForeignUnsubscribe(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	c := NewConn("u", 4)
	reg.Add(c)
	require.True(t, reg.Subscribe(c, GroupChannel("g")))

	local := NewRedisBridge(nil, reg, zap.NewNop())
	msg, err := json.Marshal(envelope{Origin: "other", Channel: GroupChannel("g"), Unsubscribe: true, UserID: "u"})
	require.NoError(t, err)

	assert.Equal(t, 1, local.handle(msg))
	assert.False(t, reg.IsSubscribed(c, GroupChannel("g")))
	assert.Len(t, c.Queue(), 0)
}
