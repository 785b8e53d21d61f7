package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingForwarder struct {
	mu       sync.Mutex
	channels []string
	unsubs   []string
	err      error
}

func (f *recordingForwarder) ForwardUnsubscribe(_ context.Context, channel, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubs = append(f.unsubs, channel+"/"+userID)
	return f.err
}

func (f *recordingForwarder) Forward(_ context.Context, channel string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	return f.err
}

func (r *Registry) subscribers(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}

func decodeWire(t *testing.T, b []byte) wireEvent {
	t.Helper()
	var ev wireEvent
	require.NoError(t, json.Unmarshal(b, &ev))
	return ev
}

func TestRegistry_AddJoinsUserChannel(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	c := NewConn("u1", 4)
	r.Add(c)

	assert.Equal(t, 1, r.Count())
	assert.True(t, r.IsSubscribed(c, UserChannel("u1")))
	assert.Equal(t, 1, r.subscribers("user:u1"))
}

func TestRegistry_PublishReachesSubscribersOnly(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	a := NewConn("a", 4)
	b := NewConn("b", 4)
	r.Add(a)
	r.Add(b)
	require.True(t, r.Subscribe(a, IdeaChannel("i1")))

	n := r.Publish(context.Background(), IdeaChannel("i1"), Event{Type: EventNewComment, Data: map[string]string{"text": "hi"}})
	assert.Equal(t, 1, n)

	select {
	case got := <-a.Queue():
		ev := decodeWire(t, got)
		assert.Equal(t, EventNewComment, ev.Event)
		assert.Equal(t, "idea:i1", ev.Channel)
	default:
		t.Fatal("expected event on subscribed connection")
	}
	assert.Len(t, b.Queue(), 0)
}

func TestRegistry_UnsubscribeStopsDelivery(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	c := NewConn("u", 4)
	r.Add(c)
	r.Subscribe(c, GroupChannel("g"))
	r.Unsubscribe(c, GroupChannel("g"))

	assert.Equal(t, 0, r.Publish(context.Background(), GroupChannel("g"), Event{Type: EventNewMessage}))
	assert.Equal(t, 0, r.subscribers(GroupChannel("g")))
}

func TestRegistry_FullQueueDrops(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	c := NewConn("u", 1)
	r.Add(c)

	ch := UserChannel("u")
	assert.Equal(t, 1, r.Publish(context.Background(), ch, Event{Type: EventNotification}))
	assert.Equal(t, 0, r.Publish(context.Background(), ch, Event{Type: EventNotification}))
	assert.Equal(t, int64(1), r.Dropped())
}

func TestRegistry_RemoveClosesQueue(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	c := NewConn("u", 4)
	r.Add(c)
	r.Subscribe(c, IdeaChannel("x"))

	r.Remove(c)
	r.Remove(c) // second remove is a no-op

	_, open := <-c.Queue()
	assert.False(t, open)
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, r.subscribers(IdeaChannel("x")))
	assert.False(t, r.Subscribe(c, IdeaChannel("x")), "removed connection cannot subscribe")
}

func TestRegistry_ForwardsAfterLocalDelivery(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	fwd := &recordingForwarder{err: errors.New("redis down")}
	r.SetForwarder(fwd)

	// No local subscribers, forward still happens and its error is swallowed.
	n := r.Publish(context.Background(), GroupChannel("g"), Event{Type: EventNewMessage})
	assert.Equal(t, 0, n)
	assert.Equal(t, []string{"group:g"}, fwd.channels)
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry(nil)
	conns := []*Conn{NewConn("a", 1), NewConn("b", 1), NewConn("c", 1)}
	for _, c := range conns {
		r.Add(c)
	}
	r.CloseAll()

	assert.Equal(t, 0, r.Count())
	for _, c := range conns {
		_, open := <-c.Queue()
		assert.False(t, open)
	}
}

func TestRegistry_ConcurrentPublishAndRemove(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		c := NewConn("u", 8)
		r.Add(c)
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Publish(context.Background(), UserChannel("u"), Event{Type: EventNotification})
		}()
		go func() {
			defer wg.Done()
			r.Remove(c)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_UnsubscribeUser(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	fwd := &recordingForwarder{}
	r.SetForwarder(fwd)

	group := GroupChannel("g")
	ada1, ada2, bob := NewConn("ada", 4), NewConn("ada", 4), NewConn("bob", 4)
	for _, c := range []*Conn{ada1, ada2, bob} {
		r.Add(c)
		require.True(t, r.Subscribe(c, group))
	}

	assert.Equal(t, 2, r.UnsubscribeUser(context.Background(), "ada", group))
	assert.False(t, r.IsSubscribed(ada1, group))
	assert.False(t, r.IsSubscribed(ada2, group))
	assert.True(t, r.IsSubscribed(bob, group))
	assert.True(t, r.IsSubscribed(ada1, UserChannel("ada")), "user channel is kept")
	assert.Equal(t, []string{"group:g/ada"}, fwd.unsubs)

	assert.Equal(t, 1, r.Publish(context.Background(), group, Event{Type: EventNewMessage}))
	assert.Len(t, ada1.Queue(), 0)
	assert.Len(t, bob.Queue(), 1)

	assert.Equal(t, 0, r.UnsubscribeUser(context.Background(), "", group), "empty user id is ignored")
}

func TestRegistry_DropChannel(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	group := GroupChannel("g")
	a, b := NewConn("a", 4), NewConn("b", 4)
	for _, c := range []*Conn{a, b} {
		r.Add(c)
		require.True(t, r.Subscribe(c, group))
	}

	assert.Equal(t, 2, r.DropChannel(context.Background(), group))
	assert.Equal(t, 0, r.subscribers(group))
	assert.Equal(t, 1, r.subscribers(UserChannel("a")))

	// A user channel cannot be emptied this way.
	assert.Equal(t, 0, r.DropChannel(context.Background(), UserChannel("a")))
}
