// internal/app/system/realtime/registry.go
//
// Package realtime is the in-process publish/subscribe layer behind the
// WebSocket endpoint. A Registry owns every live connection of this process
// and the channels each one is subscribed to. Delivery is fire-and-forget and
// at-most-once: a connection whose queue is full misses the event.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Event types pushed to clients.
const (
	EventNewComment   = "new_comment"
	EventNewMessage   = "new_message"
	EventNotification = "notification"
)

// Channel name helpers.
func UserChannel(userID string) string   { return "user:" + userID }
func IdeaChannel(ideaID string) string   { return "idea:" + ideaID }
func GroupChannel(groupID string) string { return "group:" + groupID }

// Event is one push to a channel.
type Event struct {
	Type string
	Data any
}

// wireEvent is what a client receives.
type wireEvent struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	Data    any    `json:"data,omitempty"`
}

// Publisher is what services depend on to push events.
type Publisher interface {
	Publish(ctx context.Context, channel string, ev Event) int
}

// Hub is a Publisher that can also revoke channel subscriptions, for
// features that manage channel membership.
type Hub interface {
	Publisher
	UnsubscribeUser(ctx context.Context, userID, channel string) int
	DropChannel(ctx context.Context, channel string) int
}

// Forwarder relays locally published payloads and unsubscribes to other
// instances. An empty userID in ForwardUnsubscribe means every subscriber.
type Forwarder interface {
	Forward(ctx context.Context, channel string, payload []byte) error
	ForwardUnsubscribe(ctx context.Context, channel, userID string) error
}

// Registry tracks connections and their channel subscriptions.
type Registry struct {
	mu       sync.RWMutex
	conns    map[*Conn]map[string]struct{}
	channels map[string]map[*Conn]struct{}

	log     *zap.Logger
	forward Forwarder
	dropped atomic.Int64
}

// NewRegistry returns an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		conns:    make(map[*Conn]map[string]struct{}),
		channels: make(map[string]map[*Conn]struct{}),
		log:      log,
	}
}

// SetForwarder attaches a cross-instance relay. Call before serving traffic.
func (r *Registry) SetForwarder(f Forwarder) { r.forward = f }

// Add registers c and subscribes it to its own user channel.
func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; ok {
		return
	}
	r.conns[c] = make(map[string]struct{})
	r.subscribeLocked(c, UserChannel(c.UserID))
}

// Remove unsubscribes c from everything and closes its send queue.
// Removing an unknown or already removed connection is a no-op.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	subs, ok := r.conns[c]
	if ok {
		for ch := range subs {
			r.unsubscribeLocked(c, ch)
		}
		delete(r.conns, c)
	}
	r.mu.Unlock()
	if ok {
		c.close()
	}
}

// Subscribe adds c to channel. It reports false when c is not registered.
func (r *Registry) Subscribe(c *Conn, channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return false
	}
	r.subscribeLocked(c, channel)
	return true
}

// Unsubscribe removes c from channel.
func (r *Registry) Unsubscribe(c *Conn, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked(c, channel)
}

// UnsubscribeUser removes every connection of userID from channel, here and
// on other instances. It returns the number of local connections removed.
func (r *Registry) UnsubscribeUser(ctx context.Context, userID, channel string) int {
	if userID == "" {
		return 0
	}
	return r.revoke(ctx, channel, userID)
}

// DropChannel removes every subscriber from channel, here and on other
// instances. Used when the channel's group no longer exists.
func (r *Registry) DropChannel(ctx context.Context, channel string) int {
	return r.revoke(ctx, channel, "")
}

func (r *Registry) revoke(ctx context.Context, channel, userID string) int {
	n := r.unsubscribeLocal(channel, userID)
	if r.forward != nil {
		if err := r.forward.ForwardUnsubscribe(ctx, channel, userID); err != nil {
			r.log.Warn("realtime: forward unsubscribe failed",
				zap.String("channel", channel),
				zap.Error(err))
		}
	}
	return n
}

// unsubscribeLocal removes local subscribers of channel belonging to userID,
// or all of them when userID is empty. A user's own channel is never dropped.
func (r *Registry) unsubscribeLocal(channel, userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for c := range r.channels[channel] {
		if userID != "" && c.UserID != userID {
			continue
		}
		if channel == UserChannel(c.UserID) {
			continue
		}
		r.unsubscribeLocked(c, channel)
		n++
	}
	return n
}

func (r *Registry) subscribeLocked(c *Conn, channel string) {
	r.conns[c][channel] = struct{}{}
	set, ok := r.channels[channel]
	if !ok {
		set = make(map[*Conn]struct{})
		r.channels[channel] = set
	}
	set[c] = struct{}{}
}

func (r *Registry) unsubscribeLocked(c *Conn, channel string) {
	if subs, ok := r.conns[c]; ok {
		delete(subs, channel)
	}
	if set, ok := r.channels[channel]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.channels, channel)
		}
	}
}

// Publish delivers ev to every local subscriber of channel and forwards it to
// other instances when a forwarder is set. It returns the number of local
// connections that accepted the event.
func (r *Registry) Publish(ctx context.Context, channel string, ev Event) int {
	payload, err := json.Marshal(wireEvent{Event: ev.Type, Channel: channel, Data: ev.Data})
	if err != nil {
		r.log.Warn("realtime: encode event failed",
			zap.String("channel", channel),
			zap.String("event", ev.Type),
			zap.Error(err))
		return 0
	}

	n := r.Deliver(channel, payload)

	if r.forward != nil {
		if err := r.forward.Forward(ctx, channel, payload); err != nil {
			r.log.Warn("realtime: forward failed",
				zap.String("channel", channel),
				zap.Error(err))
		}
	}
	return n
}

// Deliver pushes an encoded payload to local subscribers only.
func (r *Registry) Deliver(channel string, payload []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for c := range r.channels[channel] {
		if c.enqueue(payload) {
			delivered++
			continue
		}
		r.dropped.Add(1)
		r.log.Debug("realtime: queue full, event dropped",
			zap.String("conn_id", c.ID),
			zap.String("channel", channel))
	}
	return delivered
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// IsSubscribed reports whether c is on channel.
func (r *Registry) IsSubscribed(c *Conn, channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[c][channel]
	return ok
}

// Dropped returns how many deliveries were skipped because a queue was full.
func (r *Registry) Dropped() int64 { return r.dropped.Load() }

// CloseAll removes every connection. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[*Conn]map[string]struct{})
	r.channels = make(map[string]map[*Conn]struct{})
	r.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, string, Event) int { return 0 }

// UnsubscribeUser does nothing.
func (NopPublisher) UnsubscribeUser(context.Context, string, string) int { return 0 }

// DropChannel does nothing.
func (NopPublisher) DropChannel(context.Context, string) int { return 0 }
