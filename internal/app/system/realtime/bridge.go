// internal/app/system/realtime/bridge.go
package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BridgeChannel is the Redis pub/sub channel shared by all instances.
const BridgeChannel = "classforge:realtime"

// envelope is what travels over Redis.
// Unsubscribe envelopes carry no payload; UserID is empty for a whole channel.
type envelope struct {
	Origin      string          `json:"origin"`
	Channel     string          `json:"channel"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Unsubscribe bool            `json:"unsubscribe,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
}

// RedisBridge relays events between instances so a client connected to one
// instance receives events published on another.
type RedisBridge struct {
	rdb      *redis.Client
	registry *Registry
	instance string
	log      *zap.Logger
}

// NewRedisBridge returns a bridge for registry. Call registry.SetForwarder
// with it and start Run in a goroutine.
func NewRedisBridge(rdb *redis.Client, registry *Registry, log *zap.Logger) *RedisBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBridge{
		rdb:      rdb,
		registry: registry,
		instance: uuid.NewString(),
		log:      log,
	}
}

// Instance returns this process's origin id.
func (b *RedisBridge) Instance() string { return b.instance }

// Forward publishes a locally delivered payload for the other instances.
func (b *RedisBridge) Forward(ctx context.Context, channel string, payload []byte) error {
	msg, err := b.encode(channel, payload)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, BridgeChannel, msg).Err()
}

// ForwardUnsubscribe asks the other instances to drop subscribers of channel.
func (b *RedisBridge) ForwardUnsubscribe(ctx context.Context, channel, userID string) error {
	msg, err := json.Marshal(envelope{Origin: b.instance, Channel: channel, Unsubscribe: true, UserID: userID})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, BridgeChannel, msg).Err()
}

// Run subscribes to the bridge channel and delivers foreign events locally
// until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.rdb.Subscribe(ctx, BridgeChannel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so early publishes are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return err
	}
	b.log.Info("realtime bridge subscribed",
		zap.String("channel", BridgeChannel),
		zap.String("instance", b.instance))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle([]byte(msg.Payload))
		}
	}
}

func (b *RedisBridge) encode(channel string, payload []byte) ([]byte, error) {
	return json.Marshal(envelope{Origin: b.instance, Channel: channel, Payload: payload})
}

// handle delivers one bridged message. It returns the number of local
// connections reached.
func (b *RedisBridge) handle(raw []byte) int {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		b.log.Warn("realtime bridge: bad message", zap.Error(err))
		return 0
	}
	if env.Origin == b.instance || env.Channel == "" {
		return 0
	}
	if env.Unsubscribe {
		return b.registry.unsubscribeLocal(env.Channel, env.UserID)
	}
	return b.registry.Deliver(env.Channel, env.Payload)
}
