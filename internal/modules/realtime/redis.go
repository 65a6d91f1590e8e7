package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const Channel = "workshop:events"

// RedisBridge fans events out to every API instance. Emit publishes, and
// each instance delivers what it receives to its own hub.
type RedisBridge struct {
	client *redis.Client
	hub    *Hub
	log    *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func NewRedisBridge(client *redis.Client, hub *Hub, log *zap.Logger) *RedisBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBridge{
		client: client,
		hub:    hub,
		log:    log.With(zap.String("module", "realtime.redis")),
	}
}

func (b *RedisBridge) EmitToUser(ctx context.Context, userID int64, event string, payload any) error {
	data, err := json.Marshal(Message{Event: event, Room: UserRoom(userID), Payload: payload})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, Channel, data).Err()
}

// Start subscribes and delivers in the background until Close.
func (b *RedisBridge) Start(ctx context.Context) error {
	ps := b.client.Subscribe(ctx, Channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	b.mu.Lock()
	b.pubsub = ps
	b.done = make(chan struct{})
	b.mu.Unlock()

	go func() {
		defer close(b.done)
		for m := range ps.Channel() {
			b.handle(m.Payload)
		}
	}()
	return nil
}

func (b *RedisBridge) handle(payload string) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.log.Warn("dropping malformed event", zap.Error(err))
		return
	}
	if msg.Room == "" || msg.Event == "" {
		return
	}
	b.hub.Deliver(msg)
}

func (b *RedisBridge) Close() error {
	b.mu.Lock()
	ps, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()

	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-done
	return err
}
