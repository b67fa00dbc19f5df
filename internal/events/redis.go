package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDispatcher decorates a local Dispatcher with Redis pub/sub fan-out:
// published events are mirrored onto a Redis channel, and events arriving
// from other API instances are replayed into the local dispatcher. This is
// how every instance's board converges on the same pending set.
type RedisDispatcher struct {
	local      Dispatcher
	client     *redis.Client
	channel    string
	instanceID string
	logger     *zap.Logger
}

// NewRedisDispatcher wraps a local dispatcher.
func NewRedisDispatcher(local Dispatcher, client *redis.Client, channel string, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{
		local:      local,
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// Publish delivers locally, then mirrors the event to Redis. A Redis publish
// failure does not fail the operation; local consumers already saw it.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	event.Origin = d.instanceID
	if err := d.local.Publish(ctx, event); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
		d.logger.Warn("redis event publish failed", zap.Error(err), zap.String("event_id", event.ID))
	}
	return nil
}

// Subscribe registers a handler on the local dispatcher.
func (d *RedisDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.local.Subscribe(eventType, handler)
}

// Listen consumes the Redis channel until ctx is cancelled, replaying remote
// events into the local dispatcher. Events this instance emitted are skipped.
func (d *RedisDispatcher) Listen(ctx context.Context) {
	pubsub := d.client.Subscribe(ctx, d.channel)
	defer pubsub.Close() //nolint:errcheck

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				d.logger.Warn("malformed event on redis channel", zap.Error(err))
				continue
			}
			if event.Origin == d.instanceID {
				continue
			}
			if err := d.local.Publish(ctx, event); err != nil {
				d.logger.Warn("replaying remote event failed", zap.Error(err), zap.String("event_id", event.ID))
			}
		}
	}
}
