package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	EventSignedIn  = "signed_in"
	EventSignedOut = "signed_out"
)

// SessionEvent is broadcast on every authentication transition so every
// store instance can rebind identity, across processes.
type SessionEvent struct {
	Event  string `json:"event"`
	UserID string `json:"user_id"`
}

type EventBus struct {
	rdb     *redis.Client
	channel string
}

func NewEventBus(rdb *redis.Client, channel string) *EventBus {
	return &EventBus{rdb: rdb, channel: channel}
}

func (b *EventBus) Publish(ctx context.Context, event SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("EventBus.Publish marshal: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("EventBus.Publish: %w", err)
	}
	return nil
}

// Subscribe delivers session events until ctx is cancelled. Messages that
// fail to decode are dropped; the channel closes when the subscription ends.
func (b *EventBus) Subscribe(ctx context.Context) <-chan SessionEvent {
	sub := b.rdb.Subscribe(ctx, b.channel)
	events := make(chan SessionEvent)

	go func() {
		defer close(events)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var event SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}
