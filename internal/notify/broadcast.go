package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// dismissalChannel is the pub/sub channel carrying dismissed alarm ids.
const dismissalChannel = "alarm-clock:dismissed"

// Broadcaster publishes dismissal confirmations.
type Broadcaster struct {
	client *redis.Client
}

// NewBroadcaster returns a broadcaster over the provided Redis client.
func NewBroadcaster(client *redis.Client) *Broadcaster {
	return &Broadcaster{client: client}
}

// DismissalConfirmed announces that the session for the alarm id was dismissed.
func (b *Broadcaster) DismissalConfirmed(ctx context.Context, alarmID int64) error {
	if err := b.client.Publish(ctx, dismissalChannel, alarmID).Err(); err != nil {
		return fmt.Errorf("publish dismissal: %w", err)
	}

	return nil
}

// SubscribeDismissals delivers dismissed alarm ids on the returned channel
// until the context is cancelled. Malformed payloads are logged and skipped.
func SubscribeDismissals(ctx context.Context, client *redis.Client) (<-chan int64, error) {
	sub := client.Subscribe(ctx, dismissalChannel)

	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()

		return nil, fmt.Errorf("subscribe dismissals: %w", err)
	}

	out := make(chan int64)

	go func() {
		defer close(out)
		defer func() {
			_ = sub.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}

				id, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					logger.WarnKV(ctx, "Malformed dismissal payload", "payload", msg.Payload)
					continue
				}

				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
