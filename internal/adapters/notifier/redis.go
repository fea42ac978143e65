package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

const DefaultChannel = "inventory"

// RedisNotifier publishes change events on a pub/sub channel. Delivery is
// best effort: subscribers that are not connected at publish time miss it.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Publish(ctx context.Context, event domain.Event) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s event: %s", domain.ErrNotify, event.Type, err.Error())
	}
	if err := n.client.Publish(ctx, n.channel, message).Err(); err != nil {
		return fmt.Errorf("%w: failed to publish %s event to %s: %s", domain.ErrNotify, event.Type, n.channel, err.Error())
	}
	return nil
}
