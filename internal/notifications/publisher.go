// Package notifications records in-app notifications and fans them out to
// web-push subscriptions and Redis channels.
package notifications

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher provides helpers to publish notifications into Redis channels
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a new Publisher instance using the provided Redis client.
// A nil client makes every publish a no-op.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Enabled reports whether publishes reach Redis.
func (p *Publisher) Enabled() bool {
	return p != nil && p.rdb != nil
}

// UserChannel returns the channel name for a user's notifications.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// PublishUser sends a notification payload to a user's channel.
func (p *Publisher) PublishUser(ctx context.Context, userID uint, payload string) error {
	if !p.Enabled() {
		return nil
	}
	return p.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}
