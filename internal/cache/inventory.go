package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	EventKeyPrefix = "event:%d"
)

const (
	EventTTL = 5 * time.Minute
)

func EventKey(eventID uint) string {
	return fmt.Sprintf(EventKeyPrefix, eventID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateEvent(ctx context.Context, eventID uint) {
	Invalidate(ctx, EventKey(eventID))
}
