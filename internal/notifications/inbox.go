package notifications

import (
	"context"
	"strings"

	"eventhub/internal/models"
	"eventhub/internal/repository"
)

// Subscribe stores a web-push endpoint for userID. Subscribing the same
// endpoint twice returns the existing row.
func (d *Dispatcher) Subscribe(ctx context.Context, userID uint, endpoint, p256dh, auth string) (*models.PushSubscription, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, models.NewValidationError("endpoint is required")
	}
	if p256dh == "" || auth == "" {
		return nil, models.NewValidationError("p256dh and auth keys are required")
	}

	existing, err := d.store.Subscriptions.FindByPair(ctx, userID, endpoint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sub := &models.PushSubscription{UserID: userID, Endpoint: endpoint, P256dh: p256dh, Auth: auth}
	if err := d.store.Subscriptions.Create(ctx, sub); err != nil {
		if repository.IsDuplicate(err) {
			return d.store.Subscriptions.FindByPair(ctx, userID, endpoint)
		}
		return nil, err
	}
	return sub, nil
}

// Unsubscribe removes the user's subscription for endpoint, if any.
func (d *Dispatcher) Unsubscribe(ctx context.Context, userID uint, endpoint string) error {
	_, err := d.store.Subscriptions.DeleteByPair(ctx, userID, strings.TrimSpace(endpoint))
	return err
}

// ListForUser returns the user's notifications, newest first.
func (d *Dispatcher) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	return d.store.Notifications.ListByUser(ctx, userID, repository.Page{Limit: limit, Offset: offset})
}

// MarkRead marks one of the user's notifications as read.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, notificationID uint) error {
	n, err := d.store.Notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return models.NewForbiddenError("not your notification")
	}
	return d.store.Notifications.MarkRead(ctx, n.ID)
}

func (d *Dispatcher) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return d.store.Notifications.MarkAllRead(ctx, userID)
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return d.store.Notifications.CountUnread(ctx, userID)
}

// Send delivers an ad-hoc notification on behalf of an admin.
func (d *Dispatcher) Send(ctx context.Context, p models.Principal, userID uint, content, link string) (*models.Notification, error) {
	if !p.IsAdmin() {
		return nil, models.NewForbiddenError("only admins can send notifications")
	}
	return d.Notify(ctx, userID, content, link)
}
