// Package service holds the business rules of events, registrations and
// the post/comment/like graph.
package service

import (
	"context"
	"strconv"

	"eventhub/internal/models"
	"eventhub/internal/repository"
)

// Notifier records notifications inside a caller transaction and fans them
// out once that transaction has committed.
type Notifier interface {
	Record(ctx context.Context, tx *repository.Store, userID uint, content, link string) (*models.Notification, error)
	Dispatch(ctx context.Context, notes ...*models.Notification)
}

// outbox collects the notifications written during one transaction so they
// are dispatched only after commit.
type outbox struct {
	notifier Notifier
	notes    []*models.Notification
}

func newOutbox(n Notifier) *outbox {
	return &outbox{notifier: n}
}

func (o *outbox) add(ctx context.Context, tx *repository.Store, userID uint, content, link string) error {
	if o.notifier == nil {
		return nil
	}
	n, err := o.notifier.Record(ctx, tx, userID, content, link)
	if err != nil {
		return err
	}
	o.notes = append(o.notes, n)
	return nil
}

func (o *outbox) flush(ctx context.Context) {
	if o.notifier == nil || len(o.notes) == 0 {
		return
	}
	o.notifier.Dispatch(ctx, o.notes...)
	o.notes = nil
}

func eventLink(eventID uint) string {
	return "/events/" + strconv.FormatUint(uint64(eventID), 10)
}

func postLink(post *models.Post) string {
	if post.EventID != nil {
		return eventLink(*post.EventID)
	}
	return "/news-feed"
}
