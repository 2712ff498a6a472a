package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/observability"
	"eventhub/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ErrDispatcherClosed is returned by Shutdown when it is called twice.
var ErrDispatcherClosed = errors.New("notification dispatcher already closed")

// Options tunes the push worker pool.
type Options struct {
	Workers   int
	QueueSize int
	Title     string
}

// publishTimeout bounds one Redis PUBLISH issued by a worker.
const publishTimeout = 3 * time.Second

// pushJob is one unit of background work: a web-push delivery to sub, or a
// Redis publish to the recipient's channel when sub is nil.
type pushJob struct {
	id      string
	userID  uint
	sub     *models.PushSubscription
	payload []byte
}

func (j pushJob) subscriptionID() uint {
	if j.sub == nil {
		return 0
	}
	return j.sub.ID
}

// Dispatcher writes in-app notifications and delivers web push in the
// background. The in-app row is the source of truth; push is best effort.
type Dispatcher struct {
	store     *repository.Store
	pusher    Pusher
	publisher *Publisher
	opts      Options

	queue chan pushJob

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Call Start before notifications are
// dispatched and Shutdown on exit.
func NewDispatcher(store *repository.Store, pusher Pusher, publisher *Publisher, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.Title == "" {
		opts.Title = "New notification"
	}
	if pusher == nil {
		pusher = NoopPusher{}
	}
	return &Dispatcher{
		store:     store,
		pusher:    pusher,
		publisher: publisher,
		opts:      opts,
		queue:     make(chan pushJob, opts.QueueSize),
	}
}

// Start launches the worker pool. Deliveries use ctx, so cancelling it aborts
// in-flight HTTP requests; the workers themselves exit on Shutdown.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	middleware.Logger.Info("push dispatcher started", "workers", d.opts.Workers, "queue", d.opts.QueueSize)
}

// Shutdown stops accepting jobs, lets the workers drain the queue, and waits
// for them or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Record inserts a notification row through tx. Pass the caller's
// transaction so the row commits or rolls back with the surrounding write.
// Push delivery happens later in Dispatch.
func (d *Dispatcher) Record(ctx context.Context, tx *repository.Store, userID uint, content, link string) (*models.Notification, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("notification content is required")
	}
	if tx == nil {
		tx = d.store
	}
	n := &models.Notification{UserID: userID, Content: content, Link: link}
	if err := tx.Notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Dispatch fans out committed notifications to Redis and to every push
// subscription of their recipients. Both run on the worker pool, so Dispatch
// never blocks on the network.
func (d *Dispatcher) Dispatch(ctx context.Context, notes ...*models.Notification) {
	for _, n := range notes {
		if n == nil {
			continue
		}
		observability.NotificationsCreated.Inc()
		d.publish(ctx, n)

		subs, err := d.store.Subscriptions.ListByUser(ctx, n.UserID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to load push subscriptions",
				"user_id", n.UserID, "error", err)
			continue
		}
		if len(subs) == 0 {
			continue
		}

		payload, err := json.Marshal(Payload{Title: d.opts.Title, Body: n.Content, URL: n.Link})
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to encode push payload", "error", err)
			continue
		}
		for _, sub := range subs {
			d.enqueue(ctx, pushJob{id: uuid.NewString(), userID: n.UserID, sub: sub, payload: payload})
		}
	}
}

// Notify records a notification outside any caller transaction and
// dispatches it immediately.
func (d *Dispatcher) Notify(ctx context.Context, userID uint, content, link string) (*models.Notification, error) {
	if _, err := d.store.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	n, err := d.Record(ctx, d.store, userID, content, link)
	if err != nil {
		return nil, err
	}
	d.Dispatch(ctx, n)
	return n, nil
}

// publish queues the notification for the recipient's Redis channel.
func (d *Dispatcher) publish(ctx context.Context, n *models.Notification) {
	if !d.publisher.Enabled() {
		return
	}
	body, err := json.Marshal(n)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode notification", "error", err)
		return
	}
	d.enqueue(ctx, pushJob{id: uuid.NewString(), userID: n.UserID, payload: body})
}

func (d *Dispatcher) broadcast(ctx context.Context, job pushJob) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := d.publisher.PublishUser(ctx, job.userID, string(job.payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			"job_id", job.id, "user_id", job.userID, "error", err)
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, job pushJob) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		observability.PushDeliveries.WithLabelValues(observability.PushDropped).Inc()
		return
	}
	select {
	case d.queue <- job:
		observability.PushQueueDepth.Set(float64(len(d.queue)))
	default:
		observability.PushDeliveries.WithLabelValues(observability.PushDropped).Inc()
		middleware.Logger.WarnContext(ctx, "push queue full, dropping job",
			"job_id", job.id, "user_id", job.userID, "subscription_id", job.subscriptionID())
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for job := range d.queue {
		observability.PushQueueDepth.Set(float64(len(d.queue)))
		if job.sub == nil {
			d.broadcast(ctx, job)
			continue
		}
		d.deliver(ctx, job)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job pushJob) {
	span, ctx := observability.NewSpan(ctx, "notifications.push")
	span.AddAttributes(
		attribute.String("push.job_id", job.id),
		attribute.Int("push.subscription_id", int(job.sub.ID)),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			observability.PushDeliveries.WithLabelValues(observability.PushFailed).Inc()
			middleware.Logger.Error("panic in push worker", "job_id", job.id, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	err := d.pusher.Push(ctx, job.sub, job.payload)
	switch {
	case err == nil:
		observability.PushDeliveries.WithLabelValues(observability.PushDelivered).Inc()
	case errors.Is(err, ErrSubscriptionGone):
		observability.PushDeliveries.WithLabelValues(observability.PushGone).Inc()
		if delErr := d.store.Subscriptions.Delete(ctx, job.sub.ID); delErr != nil {
			span.SetError(delErr)
			middleware.Logger.WarnContext(ctx, "failed to prune push subscription",
				"subscription_id", job.sub.ID, "error", delErr)
			return
		}
		observability.PushSubscriptionsPruned.Inc()
		middleware.Logger.InfoContext(ctx, "pruned gone push subscription",
			"subscription_id", job.sub.ID, "user_id", job.userID)
	default:
		span.SetError(err)
		observability.PushDeliveries.WithLabelValues(observability.PushFailed).Inc()
		middleware.Logger.WarnContext(ctx, "push delivery failed",
			"job_id", job.id, "subscription_id", job.sub.ID, "error", err)
	}
}
