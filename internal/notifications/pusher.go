package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"eventhub/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionGone is returned by a Pusher when the push service reports
// the endpoint no longer exists (HTTP 404 or 410).
var ErrSubscriptionGone = errors.New("push subscription gone")

// DeliveryError is any other push failure. It is logged and counted by the
// dispatcher and never surfaced to callers.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("push delivery failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("push delivery failed (status %d)", e.StatusCode)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Payload is the JSON document delivered to the browser service worker.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Pusher delivers one encrypted payload to one subscription.
type Pusher interface {
	Push(ctx context.Context, sub *models.PushSubscription, payload []byte) error
}

// VAPIDConfig holds the application server identity for web push.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTLSeconds int
}

// WebPusher sends notifications through the Web Push protocol.
type WebPusher struct {
	vapid  VAPIDConfig
	client webpush.HTTPClient
}

// NewWebPusher creates a WebPusher. A nil client uses http.DefaultClient.
func NewWebPusher(vapid VAPIDConfig, client webpush.HTTPClient) *WebPusher {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPusher{vapid: vapid, client: client}
}

func (p *WebPusher) Push(ctx context.Context, sub *models.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      p.client,
		Subscriber:      p.vapid.Subject,
		VAPIDPublicKey:  p.vapid.PublicKey,
		VAPIDPrivateKey: p.vapid.PrivateKey,
		TTL:             p.vapid.TTLSeconds,
	})
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return &DeliveryError{StatusCode: resp.StatusCode}
	}
}

// NoopPusher drops every payload. It is used when VAPID keys are not configured.
type NoopPusher struct{}

func (NoopPusher) Push(context.Context, *models.PushSubscription, []byte) error {
	return nil
}
