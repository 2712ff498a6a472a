package notifications

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventhub/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browserSubscription(t *testing.T, endpoint string) *models.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	return &models.PushSubscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestWebPusher_MapsPushServiceStatus(t *testing.T) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"created", http.StatusCreated, func(t *testing.T, err error) { assert.NoError(t, err) }},
		{"gone", http.StatusGone, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrSubscriptionGone) }},
		{"not found", http.StatusNotFound, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrSubscriptionGone) }},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var de *DeliveryError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, http.StatusInternalServerError, de.StatusCode)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			pusher := NewWebPusher(VAPIDConfig{
				PublicKey:  pub,
				PrivateKey: priv,
				Subject:    "mailto:ops@example.com",
				TTLSeconds: 30,
			}, srv.Client())

			err := pusher.Push(context.Background(), browserSubscription(t, srv.URL), []byte(`{"title":"t","body":"b"}`))
			tt.check(t, err)
			assert.Contains(t, gotAuth, "vapid")
		})
	}
}

func TestWebPusher_TransportErrorIsDeliveryError(t *testing.T) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	pusher := NewWebPusher(VAPIDConfig{PublicKey: pub, PrivateKey: priv, Subject: "mailto:ops@example.com"}, nil)
	err = pusher.Push(context.Background(), browserSubscription(t, endpoint), []byte("{}"))

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Zero(t, de.StatusCode)
}

func TestNoopPusher(t *testing.T) {
	assert.NoError(t, NoopPusher{}.Push(context.Background(), &models.PushSubscription{}, nil))
}
