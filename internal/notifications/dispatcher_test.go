package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"eventhub/internal/database"
	"eventhub/internal/models"
	"eventhub/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return repository.NewStore(db)
}

// fakePusher answers per endpoint and records every payload it sees.
type fakePusher struct {
	mu       sync.Mutex
	answers  map[string]error
	block    chan struct{}
	payloads map[string][][]byte
}

func newFakePusher() *fakePusher {
	return &fakePusher{answers: map[string]error{}, payloads: map[string][][]byte{}}
}

func (p *fakePusher) Push(ctx context.Context, sub *models.PushSubscription, payload []byte) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[sub.Endpoint] = append(p.payloads[sub.Endpoint], payload)
	return p.answers[sub.Endpoint]
}

func (p *fakePusher) count(endpoint string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads[endpoint])
}

func createUser(t *testing.T, store *repository.Store, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func startDispatcher(t *testing.T, store *repository.Store, pusher Pusher, opts Options) *Dispatcher {
	t.Helper()
	return startPublishingDispatcher(t, store, pusher, nil, opts)
}

func startPublishingDispatcher(t *testing.T, store *repository.Store, pusher Pusher, publisher *Publisher, opts Options) *Dispatcher {
	t.Helper()
	d := NewDispatcher(store, pusher, publisher, opts)
	d.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})
	return d
}

func TestDispatcher_NotifyDeliversAndPrunesGoneEndpoints(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "alice")

	pusher := newFakePusher()
	pusher.answers["https://push.example/gone"] = ErrSubscriptionGone
	pusher.answers["https://push.example/flaky"] = &DeliveryError{StatusCode: 500}

	d := startDispatcher(t, store, pusher, Options{Workers: 2, QueueSize: 8, Title: "Eventhub"})
	for _, ep := range []string{"https://push.example/ok", "https://push.example/gone", "https://push.example/flaky"} {
		_, err := d.Subscribe(ctx, user.ID, ep, "p256dh", "auth")
		require.NoError(t, err)
	}

	n, err := d.Notify(ctx, user.ID, "Your event was accepted", "/events/1")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	require.Eventually(t, func() bool {
		subs, err := store.Subscriptions.ListByUser(ctx, user.ID)
		return err == nil && len(subs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	subs, err := store.Subscriptions.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	endpoints := []string{subs[0].Endpoint, subs[1].Endpoint}
	assert.ElementsMatch(t, []string{"https://push.example/ok", "https://push.example/flaky"}, endpoints)

	require.Eventually(t, func() bool {
		return pusher.count("https://push.example/ok") == 1 && pusher.count("https://push.example/flaky") == 1
	}, 2*time.Second, 10*time.Millisecond)

	var payload Payload
	pusher.mu.Lock()
	require.NoError(t, json.Unmarshal(pusher.payloads["https://push.example/ok"][0], &payload))
	pusher.mu.Unlock()
	assert.Equal(t, Payload{Title: "Eventhub", Body: "Your event was accepted", URL: "/events/1"}, payload)

	list, err := d.ListForUser(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Your event was accepted", list[0].Content)
}

func TestDispatcher_NotifyWithoutSubscriptionsStillRecords(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "bob")

	d := startDispatcher(t, store, newFakePusher(), Options{Workers: 1, QueueSize: 1})
	_, err := d.Notify(ctx, user.ID, "hello", "")
	require.NoError(t, err)

	count, err := d.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDispatcher_NotifyValidation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "carol")
	d := NewDispatcher(store, nil, nil, Options{})

	_, err := d.Notify(ctx, user.ID, "   ", "")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = d.Notify(ctx, 999, "hello", "")
	assert.True(t, models.IsNotFound(err))
}

func TestDispatcher_RecordRollsBackWithTransaction(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "dave")
	d := NewDispatcher(store, nil, nil, Options{})

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := d.Record(ctx, tx, user.ID, "never seen", ""); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := d.ListForUser(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDispatcher_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "erin")

	pusher := newFakePusher()
	pusher.block = make(chan struct{})
	d := startDispatcher(t, store, pusher, Options{Workers: 1, QueueSize: 1})
	_, err := d.Subscribe(ctx, user.ID, "https://push.example/slow", "p256dh", "auth")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			_, _ = d.Notify(ctx, user.ID, "burst", "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full push queue")
	}
	close(pusher.block)

	count, err := d.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	require.Eventually(t, func() bool {
		n := pusher.count("https://push.example/slow")
		return n >= 1 && n < 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcher_ShutdownTwice(t *testing.T) {
	d := NewDispatcher(setupStore(t), nil, nil, Options{})
	d.Start(context.Background())
	require.NoError(t, d.Shutdown(context.Background()))
	assert.ErrorIs(t, d.Shutdown(context.Background()), ErrDispatcherClosed)
}

func TestDispatcher_SubscribeIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "frank")
	d := NewDispatcher(store, nil, nil, Options{})

	first, err := d.Subscribe(ctx, user.ID, "https://push.example/a", "k", "a")
	require.NoError(t, err)
	second, err := d.Subscribe(ctx, user.ID, "https://push.example/a", "k2", "a2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = d.Subscribe(ctx, user.ID, "", "k", "a")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	require.NoError(t, d.Unsubscribe(ctx, user.ID, "https://push.example/a"))
	subs, err := store.Subscriptions.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestDispatcher_MarkRead(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "gina")
	other := createUser(t, store, "hank")
	d := NewDispatcher(store, nil, nil, Options{})

	n, err := d.Record(ctx, nil, owner.ID, "ping", "")
	require.NoError(t, err)

	assert.Equal(t, models.CodeForbidden, models.ErrorCode(d.MarkRead(ctx, other.ID, n.ID)))
	assert.True(t, models.IsNotFound(d.MarkRead(ctx, owner.ID, 12345)))
	require.NoError(t, d.MarkRead(ctx, owner.ID, n.ID))

	count, err := d.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDispatcher_SendRequiresAdmin(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	target := createUser(t, store, "jules")
	d := NewDispatcher(store, nil, nil, Options{QueueSize: 4})

	_, err := d.Send(ctx, models.Principal{ID: 7, Role: models.RoleHost}, target.ID, "hi", "")
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	n, err := d.Send(ctx, models.Principal{ID: 1, Role: models.RoleAdmin}, target.ID, "maintenance tonight", "/news-feed")
	require.NoError(t, err)
	assert.Equal(t, target.ID, n.UserID)
	assert.Equal(t, "/news-feed", n.Link)

	_, err = d.Send(ctx, models.Principal{ID: 1, Role: models.RoleAdmin}, 4040, "hi", "")
	assert.True(t, models.IsNotFound(err))
}

func TestDispatcher_PublishesToUserChannel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "ivy")

	sub := rdb.Subscribe(ctx, UserChannel(user.ID))
	defer func() { _ = sub.Close() }()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	d := startPublishingDispatcher(t, store, nil, NewPublisher(rdb), Options{QueueSize: 4})
	_, err = d.Notify(ctx, user.ID, "live", "/x")
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "live", got.Content)
		assert.Equal(t, user.ID, got.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

// silentListener accepts TCP connections and never answers, like a Redis
// server that has stopped responding.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestDispatcher_UnresponsiveRedisDoesNotBlockNotify(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         silentListener(t),
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "kate")
	d := startPublishingDispatcher(t, store, nil, NewPublisher(rdb), Options{QueueSize: 4})

	start := time.Now()
	n, err := d.Notify(ctx, user.ID, "still fast", "")
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Less(t, elapsed, 500*time.Millisecond)

	count, err := d.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NotZero(t, n.ID)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:1", UserChannel(1))
	assert.NoError(t, NewPublisher(nil).PublishUser(context.Background(), 1, "x"))
	assert.False(t, NewPublisher(nil).Enabled())
	var nilPublisher *Publisher
	assert.False(t, nilPublisher.Enabled())
}
