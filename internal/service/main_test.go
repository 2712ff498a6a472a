package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventhub/internal/database"
	"eventhub/internal/models"
	"eventhub/internal/repository"

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

// recordingNotifier writes real rows and remembers what was dispatched.
type recordingNotifier struct {
	mu         sync.Mutex
	dispatched []*models.Notification
}

func (n *recordingNotifier) Record(ctx context.Context, tx *repository.Store, userID uint, content, link string) (*models.Notification, error) {
	note := &models.Notification{UserID: userID, Content: content, Link: link}
	if err := tx.Notifications.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (n *recordingNotifier) Dispatch(_ context.Context, notes ...*models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatched = append(n.dispatched, notes...)
}

func (n *recordingNotifier) sentTo(userID uint) []*models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*models.Notification
	for _, note := range n.dispatched {
		if note.UserID == userID {
			out = append(out, note)
		}
	}
	return out
}

type fixture struct {
	store         *repository.Store
	notifier      *recordingNotifier
	events        *EventService
	registrations *RegistrationService
	posts         *PostService
	comments      *CommentService
	likes         *LikeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := setupStore(t)
	n := &recordingNotifier{}
	return &fixture{
		store:         store,
		notifier:      n,
		events:        NewEventService(store, n, false),
		registrations: NewRegistrationService(store, n),
		posts:         NewPostService(store, n),
		comments:      NewCommentService(store),
		likes:         NewLikeService(store, n),
	}
}

func (f *fixture) user(t *testing.T, name string, role models.Role) models.Principal {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Role: role}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return models.Principal{ID: u.ID, Role: u.Role}
}

func (f *fixture) event(t *testing.T, manager models.Principal, title string, start time.Time) *models.Event {
	t.Helper()
	e, err := f.events.CreateEvent(context.Background(), manager.ID, EventInput{
		Type:      "meetup",
		Title:     title,
		StartTime: start,
		Location:  "Main hall",
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.store.DB().Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// assertCounters checks every stored counter against a fresh count.
func (f *fixture) assertCounters(t *testing.T) {
	t.Helper()
	var posts []models.Post
	require.NoError(t, f.store.DB().Find(&posts).Error)
	for _, p := range posts {
		likes, err := f.store.Likes.CountPostLikes(context.Background(), p.ID)
		require.NoError(t, err)
		require.Equal(t, likes, int64(p.LikesCount), "post %d likes", p.ID)
		require.Equal(t, f.count(t, &models.Comment{}, "post_id = ?", p.ID), int64(p.CommentsCount), "post %d comments", p.ID)
	}
	var comments []models.Comment
	require.NoError(t, f.store.DB().Find(&comments).Error)
	for _, c := range comments {
		likes, err := f.store.Likes.CountCommentLikes(context.Background(), c.ID)
		require.NoError(t, err)
		require.Equal(t, likes, int64(c.LikesCount), "comment %d likes", c.ID)
		require.Equal(t, f.count(t, &models.Comment{}, "parent_id = ?", c.ID), int64(c.RepliesCount), "comment %d replies", c.ID)
	}
}

func uintPtr(v uint) *uint { return &v }

func boolPtr(v bool) *bool { return &v }

func assertCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, models.ErrorCode(err), err.Error())
}
