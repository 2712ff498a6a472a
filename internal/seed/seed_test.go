package seed

import (
	"context"
	"testing"

	"eventhub/internal/database"
	"eventhub/internal/models"
	"eventhub/internal/notifications"
	"eventhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
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
	return db
}

func count(t *testing.T, db *gorm.DB, model any, query string, args ...any) int {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return int(n)
}

func TestSeeder_RunKeepsCountersConsistent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	dispatcher := notifications.NewDispatcher(store, nil, nil, notifications.Options{QueueSize: 1})

	opts := Options{
		NumUsers:        8,
		NumHosts:        2,
		NumEvents:       4,
		PostsPerEvent:   2,
		CommentsPerPost: 3,
		GlobalPosts:     2,
		RandSeed:        7,
	}
	sum, err := NewSeeder(db, dispatcher, opts).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 11, sum.Users)
	assert.Equal(t, 4, sum.Events)
	assert.Equal(t, 11, count(t, db, &models.User{}, ""))
	assert.Equal(t, 4, count(t, db, &models.Event{}, ""))
	assert.Equal(t, sum.Accepted, count(t, db, &models.Event{}, "status = ?", models.EventStatusAccepted))

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	assert.Len(t, posts, sum.Posts+sum.Accepted-sum.DeletedPosts, "seeded posts plus one announcement per accepted event")
	for _, p := range posts {
		assert.Equal(t, count(t, db, &models.Comment{}, "post_id = ?", p.ID), p.CommentsCount, "post %d comments", p.ID)
		assert.Equal(t, count(t, db, &models.LikePost{}, "post_id = ?", p.ID), p.LikesCount, "post %d likes", p.ID)
	}

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	for _, c := range comments {
		assert.Equal(t, count(t, db, &models.Comment{}, "parent_id = ?", c.ID), c.RepliesCount, "comment %d replies", c.ID)
		assert.Equal(t, count(t, db, &models.LikeComment{}, "comment_id = ?", c.ID), c.LikesCount, "comment %d likes", c.ID)
	}
}

func TestSeeder_ClearAll(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	dispatcher := notifications.NewDispatcher(store, nil, nil, notifications.Options{QueueSize: 1})

	s := NewSeeder(db, dispatcher, Options{NumUsers: 3, NumHosts: 1, NumEvents: 2, PostsPerEvent: 1, CommentsPerPost: 1, GlobalPosts: 1, RandSeed: 3})
	_, err := s.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))
	assert.Zero(t, count(t, db, &models.User{}, ""))
	assert.Zero(t, count(t, db, &models.Event{}, ""))
	assert.Zero(t, count(t, db, &models.Post{}, ""))
	assert.Zero(t, count(t, db, &models.Notification{}, ""))
}
