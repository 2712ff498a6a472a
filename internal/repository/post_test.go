package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"eventhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_AdjustLikes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		mockBehavior  func()
		expectedError bool
		notFound      bool
	}{
		{
			name: "Success",
			mockBehavior: func() {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "likes_count"=likes_count + $1 WHERE id = $2`)).
					WithArgs(1, 7).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Missing post",
			mockBehavior: func() {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "likes_count"=likes_count + $1 WHERE id = $2`)).
					WithArgs(1, 7).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			expectedError: true,
			notFound:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()

			err := repo.AdjustLikes(ctx, 7, 1)
			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.notFound, models.IsNotFound(err))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_AdjustComments_ZeroDeltaIsNoop(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	assert.NoError(t, repo.AdjustComments(context.Background(), 3, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(42, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListFeed(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "author@example.com"}
	require.NoError(t, store.Users.Create(ctx, author))

	joined := uint(1)
	other := uint(2)
	base := time.Now().Add(-time.Hour)
	posts := []*models.Post{
		{UserID: author.ID, Content: "global", CreatedAt: base},
		{UserID: author.ID, EventID: &joined, Content: "joined", CreatedAt: base.Add(time.Minute)},
		{UserID: author.ID, EventID: &other, Content: "other", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, p := range posts {
		require.NoError(t, store.Posts.Create(ctx, p))
	}

	feed, err := store.Posts.ListFeed(ctx, []uint{joined}, Page{})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "joined", feed[0].Content)
	assert.Equal(t, "global", feed[1].Content)
	require.NotNil(t, feed[0].User)
	assert.Equal(t, "author", feed[0].User.Username)

	page, err := store.Posts.ListFeed(ctx, []uint{joined}, Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "global", page[0].Content)

	globalOnly, err := store.Posts.ListFeed(ctx, nil, Page{})
	require.NoError(t, err)
	require.Len(t, globalOnly, 1)
	assert.Equal(t, "global", globalOnly[0].Content)
}

func TestPostRepository_UpdateLeavesCounters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	post := &models.Post{UserID: 1, Content: "before"}
	require.NoError(t, store.Posts.Create(ctx, post))
	require.NoError(t, store.Posts.AdjustLikes(ctx, post.ID, 2))

	post.Content = "after"
	post.LikesCount = 0
	require.NoError(t, store.Posts.Update(ctx, post))

	got, err := store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)
	assert.Equal(t, 2, got.LikesCount)
}
