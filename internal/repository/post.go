package repository

import (
	"context"

	"eventhub/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	DeleteByEvent(ctx context.Context, eventID uint) (int64, error)
	IDsByEvent(ctx context.Context, eventID uint) ([]uint, error)
	ListByEvent(ctx context.Context, eventID uint) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	ListFeed(ctx context.Context, eventIDs []uint, page Page) ([]*models.Post, error)
	AdjustLikes(ctx context.Context, id uint, delta int) error
	AdjustComments(ctx context.Context, id uint, delta int) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, notFound(err, "Post", id)
	}
	return &post, nil
}

// Update writes the editable fields only. Counters are owned by AdjustLikes
// and AdjustComments.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]any{
		"content":   post.Content,
		"image_url": post.ImageURL,
	}).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) DeleteByEvent(ctx context.Context, eventID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&models.Post{})
	return result.RowsAffected, result.Error
}

func (r *postRepository) IDsByEvent(ctx context.Context, eventID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("event_id = ?", eventID).Pluck("id", &ids).Error
	return ids, err
}

func (r *postRepository) ListByEvent(ctx context.Context, eventID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.newest(ctx).Where("event_id = ?", eventID).Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.newest(ctx).Where("user_id = ?", userID).Find(&posts).Error
	return posts, err
}

// ListFeed returns global posts plus posts of the given events, newest first.
// With no eventIDs it is the global feed.
func (r *postRepository) ListFeed(ctx context.Context, eventIDs []uint, page Page) ([]*models.Post, error) {
	q := r.newest(ctx)
	if len(eventIDs) > 0 {
		q = q.Where("event_id IS NULL OR event_id IN ?", eventIDs)
	} else {
		q = q.Where("event_id IS NULL")
	}
	var posts []*models.Post
	err := page.apply(q).Find(&posts).Error
	return posts, err
}

func (r *postRepository) AdjustLikes(ctx context.Context, id uint, delta int) error {
	return adjustCounter(ctx, r.db, &models.Post{}, "Post", id, "likes_count", delta)
}

func (r *postRepository) AdjustComments(ctx context.Context, id uint, delta int) error {
	return adjustCounter(ctx, r.db, &models.Post{}, "Post", id, "comments_count", delta)
}

func (r *postRepository) newest(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Order("created_at DESC").Order("id DESC")
}

// adjustCounter applies delta to column in a single UPDATE so concurrent
// adjustments never lose writes.
func adjustCounter(ctx context.Context, db *gorm.DB, model any, resource string, id uint, column string, delta int) error {
	if delta == 0 {
		return nil
	}
	result := db.WithContext(ctx).Model(model).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}
