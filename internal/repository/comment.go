package repository

import (
	"context"

	"eventhub/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListByPosts(ctx context.Context, postIDs []uint) ([]*models.Comment, error)
	ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error)
	DeleteIDs(ctx context.Context, ids []uint) (int64, error)
	AdjustLikes(ctx context.Context, id uint, delta int) error
	AdjustReplies(ctx context.Context, id uint, delta int) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, notFound(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", comment.ID).
		Update("content", comment.Content).Error
}

// ListByPost loads every comment of a post, replies included.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListByPosts(ctx context.Context, postIDs []uint) ([]*models.Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Where("post_id IN ?", postIDs).Order("id ASC").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Where("parent_id = ?", parentID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) DeleteIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	return result.RowsAffected, result.Error
}

func (r *commentRepository) AdjustLikes(ctx context.Context, id uint, delta int) error {
	return adjustCounter(ctx, r.db, &models.Comment{}, "Comment", id, "likes_count", delta)
}

func (r *commentRepository) AdjustReplies(ctx context.Context, id uint, delta int) error {
	return adjustCounter(ctx, r.db, &models.Comment{}, "Comment", id, "replies_count", delta)
}
