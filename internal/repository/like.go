package repository

import (
	"context"
	"errors"

	"eventhub/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for post and comment likes.
type LikeRepository interface {
	FindPostLike(ctx context.Context, userID, postID uint) (*models.LikePost, error)
	CreatePostLike(ctx context.Context, like *models.LikePost) error
	DeletePostLike(ctx context.Context, id uint) error
	DeletePostLikes(ctx context.Context, postIDs []uint) (int64, error)
	CountPostLikes(ctx context.Context, postID uint) (int64, error)

	FindCommentLike(ctx context.Context, userID, commentID uint) (*models.LikeComment, error)
	CreateCommentLike(ctx context.Context, like *models.LikeComment) error
	DeleteCommentLike(ctx context.Context, id uint) error
	DeleteCommentLikes(ctx context.Context, commentIDs []uint) (int64, error)
	CountCommentLikes(ctx context.Context, commentID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// FindPostLike returns nil, nil when the user has not liked the post.
func (r *likeRepository) FindPostLike(ctx context.Context, userID, postID uint) (*models.LikePost, error) {
	var like models.LikePost
	err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *likeRepository) CreatePostLike(ctx context.Context, like *models.LikePost) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *likeRepository) DeletePostLike(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LikePost{}, id).Error
}

func (r *likeRepository) DeletePostLikes(ctx context.Context, postIDs []uint) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("post_id IN ?", postIDs).Delete(&models.LikePost{})
	return result.RowsAffected, result.Error
}

func (r *likeRepository) CountPostLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LikePost{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// FindCommentLike returns nil, nil when the user has not liked the comment.
func (r *likeRepository) FindCommentLike(ctx context.Context, userID, commentID uint) (*models.LikeComment, error) {
	var like models.LikeComment
	err := r.db.WithContext(ctx).Where("user_id = ? AND comment_id = ?", userID, commentID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *likeRepository) CreateCommentLike(ctx context.Context, like *models.LikeComment) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *likeRepository) DeleteCommentLike(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LikeComment{}, id).Error
}

func (r *likeRepository) DeleteCommentLikes(ctx context.Context, commentIDs []uint) (int64, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Delete(&models.LikeComment{})
	return result.RowsAffected, result.Error
}

func (r *likeRepository) CountCommentLikes(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LikeComment{}).Where("comment_id = ?", commentID).Count(&count).Error
	return count, err
}
