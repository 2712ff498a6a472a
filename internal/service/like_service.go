package service

import (
	"context"
	"fmt"

	"eventhub/internal/models"
	"eventhub/internal/repository"
)

// LikeService toggles likes on posts and comments.
type LikeService struct {
	store    *repository.Store
	notifier Notifier
}

func NewLikeService(store *repository.Store, notifier Notifier) *LikeService {
	return &LikeService{store: store, notifier: notifier}
}

// ToggleLikePost likes the post, or unlikes it when the user already did.
func (s *LikeService) ToggleLikePost(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	out := newOutbox(s.notifier)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		post, err := tx.Posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		existing, err := tx.Likes.FindPostLike(ctx, userID, postID)
		if err != nil {
			return err
		}

		if existing != nil {
			if err := tx.Likes.DeletePostLike(ctx, existing.ID); err != nil {
				return err
			}
			if err := tx.Posts.AdjustLikes(ctx, postID, -1); err != nil {
				return err
			}
			result.LikesCount, err = currentPostLikes(ctx, tx, postID)
			return err
		}

		liker, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Likes.CreatePostLike(ctx, &models.LikePost{UserID: userID, PostID: postID}); err != nil {
			return err
		}
		if err := tx.Posts.AdjustLikes(ctx, postID, 1); err != nil {
			return err
		}
		result.Liked = true
		if result.LikesCount, err = currentPostLikes(ctx, tx, postID); err != nil {
			return err
		}

		if post.UserID == userID {
			return nil
		}
		return out.add(ctx, tx, post.UserID, fmt.Sprintf("%s liked your post", liker.Username), postLink(post))
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return s.postLikeState(ctx, userID, postID)
		}
		return nil, err
	}
	out.flush(ctx)
	return result, nil
}

// ToggleLikeComment likes the comment, or unlikes it when the user already did.
func (s *LikeService) ToggleLikeComment(ctx context.Context, userID, commentID uint) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	out := newOutbox(s.notifier)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		comment, err := tx.Comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		existing, err := tx.Likes.FindCommentLike(ctx, userID, commentID)
		if err != nil {
			return err
		}

		if existing != nil {
			if err := tx.Likes.DeleteCommentLike(ctx, existing.ID); err != nil {
				return err
			}
			if err := tx.Comments.AdjustLikes(ctx, commentID, -1); err != nil {
				return err
			}
			result.LikesCount, err = currentCommentLikes(ctx, tx, commentID)
			return err
		}

		liker, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Likes.CreateCommentLike(ctx, &models.LikeComment{UserID: userID, CommentID: commentID}); err != nil {
			return err
		}
		if err := tx.Comments.AdjustLikes(ctx, commentID, 1); err != nil {
			return err
		}
		result.Liked = true
		if result.LikesCount, err = currentCommentLikes(ctx, tx, commentID); err != nil {
			return err
		}

		if comment.UserID == userID {
			return nil
		}
		post, err := tx.Posts.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		return out.add(ctx, tx, comment.UserID, fmt.Sprintf("%s liked your comment", liker.Username), postLink(post))
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return s.commentLikeState(ctx, userID, commentID)
		}
		return nil, err
	}
	out.flush(ctx)
	return result, nil
}

// IsPostLiked reports the caller's like state and the current count.
func (s *LikeService) IsPostLiked(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	if _, err := s.store.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.postLikeState(ctx, userID, postID)
}

// IsCommentLiked reports the caller's like state and the current count.
func (s *LikeService) IsCommentLiked(ctx context.Context, userID, commentID uint) (*models.LikeResult, error) {
	if _, err := s.store.Comments.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	return s.commentLikeState(ctx, userID, commentID)
}

func (s *LikeService) postLikeState(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	like, err := s.store.Likes.FindPostLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: like != nil, LikesCount: post.LikesCount}, nil
}

func (s *LikeService) commentLikeState(ctx context.Context, userID, commentID uint) (*models.LikeResult, error) {
	comment, err := s.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	like, err := s.store.Likes.FindCommentLike(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: like != nil, LikesCount: comment.LikesCount}, nil
}

func currentPostLikes(ctx context.Context, tx *repository.Store, postID uint) (int, error) {
	post, err := tx.Posts.GetByID(ctx, postID)
	if err != nil {
		return 0, err
	}
	return post.LikesCount, nil
}

func currentCommentLikes(ctx context.Context, tx *repository.Store, commentID uint) (int, error) {
	comment, err := tx.Comments.GetByID(ctx, commentID)
	if err != nil {
		return 0, err
	}
	return comment.LikesCount, nil
}
