package service

import (
	"context"

	"eventhub/internal/models"
	"eventhub/internal/repository"
)

type CommentService struct {
	store *repository.Store
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	CommentID uint
	Content   string
}

func NewCommentService(store *repository.Store) *CommentService {
	return &CommentService{store: store}
}

// CreateComment adds a comment to a post. A ParentID that does not resolve
// to a comment of the same post makes the comment top-level.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const maxCommentLen = 10000

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.UserID,
		Content: in.Content,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Posts.GetByID(ctx, in.PostID); err != nil {
			return err
		}
		if in.ParentID != nil {
			parent, err := tx.Comments.GetByID(ctx, *in.ParentID)
			switch {
			case err == nil && parent.PostID == in.PostID:
				comment.ParentID = &parent.ID
			case err != nil && !models.IsNotFound(err):
				return err
			}
		}

		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		if err := tx.Posts.AdjustComments(ctx, in.PostID, 1); err != nil {
			return err
		}
		if comment.ParentID != nil {
			return tx.Comments.AdjustReplies(ctx, *comment.ParentID, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, p models.Principal, in UpdateCommentInput) (*models.Comment, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	comment, err := s.store.Comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if !p.Owns(comment.UserID) {
		return nil, models.NewForbiddenError("not allowed to update this comment")
	}
	comment.Content = in.Content
	if err := s.store.Comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment, its replies at every depth and all of
// their likes, keeping the post and parent counters in step.
func (s *CommentService) DeleteComment(ctx context.Context, p models.Principal, commentID uint) error {
	var stats cascadeStats
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		comment, err := tx.Comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if !p.Owns(comment.UserID) {
			return models.NewForbiddenError("not allowed to delete this comment")
		}

		all, err := tx.Comments.ListByPost(ctx, comment.PostID)
		if err != nil {
			return err
		}
		ids := postOrder(all, []uint{comment.ID})
		if err := deleteComments(ctx, tx, ids, &stats); err != nil {
			return err
		}

		if comment.ParentID != nil {
			if err := tx.Comments.AdjustReplies(ctx, *comment.ParentID, -1); err != nil && !models.IsNotFound(err) {
				return err
			}
		}
		return tx.Posts.AdjustComments(ctx, comment.PostID, -len(ids))
	})
	if err != nil {
		return err
	}
	stats.record()
	return nil
}

// ListComments returns the top-level comments of a post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.store.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.Comments.ListTopLevel(ctx, postID)
}

// ListReplies returns the direct replies to a comment, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, commentID uint) ([]*models.Comment, error) {
	if _, err := s.store.Comments.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	return s.store.Comments.ListReplies(ctx, commentID)
}
