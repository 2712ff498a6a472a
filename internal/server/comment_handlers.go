package server

import (
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment creates a comment or reply on a post (protected)
func (s *Server) CreateComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	created, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   p.ID,
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListComments returns the top-level comments of a post
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// ListReplies returns the direct replies to a comment
func (s *Server) ListReplies(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	replies, err := s.commentService.ListReplies(c.UserContext(), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replies)
}

// UpdateComment edits a comment (author or admin)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), p, service.UpdateCommentInput{
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment removes a comment and its whole reply subtree (author or admin)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), p, commentID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}

// ToggleLikePost likes or unlikes a post for the caller
func (s *Server) ToggleLikePost(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.likeService.ToggleLikePost(c.UserContext(), p.ID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// PostLikeStatus reports whether the caller likes a post
func (s *Server) PostLikeStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.likeService.IsPostLiked(c.UserContext(), p.ID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ToggleLikeComment likes or unlikes a comment for the caller
func (s *Server) ToggleLikeComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.likeService.ToggleLikeComment(c.UserContext(), p.ID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// CommentLikeStatus reports whether the caller likes a comment
func (s *Server) CommentLikeStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.likeService.IsCommentLiked(c.UserContext(), p.ID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
