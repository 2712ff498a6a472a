package server

import (
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost publishes a post on an event or the global feed (protected)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}

	var req struct {
		EventID  *uint  `json:"event_id"`
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:   p.ID,
		EventID:  req.EventID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost returns a single post (public)
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost edits a post (author or admin)
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string  `json:"content"`
		ImageURL *string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), p, service.UpdatePostInput{
		PostID:   id,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost removes a post with its comments and likes (author or admin)
func (s *Server) DeletePost(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), p, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// ListEventPosts returns the posts of one event
func (s *Server) ListEventPosts(c *fiber.Ctx) error {
	eventID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	posts, err := s.postService.PostsByEvent(c.UserContext(), eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// ListUserPosts returns a user's posts merged with their accepted events' posts
func (s *Server) ListUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	posts, err := s.postService.PostsByUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GlobalFeed returns posts attached to no event (public)
func (s *Server) GlobalFeed(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.GlobalFeed(c.UserContext(), service.ListPostsInput{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// NewsFeed returns the global feed plus the caller's accepted events' posts
func (s *Server) NewsFeed(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.NewsFeed(c.UserContext(), p.ID, service.ListPostsInput{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
