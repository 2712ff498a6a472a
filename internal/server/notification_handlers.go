package server

import (
	"github.com/gofiber/fiber/v2"
)

type subscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// ListNotifications returns the caller's notifications, newest first
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageSize)
	list, err := s.dispatcher.ListForUser(c.UserContext(), p.ID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// UnreadCount returns how many of the caller's notifications are unread
func (s *Server) UnreadCount(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	count, err := s.dispatcher.UnreadCount(c.UserContext(), p.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.dispatcher.MarkRead(c.UserContext(), p.ID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	updated, err := s.dispatcher.MarkAllRead(c.UserContext(), p.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// SubscribePush registers a browser push endpoint for the caller
func (s *Server) SubscribePush(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sub, err := s.dispatcher.Subscribe(c.UserContext(), p.ID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// UnsubscribePush removes a browser push endpoint of the caller
func (s *Server) UnsubscribePush(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := s.dispatcher.Unsubscribe(c.UserContext(), p.ID, req.Endpoint); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendNotification delivers an ad-hoc notification to one user (admin)
func (s *Server) SendNotification(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	var req struct {
		UserID  uint   `json:"user_id"`
		Content string `json:"content"`
		Link    string `json:"link"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return badBody(c)
	}
	n, err := s.dispatcher.Send(c.UserContext(), p, req.UserID, req.Content, req.Link)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}
