package server

import (
	"strings"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type eventRequest struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
}

func (r eventRequest) input() service.EventInput {
	return service.EventInput{
		Type:        r.Type,
		Title:       r.Title,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Location:    r.Location,
		Description: r.Description,
		ImageURL:    r.ImageURL,
	}
}

func parseStatus(c *fiber.Ctx) models.EventStatus {
	return models.EventStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
}

// ListEvents returns events filtered by status, type and a title query (public)
func (s *Server) ListEvents(c *fiber.Ctx) error {
	events, err := s.eventService.ListEvents(c.UserContext(), service.ListEventsInput{
		Status: parseStatus(c),
		Type:   strings.TrimSpace(c.Query("type")),
		Query:  strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// GetEvent returns one event (public)
func (s *Server) GetEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	event, err := s.eventService.GetEvent(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// ListHostedEvents returns the events a user manages (public)
func (s *Server) ListHostedEvents(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	events, err := s.eventService.ListHostedEvents(c.UserContext(), userID, parseStatus(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// ListPendingEvents returns the approval queue (admin)
func (s *Server) ListPendingEvents(c *fiber.Ctx) error {
	events, err := s.eventService.ListPendingEvents(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// CreateEvent creates a pending event managed by the caller (protected)
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	event, err := s.eventService.CreateEvent(c.UserContext(), p.ID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// UpdateEvent edits an event's details (manager or admin)
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	event, err := s.eventService.UpdateEvent(c.UserContext(), p, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// AcceptEvent approves a pending event and posts its announcement (admin)
func (s *Server) AcceptEvent(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	event, err := s.eventService.AcceptEvent(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// DeleteEvent removes an event with its registrations and content (manager or admin)
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.eventService.DeleteEvent(c.UserContext(), p, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Event deleted successfully"})
}
