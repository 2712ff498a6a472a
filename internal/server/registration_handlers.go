package server

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterForEvent files a join request for the caller. Repeating it
// returns the existing registration with 200.
func (s *Server) RegisterForEvent(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	eventID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	reg, created, err := s.registrationService.Register(c.UserContext(), p.ID, eventID)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(reg)
}

// LeaveEvent withdraws the caller's registration before the event starts
func (s *Server) LeaveEvent(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	eventID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.registrationService.Leave(c.UserContext(), p.ID, eventID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left event successfully"})
}

// ListParticipants returns an event's registrations, optionally by accepted state
func (s *Server) ListParticipants(c *fiber.Ctx) error {
	eventID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	accepted, err := parseOptionalBool(c, "accepted")
	if err != nil {
		return nil
	}
	regs, err := s.registrationService.ListByEvent(c.UserContext(), eventID, accepted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(regs)
}

// RegistrationStatus reports whether the caller is registered for an event
func (s *Server) RegistrationStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	eventID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reg, err := s.registrationService.Status(c.UserContext(), p.ID, eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"registered":   reg != nil,
		"registration": reg,
	})
}

// ListUserRegistrations returns the events a user registered for
func (s *Server) ListUserRegistrations(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	accepted, err := parseOptionalBool(c, "accepted")
	if err != nil {
		return nil
	}
	regs, err := s.registrationService.ListByUser(c.UserContext(), userID, accepted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(regs)
}

// AcceptRegistration admits a pending participant (manager or admin)
func (s *Server) AcceptRegistration(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reg, err := s.registrationService.Accept(c.UserContext(), p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reg)
}

// DenyRegistration removes a registration (manager or admin)
func (s *Server) DenyRegistration(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.registrationService.Deny(c.UserContext(), p, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Registration removed"})
}

// MarkAttendance records whether a participant attended (manager or admin)
func (s *Server) MarkAttendance(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := c.BodyParser(&req); err != nil || req.Completed == nil {
		return badBody(c)
	}

	reg, err := s.registrationService.MarkAttendance(c.UserContext(), p, id, *req.Completed)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reg)
}
