package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/cache"
	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/repository"
)

const announcementExcerptLen = 150

// EventService owns the event approval lifecycle.
type EventService struct {
	store                *repository.Store
	notifier             Notifier
	notifyAdminsOnCreate bool
}

type EventInput struct {
	Type        string
	Title       string
	StartTime   time.Time
	EndTime     *time.Time
	Location    string
	Description string
	ImageURL    string
}

// NewEventService returns a new EventService. When notifyAdmins is set,
// every ADMIN user is notified of newly created events.
func NewEventService(store *repository.Store, notifier Notifier, notifyAdmins bool) *EventService {
	return &EventService{
		store:                store,
		notifier:             notifier,
		notifyAdminsOnCreate: notifyAdmins,
	}
}

func (in EventInput) validate() error {
	const maxTitleLen = 200
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	if strings.TrimSpace(in.Type) == "" {
		return models.NewValidationError("Type is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return models.NewValidationError("Location is required")
	}
	if in.StartTime.IsZero() {
		return models.NewValidationError("Start time is required")
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
		return models.NewValidationError("End time must not be before start time")
	}
	return nil
}

// CreateEvent creates a PENDING event managed by managerID.
func (s *EventService) CreateEvent(ctx context.Context, managerID uint, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	event := &models.Event{
		ManagerID:   managerID,
		Type:        strings.TrimSpace(in.Type),
		Title:       strings.TrimSpace(in.Title),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Location:    strings.TrimSpace(in.Location),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Status:      models.EventStatusPending,
	}

	out := newOutbox(s.notifier)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByID(ctx, managerID); err != nil {
			return err
		}
		if err := tx.Events.Create(ctx, event); err != nil {
			return err
		}
		if !s.notifyAdminsOnCreate {
			return nil
		}
		admins, err := tx.Users.ListByRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("New event %q is waiting for approval", event.Title)
		for _, admin := range admins {
			if err := out.add(ctx, tx, admin.ID, msg, eventLink(event.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.flush(ctx)
	return event, nil
}

// UpdateEvent edits the descriptive fields of an event. Status is untouched.
func (s *EventService) UpdateEvent(ctx context.Context, p models.Principal, eventID uint, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	event, err := s.store.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !p.Owns(event.ManagerID) {
		return nil, models.NewForbiddenError("only the event manager can edit this event")
	}

	event.Type = strings.TrimSpace(in.Type)
	event.Title = strings.TrimSpace(in.Title)
	event.StartTime = in.StartTime
	event.EndTime = in.EndTime
	event.Location = strings.TrimSpace(in.Location)
	event.Description = in.Description
	event.ImageURL = in.ImageURL

	if err := s.store.Events.Update(ctx, event); err != nil {
		return nil, err
	}
	cache.InvalidateEvent(ctx, eventID)
	return event, nil
}

// AcceptEvent approves an event, notifies its manager and publishes an
// announcement on the global feed. Accepting twice is allowed and each call
// announces again.
func (s *EventService) AcceptEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	var event *models.Event
	out := newOutbox(s.notifier)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		event, err = tx.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := tx.Events.SetStatus(ctx, eventID, models.EventStatusAccepted); err != nil {
			return err
		}
		event.Status = models.EventStatusAccepted

		announcement := &models.Post{
			UserID:   event.ManagerID,
			Content:  announcementContent(event),
			ImageURL: event.ImageURL,
		}
		if err := tx.Posts.Create(ctx, announcement); err != nil {
			return err
		}

		return out.add(ctx, tx, event.ManagerID,
			fmt.Sprintf("Your event %q has been approved", event.Title), eventLink(event.ID))
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateEvent(ctx, eventID)
	out.flush(ctx)
	middleware.Logger.InfoContext(ctx, "event accepted", "event_id", eventID)
	return event, nil
}

func announcementContent(event *models.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New event: %s", event.Title)
	fmt.Fprintf(&b, "\nWhen: %s", event.StartTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "\nWhere: %s", event.Location)
	if desc := strings.TrimSpace(event.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(truncate(desc, announcementExcerptLen))
	}
	return b.String()
}

// truncate shortens s to n characters and appends "..." when it was longer.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// DeleteEvent removes an event together with its registrations, posts,
// comments and likes in one transaction.
func (s *EventService) DeleteEvent(ctx context.Context, p models.Principal, eventID uint) error {
	var stats cascadeStats
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		event, err := tx.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if !p.Owns(event.ManagerID) {
			return models.NewForbiddenError("only the event manager can delete this event")
		}

		if stats.registrations, err = tx.Registrations.DeleteByEvent(ctx, eventID); err != nil {
			return err
		}
		postIDs, err := tx.Posts.IDsByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := purgePostContent(ctx, tx, postIDs, &stats); err != nil {
			return err
		}
		if stats.posts, err = tx.Posts.DeleteByEvent(ctx, eventID); err != nil {
			return err
		}
		return tx.Events.Delete(ctx, eventID)
	})
	if err != nil {
		return err
	}
	stats.record()
	cache.InvalidateEvent(ctx, eventID)
	middleware.Logger.InfoContext(ctx, "event deleted",
		"event_id", eventID, "posts", stats.posts, "comments", stats.comments, "registrations", stats.registrations)
	return nil
}

// GetEvent returns one event, served from Redis when cached.
func (s *EventService) GetEvent(ctx context.Context, eventID uint) (*models.Event, error) {
	var event models.Event
	err := cache.Aside(ctx, cache.EventKey(eventID), &event, cache.EventTTL, func() error {
		e, err := s.store.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		event = *e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

type ListEventsInput struct {
	Status models.EventStatus
	Type   string
	Query  string
}

func (s *EventService) ListEvents(ctx context.Context, in ListEventsInput) ([]*models.Event, error) {
	if in.Status != "" && in.Status != models.EventStatusPending && in.Status != models.EventStatusAccepted {
		return nil, models.NewValidationError("Invalid status")
	}
	return s.store.Events.List(ctx, repository.EventFilter{Status: in.Status, Type: in.Type, Query: in.Query})
}

// ListHostedEvents returns the events managed by managerID, optionally
// narrowed to one status.
func (s *EventService) ListHostedEvents(ctx context.Context, managerID uint, status models.EventStatus) ([]*models.Event, error) {
	return s.store.Events.List(ctx, repository.EventFilter{ManagerID: managerID, Status: status})
}

// ListPendingEvents is the admin approval queue.
func (s *EventService) ListPendingEvents(ctx context.Context) ([]*models.Event, error) {
	return s.store.Events.List(ctx, repository.EventFilter{Status: models.EventStatusPending})
}
