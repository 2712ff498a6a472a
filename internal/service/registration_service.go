package service

import (
	"context"
	"fmt"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/repository"
)

// RegistrationService manages who attends which event.
type RegistrationService struct {
	store    *repository.Store
	notifier Notifier
	now      func() time.Time
}

// NewRegistrationService returns a new RegistrationService.
func NewRegistrationService(store *repository.Store, notifier Notifier) *RegistrationService {
	return &RegistrationService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates a pending registration of userID for eventID and tells
// the manager. An existing registration is returned unchanged with
// created=false.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID uint) (reg *models.EventUser, created bool, err error) {
	out := newOutbox(s.notifier)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		event, err := tx.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}

		existing, err := tx.Registrations.FindByPair(ctx, userID, eventID)
		if err == nil {
			reg = existing
			return nil
		}
		if !models.IsNotFound(err) {
			return err
		}

		reg = &models.EventUser{UserID: userID, EventID: eventID}
		if err := tx.Registrations.Create(ctx, reg); err != nil {
			return err
		}
		created = true
		return out.add(ctx, tx, event.ManagerID,
			fmt.Sprintf("User %s registered for your event %q", user.Username, event.Title), eventLink(eventID))
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			reg, err = s.store.Registrations.FindByPair(ctx, userID, eventID)
			return reg, false, err
		}
		return nil, false, err
	}
	out.flush(ctx)
	return reg, created, nil
}

// loadManaged fetches a registration with its event and checks that p may
// decide on it.
func loadManaged(ctx context.Context, tx *repository.Store, p models.Principal, registrationID uint) (*models.EventUser, error) {
	reg, err := tx.Registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Event == nil {
		if reg.Event, err = tx.Events.GetByID(ctx, reg.EventID); err != nil {
			return nil, err
		}
	}
	if !p.Owns(reg.Event.ManagerID) {
		return nil, models.NewForbiddenError("only the event manager can manage registrations")
	}
	return reg, nil
}

// Accept approves a pending registration and tells the registrant.
func (s *RegistrationService) Accept(ctx context.Context, p models.Principal, registrationID uint) (*models.EventUser, error) {
	var reg *models.EventUser
	out := newOutbox(s.notifier)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if reg, err = loadManaged(ctx, tx, p, registrationID); err != nil {
			return err
		}
		if reg.Accepted {
			return nil
		}
		if err := tx.Registrations.SetAccepted(ctx, reg.ID, true); err != nil {
			return err
		}
		reg.Accepted = true
		return out.add(ctx, tx, reg.UserID,
			fmt.Sprintf("Your registration for %q was accepted", reg.Event.Title), eventLink(reg.EventID))
	})
	if err != nil {
		return nil, err
	}
	out.flush(ctx)
	return reg, nil
}

// Deny deletes a registration and tells the registrant.
func (s *RegistrationService) Deny(ctx context.Context, p models.Principal, registrationID uint) error {
	out := newOutbox(s.notifier)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		reg, err := loadManaged(ctx, tx, p, registrationID)
		if err != nil {
			return err
		}
		title := reg.Event.Title
		if err := tx.Registrations.Delete(ctx, reg.ID); err != nil {
			return err
		}
		return out.add(ctx, tx, reg.UserID,
			fmt.Sprintf("Your registration for %q was declined", title), eventLink(reg.EventID))
	})
	if err != nil {
		return err
	}
	out.flush(ctx)
	return nil
}

// Leave withdraws userID from eventID. Leaving once the event has started is
// refused; leaving an event one is not registered for is a no-op.
func (s *RegistrationService) Leave(ctx context.Context, userID, eventID uint) error {
	return s.leaveAt(ctx, userID, eventID, s.now())
}

func (s *RegistrationService) leaveAt(ctx context.Context, userID, eventID uint, now time.Time) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		event, err := tx.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.StartTime.After(now) {
			return models.NewInvalidStateError("leaving an event that has already started is not permitted")
		}
		reg, err := tx.Registrations.FindByPair(ctx, userID, eventID)
		if models.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Registrations.Delete(ctx, reg.ID)
	})
}

// MarkAttendance records whether the registrant attended.
func (s *RegistrationService) MarkAttendance(ctx context.Context, p models.Principal, registrationID uint, completed bool) (*models.EventUser, error) {
	var reg *models.EventUser
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if reg, err = loadManaged(ctx, tx, p, registrationID); err != nil {
			return err
		}
		if err := tx.Registrations.SetCompleted(ctx, reg.ID, completed); err != nil {
			return err
		}
		reg.Completed = completed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// ListByEvent returns the registrations of an event. A nil accepted returns
// both pending and accepted rows.
func (s *RegistrationService) ListByEvent(ctx context.Context, eventID uint, accepted *bool) ([]*models.EventUser, error) {
	if _, err := s.store.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.Registrations.ListByEvent(ctx, eventID, accepted)
}

func (s *RegistrationService) ListByUser(ctx context.Context, userID uint, accepted *bool) ([]*models.EventUser, error) {
	return s.store.Registrations.ListByUser(ctx, userID, accepted)
}

// Status returns the user's registration for an event, or nil when there is none.
func (s *RegistrationService) Status(ctx context.Context, userID, eventID uint) (*models.EventUser, error) {
	reg, err := s.store.Registrations.FindByPair(ctx, userID, eventID)
	if models.IsNotFound(err) {
		return nil, nil
	}
	return reg, err
}

func (s *RegistrationService) AcceptedEventIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.store.Registrations.AcceptedEventIDs(ctx, userID)
}
