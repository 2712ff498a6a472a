package repository

import (
	"context"
	"strings"

	"eventhub/internal/models"

	"gorm.io/gorm"
)

// EventFilter narrows ListEvents. Zero values match everything.
type EventFilter struct {
	Status    models.EventStatus
	Type      string
	Query     string
	ManagerID uint
}

// EventRepository defines the interface for event data operations
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	SetStatus(ctx context.Context, id uint, status models.EventStatus) error
	Delete(ctx context.Context, id uint) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, notFound(err, "Event", id)
	}
	return &event, nil
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	q := r.db.WithContext(ctx).Model(&models.Event{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ManagerID != 0 {
		q = q.Where("manager_id = ?", filter.ManagerID)
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var events []*models.Event
	err := q.Order("start_time ASC").Order("id ASC").Find(&events).Error
	return events, err
}

// Update persists the mutable fields of event. Status is never written here.
func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	result := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", event.ID).Updates(map[string]any{
		"type":        event.Type,
		"title":       event.Title,
		"start_time":  event.StartTime,
		"end_time":    event.EndTime,
		"location":    event.Location,
		"description": event.Description,
		"image_url":   event.ImageURL,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Event", event.ID)
	}
	return nil
}

func (r *eventRepository) SetStatus(ctx context.Context, id uint, status models.EventStatus) error {
	return r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).Update("status", status).Error
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Event{}, id).Error
}
