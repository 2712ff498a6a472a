package repository

import (
	"context"

	"eventhub/internal/models"

	"gorm.io/gorm"
)

// RegistrationRepository defines the interface for EventUser data operations
type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.EventUser) error
	GetByID(ctx context.Context, id uint) (*models.EventUser, error)
	FindByPair(ctx context.Context, userID, eventID uint) (*models.EventUser, error)
	ListByEvent(ctx context.Context, eventID uint, accepted *bool) ([]*models.EventUser, error)
	ListByUser(ctx context.Context, userID uint, accepted *bool) ([]*models.EventUser, error)
	AcceptedEventIDs(ctx context.Context, userID uint) ([]uint, error)
	SetAccepted(ctx context.Context, id uint, accepted bool) error
	SetCompleted(ctx context.Context, id uint, completed bool) error
	Delete(ctx context.Context, id uint) error
	DeleteByEvent(ctx context.Context, eventID uint) (int64, error)
}

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Create(ctx context.Context, reg *models.EventUser) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *registrationRepository) GetByID(ctx context.Context, id uint) (*models.EventUser, error) {
	var reg models.EventUser
	if err := r.db.WithContext(ctx).Preload("Event").First(&reg, id).Error; err != nil {
		return nil, notFound(err, "Registration", id)
	}
	return &reg, nil
}

func (r *registrationRepository) FindByPair(ctx context.Context, userID, eventID uint) (*models.EventUser, error) {
	var reg models.EventUser
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&reg).Error
	if err != nil {
		return nil, notFound(err, "Registration", eventID)
	}
	return &reg, nil
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID uint, accepted *bool) ([]*models.EventUser, error) {
	q := r.db.WithContext(ctx).Preload("User").Where("event_id = ?", eventID)
	if accepted != nil {
		q = q.Where("accepted = ?", *accepted)
	}
	var regs []*models.EventUser
	err := q.Order("created_at ASC").Order("id ASC").Find(&regs).Error
	return regs, err
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID uint, accepted *bool) ([]*models.EventUser, error) {
	q := r.db.WithContext(ctx).Preload("Event").Where("user_id = ?", userID)
	if accepted != nil {
		q = q.Where("accepted = ?", *accepted)
	}
	var regs []*models.EventUser
	err := q.Order("created_at ASC").Order("id ASC").Find(&regs).Error
	return regs, err
}

func (r *registrationRepository) AcceptedEventIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.EventUser{}).
		Where("user_id = ? AND accepted = ?", userID, true).
		Pluck("event_id", &ids).Error
	return ids, err
}

func (r *registrationRepository) SetAccepted(ctx context.Context, id uint, accepted bool) error {
	return r.db.WithContext(ctx).Model(&models.EventUser{}).Where("id = ?", id).Update("accepted", accepted).Error
}

func (r *registrationRepository) SetCompleted(ctx context.Context, id uint, completed bool) error {
	return r.db.WithContext(ctx).Model(&models.EventUser{}).Where("id = ?", id).Update("completed", completed).Error
}

func (r *registrationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.EventUser{}, id).Error
}

func (r *registrationRepository) DeleteByEvent(ctx context.Context, eventID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&models.EventUser{})
	return result.RowsAffected, result.Error
}
