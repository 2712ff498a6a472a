// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"eventhub/internal/models"

	"gorm.io/gorm"
)

// Store bundles every repository over a single *gorm.DB handle. Inside
// Transaction the handle is the open transaction, so all repositories of the
// tx Store observe and write the same unit of work.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Events        EventRepository
	Registrations RegistrationRepository
	Posts         PostRepository
	Comments      CommentRepository
	Likes         LikeRepository
	Notifications NotificationRepository
	Subscriptions SubscriptionRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Events:        NewEventRepository(db),
		Registrations: NewRegistrationRepository(db),
		Posts:         NewPostRepository(db),
		Comments:      NewCommentRepository(db),
		Likes:         NewLikeRepository(db),
		Notifications: NewNotificationRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to one database transaction.
// Any error returned by fn rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFound(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}
