package database

import (
	"eventhub/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Event{},
		&models.EventUser{},
		&models.Post{},
		&models.Comment{},
		&models.LikePost{},
		&models.LikeComment{},
		&models.Notification{},
		&models.PushSubscription{},
	}
}

// Migrate creates or updates the schema for every persistent model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}
