package models

import "time"

// Notification is the durable in-app record of something a user should see.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// PushSubscription is a browser web-push endpoint registered by a user.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_push_subscriptions_pair" json:"user_id"`
	Endpoint  string    `gorm:"type:varchar(1024);not null;uniqueIndex:idx_push_subscriptions_pair" json:"endpoint"`
	P256dh    string    `gorm:"type:text;not null" json:"p256dh"`
	Auth      string    `gorm:"type:text;not null" json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}
