package models

import "time"

// EventStatus is the approval state of an event.
type EventStatus string

const (
	// EventStatusPending is the state of a freshly created event.
	EventStatusPending EventStatus = "PENDING"
	// EventStatusAccepted is set by an admin and never reverts.
	EventStatusAccepted EventStatus = "ACCEPTED"
)

// Event is a gathering hosted by its manager.
type Event struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ManagerID   uint        `gorm:"not null;index" json:"manager_id"`
	Manager     *User       `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Type        string      `gorm:"size:64;not null;index" json:"type"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	StartTime   time.Time   `gorm:"not null" json:"start_time"`
	EndTime     *time.Time  `json:"end_time,omitempty"`
	Location    string      `gorm:"not null" json:"location"`
	Description string      `gorm:"type:text" json:"description"`
	ImageURL    string      `json:"image_url"`
	Status      EventStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EventUser is a registration of a user to an event. Accepted=false is a
// pending join request; Completed marks post-event attendance.
type EventUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_event_users_pair" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_event_users_pair;index" json:"event_id"`
	Event     *Event    `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Accepted  bool      `gorm:"not null;default:false" json:"accepted"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (EventUser) TableName() string {
	return "event_users"
}
