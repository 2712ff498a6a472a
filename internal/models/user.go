// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the platform-wide role of a user.
type Role string

const (
	// RoleUser is an ordinary attendee.
	RoleUser Role = "USER"
	// RoleHost may create and manage events.
	RoleHost Role = "HOST"
	// RoleAdmin may manage any event, registration or content.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// User is the local projection of an identity-provider account.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role           `gorm:"type:varchar(10);not null;default:'USER';index" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Principal identifies the caller of an operation. It is resolved by the
// transport layer and passed explicitly into every authorization check.
type Principal struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether the principal is ownerID or an admin.
func (p Principal) Owns(ownerID uint) bool {
	return p.ID == ownerID || p.IsAdmin()
}
