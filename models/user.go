package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleCoach = "coach"
)

// User represents an account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:64;not null" json:"username"`
	Email        string         `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:16;default:'user'" json:"role"`
	CoachID      *uint          `gorm:"index" json:"coach_id,omitempty"`
	Analytics    Analytics      `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
