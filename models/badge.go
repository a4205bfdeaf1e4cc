package models

import (
	"time"

	"gorm.io/datatypes"
)

// Badge is an earned award. At most one row exists per (user, badge id).
type Badge struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"index:idx_badge_user_badge,unique;not null" json:"user_id"`
	BadgeID   string            `gorm:"index:idx_badge_user_badge,unique;size:64;not null" json:"badge_id"`
	EarnedAt  time.Time         `gorm:"not null" json:"earned_at"`
	Seen      bool              `gorm:"not null;default:false" json:"seen"`
	Context   datatypes.JSONMap `json:"context,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
