package models

import "time"

// Goal is a user-owned numeric target.
type Goal struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	CurrentValue float64    `gorm:"not null;default:0" json:"current_value"`
	TargetValue  float64    `gorm:"not null" json:"target_value"`
	Unit         string     `gorm:"size:32" json:"unit"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Progress returns the completion percentage rounded down and clamped to [0,100].
func (g Goal) Progress() int {
	if g.TargetValue <= 0 {
		if g.CurrentValue > 0 {
			return 100
		}
		return 0
	}
	p := int(g.CurrentValue / g.TargetValue * 100)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// IsCompleted reports whether the target has been reached.
func (g Goal) IsCompleted() bool {
	return g.TargetValue > 0 && g.CurrentValue >= g.TargetValue
}
