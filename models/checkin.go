package models

import "time"

// CheckIn records that one task of one routine was completed on one calendar date.
type CheckIn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_checkin_unique,unique;index:idx_checkin_user_date;not null" json:"user_id"`
	RoutineID uint      `gorm:"index:idx_checkin_unique,unique;index;not null" json:"routine_id"`
	TaskID    uint      `gorm:"index:idx_checkin_unique,unique;not null" json:"task_id"`
	Date      string    `gorm:"index:idx_checkin_unique,unique;index:idx_checkin_user_date;size:10;not null" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}
