package models

import "time"

// Routine is a user-owned, ordered list of tasks checked off daily.
type Routine struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"index;not null" json:"user_id"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	IsArchived  bool          `gorm:"index;default:false" json:"is_archived"`
	Tasks       []RoutineTask `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"tasks"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// RoutineTask is one step of a routine.
type RoutineTask struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RoutineID uint   `gorm:"index;not null" json:"routine_id"`
	Label     string `gorm:"size:255;not null" json:"label"`
	Position  int    `gorm:"not null;default:0" json:"position"`
	IsActive  bool   `gorm:"not null;default:true" json:"is_active"`
}

// ActiveTaskCount returns the number of tasks that still count toward completion.
func (r Routine) ActiveTaskCount() int {
	n := 0
	for _, t := range r.Tasks {
		if t.IsActive {
			n++
		}
	}
	return n
}

// HasTask reports whether taskID belongs to the routine.
func (r Routine) HasTask(taskID uint) bool {
	for _, t := range r.Tasks {
		if t.ID == taskID {
			return true
		}
	}
	return false
}
