package models

import "time"

// Analytics holds the running counters maintained by check-in processing.
type Analytics struct {
	TotalCheckIns  int        `gorm:"default:0" json:"total_check_ins"`
	CurrentStreak  int        `gorm:"default:0" json:"current_streak"`
	LongestStreak  int        `gorm:"default:0" json:"longest_streak"`
	LastActiveDate *time.Time `json:"last_active_date"`
}

// RecordActivity counts one check-in made on day. A check-in on the same day as
// the last active date leaves the streak alone, one on the following day
// extends it, and anything later restarts it at 1.
func (a *Analytics) RecordActivity(day time.Time) {
	a.TotalCheckIns++

	today := startOfDay(day)
	switch {
	case a.LastActiveDate == nil:
		a.CurrentStreak = 1
	default:
		last := startOfDay(a.LastActiveDate.In(day.Location()))
		switch {
		case sameDay(last, today):
			if a.CurrentStreak == 0 {
				a.CurrentStreak = 1
			}
		case sameDay(last.AddDate(0, 0, 1), today):
			a.CurrentStreak++
		case last.After(today):
			// Back-dated check-in; the streak is anchored on the later day.
			return
		default:
			a.CurrentStreak = 1
		}
	}

	if a.CurrentStreak > a.LongestStreak {
		a.LongestStreak = a.CurrentStreak
	}
	a.LastActiveDate = &today
}

// RemoveActivity undoes the total for one deleted check-in. Streaks are not
// recomputed on uncheck.
func (a *Analytics) RemoveActivity() {
	if a.TotalCheckIns > 0 {
		a.TotalCheckIns--
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
