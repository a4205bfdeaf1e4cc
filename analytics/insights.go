package analytics

import (
	"fmt"
)

// MaxInsights caps the number of insight strings in a summary.
const MaxInsights = 5

// rule emits at most one insight, or "" when it does not apply.
type rule func(s *Summary) string

// rules are evaluated in priority order.
var rules = []rule{
	streakInsight,
	consistencyInsight,
	bestDayInsight,
	worstDayInsight,
	topRoutineInsight,
	weakRoutineInsight,
	goalInsight,
	returnInsight,
}

// GenerateInsights applies the fixed rule list to s and returns at most
// MaxInsights messages, in rule order.
func GenerateInsights(s *Summary) []string {
	out := []string{}
	if s == nil {
		return out
	}
	for _, r := range rules {
		if len(out) == MaxInsights {
			break
		}
		if msg := r(s); msg != "" {
			out = append(out, msg)
		}
	}
	return out
}

func streakInsight(s *Summary) string {
	switch {
	case s.CurrentStreak >= 30:
		return fmt.Sprintf("Incredible! You have kept your streak alive for %d days.", s.CurrentStreak)
	case s.CurrentStreak >= 7:
		return fmt.Sprintf("You are on a %d-day streak. Keep it up!", s.CurrentStreak)
	case s.LongestStreak >= 7 && s.CurrentStreak < s.LongestStreak:
		return fmt.Sprintf("Your best streak is %d days. You can beat it.", s.LongestStreak)
	}
	return ""
}

func consistencyInsight(s *Summary) string {
	if s.Weekly.Possible == 0 {
		return ""
	}
	switch {
	case s.Weekly.CompletionRate >= 80:
		return fmt.Sprintf("Great consistency: %d%% of your tasks done this week.", s.Weekly.CompletionRate)
	case s.Weekly.CompletionRate >= 50:
		return fmt.Sprintf("You completed %d%% of your tasks this week. Solid progress.", s.Weekly.CompletionRate)
	case s.Weekly.ActiveDays > 0:
		return fmt.Sprintf("You were active %d of the last 7 days. Small steps add up.", s.Weekly.ActiveDays)
	}
	return ""
}

func bestDayInsight(s *Summary) string {
	if s.BestDay == nil || s.BestDay.CheckIns == 0 {
		return ""
	}
	return fmt.Sprintf("You are most consistent on %ss.", s.BestDay.Weekday)
}

func worstDayInsight(s *Summary) string {
	if s.BestDay == nil || s.WorstDay == nil || s.WorstDay.CheckIns >= s.BestDay.CheckIns {
		return ""
	}
	return fmt.Sprintf("%ss are your toughest day. Try planning something small.", s.WorstDay.Weekday)
}

func topRoutineInsight(s *Summary) string {
	for _, r := range s.Routines {
		if r.ActiveTasks > 0 && r.CompletionRate >= 90 {
			return fmt.Sprintf("%q is nearly perfect at %d%%.", r.Name, r.CompletionRate)
		}
	}
	return ""
}

func weakRoutineInsight(s *Summary) string {
	for _, r := range s.Routines {
		if r.ActiveTasks > 0 && r.CompletionRate < 30 {
			return fmt.Sprintf("%q could use some attention (%d%% complete).", r.Name, r.CompletionRate)
		}
	}
	return ""
}

func goalInsight(s *Summary) string {
	for _, g := range s.Goals {
		if !g.Completed && g.Progress >= 75 {
			return fmt.Sprintf("You are %d%% of the way to %q.", g.Progress, g.Title)
		}
	}
	for _, g := range s.Goals {
		if g.Completed {
			return fmt.Sprintf("Goal reached: %q. Time to set the next one?", g.Title)
		}
	}
	return ""
}

func returnInsight(s *Summary) string {
	if s.DaysSinceActive > 2 {
		return fmt.Sprintf("Welcome back! It has been %d days. Start with one task today.", s.DaysSinceActive)
	}
	return ""
}
