package badges

import (
	"fmt"
	"sort"
)

// Category groups badges for display.
type Category string

const (
	CategoryStreak      Category = "streak"
	CategoryVolume      Category = "volume"
	CategoryAchievement Category = "achievement"
	CategoryGoal        Category = "goal"
	CategoryRoutine     Category = "routine"
	CategorySpecial     Category = "special"
)

// Fixed badge ids that are not derived from a milestone list.
const (
	FirstGoal   = "first_goal"
	PerfectDay  = "perfect_day"
	EarlyBird   = "early_bird"
	NightOwl    = "night_owl"
	PerfectWeek = "perfect_week"
	Comeback    = "comeback"
)

// Milestone lists, ascending.
var (
	StreakMilestones         = []int{3, 7, 14, 30, 60, 100, 365}
	CheckInMilestones        = []int{1, 10, 50, 100, 250, 500, 1000}
	GoalsCompletedMilestones = []int{1, 5, 10}
	RoutineMilestones        = []int{1, 3, 5}
)

// Definition describes an awardable badge.
type Definition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Category    Category `json:"category"`
	Threshold   int      `json:"threshold,omitempty"`
}

func StreakBadgeID(days int) string { return fmt.Sprintf("streak_%d", days) }

func CheckInBadgeID(n int) string {
	if n == 1 {
		return "first_checkin"
	}
	return fmt.Sprintf("checkins_%d", n)
}

func GoalAchieverBadgeID(n int) string { return fmt.Sprintf("goal_achiever_%d", n) }

func RoutineBadgeID(n int) string {
	if n == 1 {
		return "first_routine"
	}
	return fmt.Sprintf("routines_%d", n)
}

var (
	catalog []Definition
	byID    map[string]Definition
)

func init() {
	add := func(d Definition) {
		catalog = append(catalog, d)
	}

	for _, n := range StreakMilestones {
		add(Definition{
			ID:          StreakBadgeID(n),
			Name:        fmt.Sprintf("%d-Day Streak", n),
			Description: fmt.Sprintf("Checked in %d days in a row.", n),
			Icon:        "flame",
			Category:    CategoryStreak,
			Threshold:   n,
		})
	}
	for _, n := range CheckInMilestones {
		d := Definition{
			ID:          CheckInBadgeID(n),
			Name:        fmt.Sprintf("%d Check-ins", n),
			Description: fmt.Sprintf("Completed %d tasks in total.", n),
			Icon:        "check-circle",
			Category:    CategoryVolume,
			Threshold:   n,
		}
		if n == 1 {
			d.Name = "First Step"
			d.Description = "Completed your very first task."
		}
		add(d)
	}
	add(Definition{ID: FirstGoal, Name: "Goal Setter", Description: "Created your first goal.", Icon: "target", Category: CategoryGoal, Threshold: 1})
	for _, n := range GoalsCompletedMilestones {
		add(Definition{
			ID:          GoalAchieverBadgeID(n),
			Name:        fmt.Sprintf("Goal Achiever %d", n),
			Description: fmt.Sprintf("Reached %d goals.", n),
			Icon:        "trophy",
			Category:    CategoryGoal,
			Threshold:   n,
		})
	}
	for _, n := range RoutineMilestones {
		d := Definition{
			ID:          RoutineBadgeID(n),
			Name:        fmt.Sprintf("Routine Builder %d", n),
			Description: fmt.Sprintf("Created %d routines.", n),
			Icon:        "list",
			Category:    CategoryRoutine,
			Threshold:   n,
		}
		if n == 1 {
			d.Name = "Architect"
			d.Description = "Created your first routine."
		}
		add(d)
	}
	add(Definition{ID: PerfectDay, Name: "Perfect Day", Description: "Completed every task in a day.", Icon: "star", Category: CategoryAchievement})
	add(Definition{ID: EarlyBird, Name: "Early Bird", Description: "Checked in before 7 AM.", Icon: "sunrise", Category: CategoryAchievement})
	add(Definition{ID: NightOwl, Name: "Night Owl", Description: "Checked in after 10 PM.", Icon: "moon", Category: CategoryAchievement})
	add(Definition{ID: PerfectWeek, Name: "Perfect Week", Description: "Completed every task for 7 days straight.", Icon: "calendar-check", Category: CategorySpecial})
	add(Definition{ID: Comeback, Name: "Comeback", Description: "Returned after a week away.", Icon: "refresh", Category: CategorySpecial})

	byID = make(map[string]Definition, len(catalog))
	for _, d := range catalog {
		byID[d.ID] = d
	}
}

// Catalog returns every badge definition grouped by category.
func Catalog() []Definition {
	out := append([]Definition(nil), catalog...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Lookup returns the definition for id.
func Lookup(id string) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}
