package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/Kramxie/neo-routine-sub000/utils"
)

const (
	earlyBirdBefore = 7
	nightOwlFrom    = 22
	comebackAfter   = 7 * 24 * time.Hour
	perfectWeekDays = 7
)

// reached returns the badge ids of every milestone <= n.
func reached(milestones []int, n int, id func(int) string) []string {
	var ids []string
	for _, m := range milestones {
		if m <= n {
			ids = append(ids, id(m))
		}
	}
	return ids
}

func (e *Engine) checkStreak(ctx context.Context, userID uint, _ *CompletionData) ([]AwardedBadge, error) {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	streak := u.Analytics.CurrentStreak
	ids := reached(StreakMilestones, streak, StreakBadgeID)
	return e.grant(ctx, userID, ids, map[string]interface{}{"streak": streak}), nil
}

func (e *Engine) checkVolume(ctx context.Context, userID uint, _ *CompletionData) ([]AwardedBadge, error) {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	total := u.Analytics.TotalCheckIns
	ids := reached(CheckInMilestones, total, CheckInBadgeID)
	return e.grant(ctx, userID, ids, map[string]interface{}{"total_check_ins": total}), nil
}

// checkAchievements uses the clock at the moment the check runs, not the
// logical time of the check-in being processed.
func (e *Engine) checkAchievements(ctx context.Context, userID uint, data *CompletionData) ([]AwardedBadge, error) {
	now := e.clock()
	hour := now.Hour()

	var out []AwardedBadge
	if hour < earlyBirdBefore {
		out = append(out, e.grant(ctx, userID, []string{EarlyBird}, map[string]interface{}{"hour": hour})...)
	}
	if hour >= nightOwlFrom {
		out = append(out, e.grant(ctx, userID, []string{NightOwl}, map[string]interface{}{"hour": hour})...)
	}
	if data != nil && data.TodayPercent >= 100 {
		out = append(out, e.grant(ctx, userID, []string{PerfectDay}, map[string]interface{}{"date": completedDate(data, now)})...)
	}
	return out, nil
}

// completedDate is the day the triggering check-in counted toward.
func completedDate(data *CompletionData, now time.Time) string {
	if data != nil && data.Date != "" {
		return data.Date
	}
	return utils.ISODate(now)
}

func (e *Engine) checkGoals(ctx context.Context, userID uint, _ *CompletionData) ([]AwardedBadge, error) {
	total, completed, err := e.store.CountGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count goals: %w", err)
	}
	var ids []string
	if total >= 1 {
		ids = append(ids, FirstGoal)
	}
	ids = append(ids, reached(GoalsCompletedMilestones, int(completed), GoalAchieverBadgeID)...)
	return e.grant(ctx, userID, ids, map[string]interface{}{"goals": total, "completed": completed}), nil
}

func (e *Engine) checkRoutines(ctx context.Context, userID uint, _ *CompletionData) ([]AwardedBadge, error) {
	n, err := e.store.CountRoutines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count routines: %w", err)
	}
	ids := reached(RoutineMilestones, int(n), RoutineBadgeID)
	return e.grant(ctx, userID, ids, map[string]interface{}{"routines": n}), nil
}

// checkPerfectWeek requires each of the last 7 calendar days, today included,
// to have at least as many check-ins as there are active tasks across the
// user's non-archived routines.
func (e *Engine) checkPerfectWeek(ctx context.Context, userID uint, _ *CompletionData) ([]AwardedBadge, error) {
	routines, err := e.store.ListRoutines(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	required := 0
	for _, r := range routines {
		required += r.ActiveTaskCount()
	}
	if required == 0 {
		return nil, nil
	}

	window := utils.DateWindow(e.clock(), perfectWeekDays)
	counts, err := e.store.CountCheckInsByDay(ctx, userID, window[0], window[len(window)-1])
	if err != nil {
		return nil, fmt.Errorf("count check-ins: %w", err)
	}
	for _, d := range window {
		if counts[d] < required {
			return nil, nil
		}
	}
	return e.grant(ctx, userID, []string{PerfectWeek}, map[string]interface{}{
		"from":     window[0],
		"to":       window[len(window)-1],
		"required": required,
	}), nil
}

func (e *Engine) checkComeback(ctx context.Context, userID uint, data *CompletionData) ([]AwardedBadge, error) {
	var last *time.Time
	if data != nil && data.PreviousActiveDate != nil {
		last = data.PreviousActiveDate
	} else {
		u, err := e.store.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		last = u.Analytics.LastActiveDate
	}
	if last == nil {
		return nil, nil
	}
	gap := e.clock().Sub(*last)
	if gap < comebackAfter {
		return nil, nil
	}
	return e.grant(ctx, userID, []string{Comeback}, map[string]interface{}{
		"days_away": int(gap / (24 * time.Hour)),
	}), nil
}
