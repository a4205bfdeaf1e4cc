// Package analytics builds per-user and per-coach activity summaries.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// ErrInvalidDays is returned for a window shorter than one day.
var ErrInvalidDays = errors.New("days must be at least 1")

const weekDays = 7

// Store is the read-only persistence the aggregator needs.
type Store interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	ListClients(ctx context.Context, coachID uint) ([]models.User, error)
	ListRoutines(ctx context.Context, userID uint, includeArchived bool) ([]models.Routine, error)
	ListCheckIns(ctx context.Context, userID uint, from, to string) ([]models.CheckIn, error)
	ListGoals(ctx context.Context, userID uint) ([]models.Goal, error)
}

// DayPoint is one entry of a dense daily series. Percent is relative to the
// busiest day in the same series.
type DayPoint struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// WeeklyStats covers the last 7 days of the window, today included.
type WeeklyStats struct {
	CheckIns       int `json:"check_ins"`
	Possible       int `json:"possible"`
	CompletionRate int `json:"completion_rate"`
	ActiveDays     int `json:"active_days"`
}

// WeekdayStat totals check-ins falling on one weekday.
type WeekdayStat struct {
	Weekday  string `json:"weekday"`
	CheckIns int    `json:"check_ins"`
}

type RoutineStat struct {
	RoutineID      uint   `json:"routine_id"`
	Name           string `json:"name"`
	ActiveTasks    int    `json:"active_tasks"`
	CheckIns       int    `json:"check_ins"`
	CompletionRate int    `json:"completion_rate"`
}

type GoalStat struct {
	GoalID    uint    `json:"goal_id"`
	Title     string  `json:"title"`
	Current   float64 `json:"current"`
	Target    float64 `json:"target"`
	Progress  int     `json:"progress"`
	Completed bool    `json:"completed"`
}

// Summary is the derived insights view for one user.
type Summary struct {
	UserID          uint          `json:"user_id"`
	Days            int           `json:"days"`
	From            string        `json:"from"`
	To              string        `json:"to"`
	Series          []DayPoint    `json:"series"`
	RangeCheckIns   int           `json:"range_check_ins"`
	RangeActiveDays int           `json:"range_active_days"`
	ActiveTasks     int           `json:"active_tasks"`
	TodayCheckIns   int           `json:"today_check_ins"`
	TodayPercent    int           `json:"today_percent"`
	Weekly          WeeklyStats   `json:"weekly"`
	BestDay         *WeekdayStat  `json:"best_day,omitempty"`
	WorstDay        *WeekdayStat  `json:"worst_day,omitempty"`
	Routines        []RoutineStat `json:"routines"`
	Goals           []GoalStat    `json:"goals"`
	CurrentStreak   int           `json:"current_streak"`
	LongestStreak   int           `json:"longest_streak"`
	TotalCheckIns   int           `json:"total_check_ins"`
	// DaysSinceActive is -1 when the user has never checked in.
	DaysSinceActive int      `json:"days_since_active"`
	Insights        []string `json:"insights"`
}

// Aggregator reads routines, check-ins and goals and derives summaries.
type Aggregator struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
}

type Option func(*Aggregator)

func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLocation sets the zone that decides where calendar days begin.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func NewAggregator(s Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:  s,
		logger: zap.NewNop(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) today() time.Time {
	return a.now().In(a.loc)
}

// GetUserInsights summarizes the days-long window ending today.
func (a *Aggregator) GetUserInsights(ctx context.Context, userID uint, days int) (*Summary, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	now := a.today()
	window := utils.DateWindow(now, days)
	week := utils.DateWindow(now, weekDays)
	from, to := window[0], window[len(window)-1]

	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	routines, err := a.store.ListRoutines(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	checkIns, err := a.store.ListCheckIns(ctx, userID, earliest(from, week[0]), to)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	goals, err := a.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	byDay := make(map[string]int, days)
	byRoutine := map[uint]int{}
	for _, c := range checkIns {
		byDay[c.Date]++
		if c.Date >= from {
			byRoutine[c.RoutineID]++
		}
	}

	activeTasks := 0
	for _, r := range routines {
		activeTasks += r.ActiveTaskCount()
	}

	s := &Summary{
		UserID:          userID,
		Days:            days,
		From:            from,
		To:              to,
		Series:          denseSeries(window, byDay),
		ActiveTasks:     activeTasks,
		TodayCheckIns:   byDay[to],
		TodayPercent:    percent(byDay[to], activeTasks),
		Routines:        routineStats(routines, byRoutine, days),
		Goals:           goalStats(goals),
		CurrentStreak:   user.Analytics.CurrentStreak,
		LongestStreak:   user.Analytics.LongestStreak,
		TotalCheckIns:   user.Analytics.TotalCheckIns,
		DaysSinceActive: -1,
	}
	for _, p := range s.Series {
		s.RangeCheckIns += p.Count
		if p.Count > 0 {
			s.RangeActiveDays++
		}
	}
	s.Weekly = weeklyStats(week, byDay, activeTasks)
	s.BestDay, s.WorstDay = weekdayExtremes(s.Series, a.loc)
	if last := user.Analytics.LastActiveDate; last != nil {
		s.DaysSinceActive = utils.DaysBetween(last.In(a.loc), now)
	}
	s.Insights = GenerateInsights(s)

	a.logger.Debug("insights computed",
		zap.Uint("user_id", userID), zap.Int("days", days), zap.Int("check_ins", s.RangeCheckIns))
	return s, nil
}

// denseSeries fills every date in window, normalizing Percent against the
// busiest day rather than against the number of possible tasks.
func denseSeries(window []string, byDay map[string]int) []DayPoint {
	busiest := 0
	for _, d := range window {
		if byDay[d] > busiest {
			busiest = byDay[d]
		}
	}
	out := make([]DayPoint, len(window))
	for i, d := range window {
		out[i] = DayPoint{Date: d, Count: byDay[d], Percent: percent(byDay[d], busiest)}
	}
	return out
}

// weeklyStats covers the trailing 7-day week whatever range was requested.
func weeklyStats(week []string, byDay map[string]int, activeTasks int) WeeklyStats {
	w := WeeklyStats{Possible: activeTasks * len(week)}
	for _, d := range week {
		n := byDay[d]
		w.CheckIns += n
		if n > 0 {
			w.ActiveDays++
		}
	}
	w.CompletionRate = percent(w.CheckIns, w.Possible)
	return w
}

// earliest returns the lower of two ISO dates.
func earliest(a, b string) string {
	if b < a {
		return b
	}
	return a
}

// weekdayExtremes returns the weekdays with the most and fewest check-ins in
// the series. Both are nil when the series holds no check-ins. Ties go to the
// weekday seen first.
func weekdayExtremes(series []DayPoint, loc *time.Location) (best, worst *WeekdayStat) {
	totals := map[time.Weekday]int{}
	var order []time.Weekday
	sum := 0
	for _, p := range series {
		t, err := utils.ParseISODate(p.Date, loc)
		if err != nil {
			continue
		}
		wd := t.Weekday()
		if _, seen := totals[wd]; !seen {
			order = append(order, wd)
		}
		totals[wd] += p.Count
		sum += p.Count
	}
	if sum == 0 {
		return nil, nil
	}
	for _, wd := range order {
		n := totals[wd]
		if best == nil || n > best.CheckIns {
			best = &WeekdayStat{Weekday: wd.String(), CheckIns: n}
		}
		if worst == nil || n < worst.CheckIns {
			worst = &WeekdayStat{Weekday: wd.String(), CheckIns: n}
		}
	}
	return best, worst
}

func routineStats(routines []models.Routine, byRoutine map[uint]int, days int) []RoutineStat {
	out := make([]RoutineStat, 0, len(routines))
	for _, r := range routines {
		active := r.ActiveTaskCount()
		out = append(out, RoutineStat{
			RoutineID:      r.ID,
			Name:           r.Name,
			ActiveTasks:    active,
			CheckIns:       byRoutine[r.ID],
			CompletionRate: percent(byRoutine[r.ID], active*days),
		})
	}
	return out
}

func goalStats(goals []models.Goal) []GoalStat {
	out := make([]GoalStat, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalStat{
			GoalID:    g.ID,
			Title:     g.Title,
			Current:   g.CurrentValue,
			Target:    g.TargetValue,
			Progress:  g.Progress(),
			Completed: g.IsCompleted(),
		})
	}
	return out
}

// percent returns n/d as a whole percentage clamped to [0,100]; d <= 0 gives 0.
func percent(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	p := n * 100 / d
	if p > 100 {
		return 100
	}
	return p
}
