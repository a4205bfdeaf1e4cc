package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// clientFanOut bounds concurrent per-client reads.
const clientFanOut = 4

// ClientSummary is one row of a coach overview.
type ClientSummary struct {
	UserID         uint       `json:"user_id"`
	Username       string     `json:"username"`
	CurrentStreak  int        `json:"current_streak"`
	RangeCheckIns  int        `json:"range_check_ins"`
	WeeklyRate     int        `json:"weekly_rate"`
	WeeklyActive   int        `json:"weekly_active_days"`
	LastActiveDate *time.Time `json:"last_active_date"`
}

// CoachOverview aggregates every client assigned to a coach.
type CoachOverview struct {
	CoachID       uint            `json:"coach_id"`
	Days          int             `json:"days"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Series        []DayPoint      `json:"series"`
	TotalCheckIns int             `json:"total_check_ins"`
	ActiveClients int             `json:"active_clients"`
	Clients       []ClientSummary `json:"clients"`
}

// GetCoachOverview sums the daily series of all clients and reports each one's
// streak and weekly rate. A client counts as active with any check-in in the
// last 7 days.
func (a *Aggregator) GetCoachOverview(ctx context.Context, coachID uint, days int) (*CoachOverview, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	now := a.today()
	window := utils.DateWindow(now, days)
	week := utils.DateWindow(now, weekDays)
	from, to := window[0], window[len(window)-1]

	clients, err := a.store.ListClients(ctx, coachID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	perClient := make([]map[string]int, len(clients))
	rows := make([]ClientSummary, len(clients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clientFanOut)
	for i := range clients {
		i := i
		g.Go(func() error {
			byDay, row, err := a.clientSummary(gctx, clients[i], window, week)
			if err != nil {
				return err
			}
			perClient[i], rows[i] = byDay, row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := map[string]int{}
	out := &CoachOverview{CoachID: coachID, Days: days, From: from, To: to, Clients: rows}
	for i, byDay := range perClient {
		for d, n := range byDay {
			total[d] += n
		}
		out.TotalCheckIns += rows[i].RangeCheckIns
		if rows[i].WeeklyActive > 0 {
			out.ActiveClients++
		}
	}
	out.Series = denseSeries(window, total)

	a.logger.Debug("coach overview computed",
		zap.Uint("coach_id", coachID), zap.Int("clients", len(clients)), zap.Int("days", days))
	return out, nil
}

func (a *Aggregator) clientSummary(ctx context.Context, u models.User, window, week []string) (map[string]int, ClientSummary, error) {
	routines, err := a.store.ListRoutines(ctx, u.ID, false)
	if err != nil {
		return nil, ClientSummary{}, fmt.Errorf("list routines for client %d: %w", u.ID, err)
	}
	from := window[0]
	checkIns, err := a.store.ListCheckIns(ctx, u.ID, earliest(from, week[0]), window[len(window)-1])
	if err != nil {
		return nil, ClientSummary{}, fmt.Errorf("list check-ins for client %d: %w", u.ID, err)
	}

	byDay := map[string]int{}
	inRange := map[string]int{}
	rangeCheckIns := 0
	for _, c := range checkIns {
		byDay[c.Date]++
		if c.Date >= from {
			inRange[c.Date]++
			rangeCheckIns++
		}
	}
	activeTasks := 0
	for _, r := range routines {
		activeTasks += r.ActiveTaskCount()
	}
	weekly := weeklyStats(week, byDay, activeTasks)

	row := ClientSummary{
		UserID:         u.ID,
		Username:       u.Username,
		CurrentStreak:  u.Analytics.CurrentStreak,
		RangeCheckIns:  rangeCheckIns,
		WeeklyRate:     weekly.CompletionRate,
		WeeklyActive:   weekly.ActiveDays,
		LastActiveDate: u.Analytics.LastActiveDate,
	}
	return inRange, row, nil
}
