// Package badges awards milestone badges after check-in activity.
package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/Kramxie/neo-routine-sub000/metrics"
	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/store"
)

// Store is the subset of persistence the engine reads and writes.
type Store interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	CountGoals(ctx context.Context, userID uint) (total, completed int64, err error)
	CountRoutines(ctx context.Context, userID uint) (int64, error)
	ListRoutines(ctx context.Context, userID uint, includeArchived bool) ([]models.Routine, error)
	CountCheckInsByDay(ctx context.Context, userID uint, from, to string) (map[string]int, error)
	InsertBadge(ctx context.Context, b *models.Badge) (bool, error)
}

// AwardResult is the outcome of one award attempt.
type AwardResult struct {
	BadgeID       string `json:"badge_id"`
	Awarded       bool   `json:"awarded"`
	AlreadyExists bool   `json:"already_exists,omitempty"`
	Error         string `json:"error,omitempty"`
}

// AwardedBadge describes a badge granted by the current run.
type AwardedBadge struct {
	BadgeID     string                 `json:"badge_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Icon        string                 `json:"icon"`
	Category    Category               `json:"category"`
	EarnedAt    time.Time              `json:"earned_at"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// CompletionData carries optional facts about the check-in that triggered a run.
type CompletionData struct {
	// CheckIn is set when the run follows a newly recorded check-in. Time-of-day,
	// perfect day and comeback badges are only evaluated then.
	CheckIn bool
	// Date is the ISO date the check-in was recorded for. Empty means today.
	Date string
	// TodayPercent is the share of today's active tasks completed, 0-100.
	TodayPercent int
	// PreviousActiveDate is the user's last active date before this check-in.
	// When nil the stored value is used.
	PreviousActiveDate *time.Time
}

// Engine evaluates badge rules against a user's stored counters.
type Engine struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the zone used for calendar days and time-of-day rules.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an Engine backed by s.
func NewEngine(s Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		logger: zap.NewNop(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().In(e.loc)
}

// AwardBadge grants badgeID to userID unless it is already held. It never
// returns an error: persistence failures are logged and reported in the result.
func (e *Engine) AwardBadge(ctx context.Context, userID uint, badgeID string, badgeContext map[string]interface{}) AwardResult {
	res := AwardResult{BadgeID: badgeID}
	if _, ok := Lookup(badgeID); !ok {
		res.Error = fmt.Sprintf("unknown badge %q", badgeID)
		e.logger.Warn("award unknown badge", zap.Uint("user_id", userID), zap.String("badge_id", badgeID))
		return res
	}

	b := &models.Badge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: e.clock(),
	}
	if len(badgeContext) > 0 {
		b.Context = datatypes.JSONMap(badgeContext)
	}

	created, err := e.store.InsertBadge(ctx, b)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		res.AlreadyExists = true
	case err != nil:
		res.Error = err.Error()
		e.logger.Error("award badge failed",
			zap.Uint("user_id", userID), zap.String("badge_id", badgeID), zap.Error(err))
	case !created:
		res.AlreadyExists = true
	default:
		res.Awarded = true
		metrics.RecordBadgeAwarded(badgeID)
		e.logger.Info("badge awarded", zap.Uint("user_id", userID), zap.String("badge_id", badgeID))
	}
	return res
}

// grant attempts every id in order and returns descriptors for the new ones.
func (e *Engine) grant(ctx context.Context, userID uint, ids []string, badgeContext map[string]interface{}) []AwardedBadge {
	var out []AwardedBadge
	for _, id := range ids {
		res := e.AwardBadge(ctx, userID, id, badgeContext)
		if !res.Awarded {
			continue
		}
		def, _ := Lookup(id)
		out = append(out, AwardedBadge{
			BadgeID:     id,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Category:    def.Category,
			EarnedAt:    e.clock(),
			Context:     badgeContext,
		})
	}
	return out
}

type checker struct {
	name        string
	checkInOnly bool
	run         func(ctx context.Context, userID uint, data *CompletionData) ([]AwardedBadge, error)
}

func (e *Engine) checkers(data *CompletionData) []checker {
	all := []checker{
		{"streak", false, e.checkStreak},
		{"volume", false, e.checkVolume},
		{"achievement", true, e.checkAchievements},
		{"goal", false, e.checkGoals},
		{"routine", false, e.checkRoutines},
		{"perfect_week", false, e.checkPerfectWeek},
		{"comeback", true, e.checkComeback},
	}
	if data != nil && data.CheckIn {
		return all
	}
	out := all[:0]
	for _, c := range all {
		if !c.checkInOnly {
			out = append(out, c)
		}
	}
	return out
}

// RunBadgeChecks runs the checkers concurrently and returns the badges newly
// awarded by this call. Checkers tied to the act of checking in are skipped
// unless data.CheckIn is set. A failing checker contributes nothing and is logged;
// the result is never an error because awarding is a side effect of the
// caller's primary write.
func (e *Engine) RunBadgeChecks(ctx context.Context, userID uint, data *CompletionData) []AwardedBadge {
	checks := e.checkers(data)
	results := make([][]AwardedBadge, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		i, c := i, c
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("checker panic: %v", r)
				}
				if err != nil {
					metrics.RecordCheckerFailure(c.name)
					e.logger.Error("badge checker failed",
						zap.String("checker", c.name), zap.Uint("user_id", userID), zap.Error(err))
					err = nil
				}
			}()
			awarded, err := c.run(ctx, userID, data)
			if err != nil {
				return err
			}
			results[i] = awarded
			return nil
		})
	}
	_ = g.Wait()

	out := []AwardedBadge{}
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
