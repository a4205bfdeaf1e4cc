package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/analytics"
	"github.com/Kramxie/neo-routine-sub000/metrics"
	"github.com/Kramxie/neo-routine-sub000/reminder"
	"github.com/Kramxie/neo-routine-sub000/store"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

const messageWindowDays = 7

// InsightsController serves dashboard analytics and coach overviews.
type InsightsController struct {
	Deps
}

func NewInsightsController(d Deps) *InsightsController {
	return &InsightsController{Deps: d}
}

// summary returns the cached summary for (user, days) or computes and caches it.
func (i *InsightsController) summary(ctx *gin.Context, userID uint, days int) (*analytics.Summary, error) {
	rctx := ctx.Request.Context()
	key := insightsKey(userID, days)

	var cached analytics.Summary
	if utils.CacheGetJSON(rctx, i.Cache, key, &cached) {
		metrics.RecordInsightsCache(true)
		return &cached, nil
	}
	metrics.RecordInsightsCache(false)

	s, err := i.Insights.GetUserInsights(rctx, userID, days)
	if err != nil {
		return nil, err
	}
	utils.CacheSetJSON(rctx, i.Cache, key, s, i.Config.InsightsCacheTTL())
	return s, nil
}

// GetInsights returns the user's summary for ?days (default and cap from config).
func (i *InsightsController) GetInsights(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}
	days, err := parseDays(ctx, i.Config)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, err.Error())
		return
	}

	s, err := i.summary(ctx, userID, days)
	if err != nil {
		i.fail(ctx, userID, err)
		return
	}
	utils.Success(ctx, s)
}

// GetMessage returns a greeting and encouragement based on today's progress.
func (i *InsightsController) GetMessage(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}
	s, err := i.summary(ctx, userID, messageWindowDays)
	if err != nil {
		i.fail(ctx, userID, err)
		return
	}

	now := i.now()
	message := i.Messages.ReminderMessage(now.Hour(), s.TodayPercent)
	if s.DaysSinceActive > 2 {
		message = i.Messages.GentleMessage(s.TodayPercent, reminder.Context{
			DaysSinceActive: s.DaysSinceActive,
			Streak:          s.CurrentStreak,
		})
	}
	utils.Success(ctx, gin.H{
		"message":        message,
		"streak_message": reminder.StreakMessage(s.CurrentStreak),
		"bucket":         reminder.BucketFor(s.TodayPercent),
		"time_of_day":    reminder.TimeOfDay(now.Hour()),
		"today_percent":  s.TodayPercent,
	})
}

// GetCoachOverview aggregates the caller's clients. Restricted to coaches.
func (i *InsightsController) GetCoachOverview(ctx *gin.Context) {
	coachID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}
	days, err := parseDays(ctx, i.Config)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, err.Error())
		return
	}
	o, err := i.Insights.GetCoachOverview(ctx.Request.Context(), coachID, days)
	if err != nil {
		i.fail(ctx, coachID, err)
		return
	}
	utils.Success(ctx, o)
}

func (i *InsightsController) fail(ctx *gin.Context, userID uint, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40450, "user not found")
	case errors.Is(err, analytics.ErrInvalidDays):
		utils.Error(ctx, http.StatusBadRequest, 40050, err.Error())
	default:
		i.logger().Error("insights failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to compute insights")
	}
}
