package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/badges"
	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/reminder"
	"github.com/Kramxie/neo-routine-sub000/store"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// CheckInController records and removes task completions.
type CheckInController struct {
	Deps
}

func NewCheckInController(d Deps) *CheckInController {
	return &CheckInController{Deps: d}
}

type checkInRequest struct {
	RoutineID uint   `json:"routine_id" form:"routine_id" binding:"required"`
	TaskID    uint   `json:"task_id" form:"task_id" binding:"required"`
	Date      string `json:"date" form:"date"`
}

// resolveDate validates an optional ISO date, which must not be in the future.
func (c *CheckInController) resolveDate(raw string) (string, bool) {
	today := utils.ISODate(c.now())
	if raw == "" {
		return today, true
	}
	t, err := utils.ParseISODate(raw, c.Config.Location())
	if err != nil {
		return "", false
	}
	date := utils.ISODate(t)
	return date, date <= today
}

// CreateCheckIn marks one task done for a date (today by default), updates the
// user's streak, runs badge checks and returns an encouraging message. Badge
// failures never fail the check-in.
func (c *CheckInController) CreateCheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	var req checkInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	date, ok := c.resolveDate(req.Date)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40021, "date must be YYYY-MM-DD and not in the future")
		return
	}

	rctx := ctx.Request.Context()
	routine, err := c.Store.GetRoutine(rctx, userID, req.RoutineID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "routine not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load routine")
		return
	}
	if routine.IsArchived || !routine.HasTask(req.TaskID) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "task is not part of an active routine")
		return
	}

	now := c.now()
	at := now
	if date != utils.ISODate(now) {
		at, _ = utils.ParseISODate(date, c.Config.Location())
	}

	res, err := c.Store.RecordCheckIn(rctx, &models.CheckIn{
		UserID:    userID,
		RoutineID: req.RoutineID,
		TaskID:    req.TaskID,
		Date:      date,
	}, at)
	if err != nil {
		c.logger().Error("record check-in failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to record check-in")
		return
	}

	percent := c.dayPercent(ctx, userID, date)
	newBadges := []badges.AwardedBadge{}
	if res.Created {
		c.Cache.InvalidatePrefix(rctx, insightsPrefix(userID))
		newBadges = c.Badges.RunBadgeChecks(rctx, userID, &badges.CompletionData{
			CheckIn:            true,
			Date:               date,
			TodayPercent:       percent,
			PreviousActiveDate: res.Previous.LastActiveDate,
		})
	}

	daysAway := 0
	if last := res.Previous.LastActiveDate; last != nil {
		daysAway = utils.DaysBetween(last.In(now.Location()), now)
	}

	utils.Success(ctx, gin.H{
		"checkin":      res.CheckIn,
		"created":      res.Created,
		"analytics":    res.Current,
		"todayPercent": percent,
		"newBadges":    newBadges,
		"message": c.Messages.GentleMessage(percent, reminder.Context{
			DaysSinceActive: daysAway,
			Streak:          res.Current.CurrentStreak,
		}),
	})
}

// DeleteCheckIn unchecks a task. The streak is left as is.
func (c *CheckInController) DeleteCheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	var req checkInRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "routine_id and task_id are required")
		return
	}
	date, ok := c.resolveDate(req.Date)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40021, "date must be YYYY-MM-DD and not in the future")
		return
	}

	rctx := ctx.Request.Context()
	deleted, err := c.Store.DeleteCheckIn(rctx, userID, req.RoutineID, req.TaskID, date)
	if err != nil {
		c.logger().Error("delete check-in failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to delete check-in")
		return
	}
	if !deleted {
		utils.Error(ctx, http.StatusNotFound, 40421, "check-in not found")
		return
	}
	c.Cache.InvalidatePrefix(rctx, insightsPrefix(userID))
	utils.Success(ctx, gin.H{"deleted": true, "date": date})
}

// dayPercent is the share of active tasks completed on date. Read errors give 0.
func (c *CheckInController) dayPercent(ctx *gin.Context, userID uint, date string) int {
	rctx := ctx.Request.Context()
	routines, err := c.Store.ListRoutines(rctx, userID, false)
	if err != nil {
		c.logger().Warn("list routines for completion failed", zap.Error(err))
		return 0
	}
	total := 0
	for _, r := range routines {
		total += r.ActiveTaskCount()
	}
	if total == 0 {
		return 0
	}
	counts, err := c.Store.CountCheckInsByDay(rctx, userID, date, date)
	if err != nil {
		c.logger().Warn("count check-ins for completion failed", zap.Error(err))
		return 0
	}
	p := counts[date] * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}
