package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/store"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// GoalController manages numeric goals.
type GoalController struct {
	Deps
}

func NewGoalController(d Deps) *GoalController {
	return &GoalController{Deps: d}
}

func goalResponse(g models.Goal) gin.H {
	return gin.H{
		"id":            g.ID,
		"title":         g.Title,
		"current_value": g.CurrentValue,
		"target_value":  g.TargetValue,
		"unit":          g.Unit,
		"deadline":      g.Deadline,
		"progress":      g.Progress(),
		"completed":     g.IsCompleted(),
	}
}

func (g *GoalController) ListGoals(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	goals, err := g.Store.ListGoals(ctx.Request.Context(), userID)
	if err != nil {
		g.logger().Error("list goals failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list goals")
		return
	}
	items := make([]gin.H, 0, len(goals))
	for _, goal := range goals {
		items = append(items, goalResponse(goal))
	}
	utils.Success(ctx, gin.H{"items": items})
}

func (g *GoalController) CreateGoal(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	var req struct {
		Title        string  `json:"title" binding:"required"`
		TargetValue  float64 `json:"target_value" binding:"required,gt=0"`
		CurrentValue float64 `json:"current_value" binding:"gte=0"`
		Unit         string  `json:"unit"`
		Deadline     string  `json:"deadline"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	goal := models.Goal{
		UserID:       userID,
		Title:        utils.SanitizeLabel(req.Title),
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		Unit:         utils.SanitizeLabel(req.Unit),
	}
	if goal.Title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "title must not be empty")
		return
	}
	if req.Deadline != "" {
		d, err := utils.ParseISODate(req.Deadline, g.Config.Location())
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40032, "deadline must be YYYY-MM-DD")
			return
		}
		goal.Deadline = &d
	}

	rctx := ctx.Request.Context()
	if err := g.Store.CreateGoal(rctx, &goal); err != nil {
		g.logger().Error("create goal failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create goal")
		return
	}
	g.Cache.InvalidatePrefix(rctx, insightsPrefix(userID))

	utils.Success(ctx, gin.H{
		"goal":      goalResponse(goal),
		"newBadges": g.Badges.RunBadgeChecks(rctx, userID, nil),
	})
}

// UpdateGoal sets a goal's current value and checks goal badges.
func (g *GoalController) UpdateGoal(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	goalID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid goal id")
		return
	}
	var req struct {
		CurrentValue *float64 `json:"current_value" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || *req.CurrentValue < 0 {
		utils.Error(ctx, http.StatusBadRequest, 40034, "current_value must be a non-negative number")
		return
	}

	rctx := ctx.Request.Context()
	goal, err := g.Store.UpdateGoalValue(rctx, userID, goalID, *req.CurrentValue)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "goal not found")
			return
		}
		g.logger().Error("update goal failed", zap.Uint("goal_id", goalID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to update goal")
		return
	}
	g.Cache.InvalidatePrefix(rctx, insightsPrefix(userID))

	utils.Success(ctx, gin.H{
		"goal":       goalResponse(*goal),
		"newBadges":  g.Badges.RunBadgeChecks(rctx, userID, nil),
		"updated_at": goal.UpdatedAt.Format(time.RFC3339),
	})
}
