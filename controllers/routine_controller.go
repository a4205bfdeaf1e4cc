package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/store"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

const maxTasksPerRoutine = 50

// RoutineController manages a user's routines.
type RoutineController struct {
	Deps
}

func NewRoutineController(d Deps) *RoutineController {
	return &RoutineController{Deps: d}
}

// ListRoutines returns the user's routines with their tasks. Archived routines
// are included with ?include_archived=true.
func (r *RoutineController) ListRoutines(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	routines, err := r.Store.ListRoutines(ctx.Request.Context(), userID, ctx.Query("include_archived") == "true")
	if err != nil {
		r.logger().Error("list routines failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list routines")
		return
	}
	if routines == nil {
		routines = []models.Routine{}
	}
	utils.Success(ctx, gin.H{"items": routines})
}

// CreateRoutine stores a routine and runs badge checks for routine milestones.
func (r *RoutineController) CreateRoutine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	type taskRequest struct {
		Label    string `json:"label"`
		IsActive *bool  `json:"is_active"`
	}
	var req struct {
		Name        string        `json:"name" binding:"required"`
		Description string        `json:"description"`
		Tasks       []taskRequest `json:"tasks"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	routine := models.Routine{
		UserID:      userID,
		Name:        utils.SanitizeLabel(req.Name),
		Description: utils.SanitizeLabel(req.Description),
	}
	if routine.Name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "name must not be empty")
		return
	}
	if len(req.Tasks) > maxTasksPerRoutine {
		utils.Error(ctx, http.StatusBadRequest, 40012, "too many tasks")
		return
	}
	for i, t := range req.Tasks {
		label := utils.SanitizeLabel(t.Label)
		if label == "" {
			utils.Error(ctx, http.StatusBadRequest, 40013, "task label must not be empty")
			return
		}
		active := t.IsActive == nil || *t.IsActive
		routine.Tasks = append(routine.Tasks, models.RoutineTask{Label: label, Position: i, IsActive: active})
	}

	rctx := ctx.Request.Context()
	if err := r.Store.CreateRoutine(rctx, &routine); err != nil {
		r.logger().Error("create routine failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create routine")
		return
	}
	r.Cache.InvalidatePrefix(rctx, insightsPrefix(userID))

	utils.Success(ctx, gin.H{
		"routine":   routine,
		"newBadges": r.Badges.RunBadgeChecks(rctx, userID, nil),
	})
}

// ArchiveRoutine hides a routine from completion math without deleting its history.
func (r *RoutineController) ArchiveRoutine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	routineID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40014, "invalid routine id")
		return
	}

	rctx := ctx.Request.Context()
	if err := r.Store.ArchiveRoutine(rctx, userID, routineID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "routine not found")
			return
		}
		r.logger().Error("archive routine failed", zap.Uint("routine_id", routineID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to archive routine")
		return
	}
	r.Cache.InvalidatePrefix(rctx, insightsPrefix(userID))
	utils.Success(ctx, gin.H{"id": routineID, "archived": true})
}
