package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/badges"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// BadgeController exposes earned badges and the badge catalog.
type BadgeController struct {
	Deps
}

func NewBadgeController(d Deps) *BadgeController {
	return &BadgeController{Deps: d}
}

// ListBadges returns the user's earned badges with their display metadata.
func (b *BadgeController) ListBadges(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}
	earned, err := b.Store.ListBadges(ctx.Request.Context(), userID)
	if err != nil {
		b.logger().Error("list badges failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list badges")
		return
	}

	items := make([]gin.H, 0, len(earned))
	unseen := 0
	for _, e := range earned {
		def, _ := badges.Lookup(e.BadgeID)
		if !e.Seen {
			unseen++
		}
		items = append(items, gin.H{
			"badge_id":    e.BadgeID,
			"name":        def.Name,
			"description": def.Description,
			"icon":        def.Icon,
			"category":    def.Category,
			"earned_at":   e.EarnedAt,
			"seen":        e.Seen,
			"context":     e.Context,
		})
	}
	utils.Success(ctx, gin.H{"items": items, "unseen": unseen})
}

// Catalog returns every badge definition flagged with whether the user holds it.
func (b *BadgeController) Catalog(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}
	earned, err := b.Store.ListBadges(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list badges")
		return
	}
	held := make(map[string]bool, len(earned))
	for _, e := range earned {
		held[e.BadgeID] = true
	}

	defs := badges.Catalog()
	items := make([]gin.H, 0, len(defs))
	for _, d := range defs {
		items = append(items, gin.H{
			"id":          d.ID,
			"name":        d.Name,
			"description": d.Description,
			"icon":        d.Icon,
			"category":    d.Category,
			"threshold":   d.Threshold,
			"earned":      held[d.ID],
		})
	}
	utils.Success(ctx, gin.H{"items": items, "earned": len(earned), "total": len(defs)})
}

// MarkSeen flags badges as seen; an empty list marks all of them.
func (b *BadgeController) MarkSeen(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}
	var req struct {
		BadgeIDs []string `json:"badge_ids"`
	}
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
			return
		}
	}
	n, err := b.Store.MarkBadgesSeen(ctx.Request.Context(), userID, req.BadgeIDs)
	if err != nil {
		b.logger().Error("mark badges seen failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to update badges")
		return
	}
	utils.Success(ctx, gin.H{"updated": n})
}
