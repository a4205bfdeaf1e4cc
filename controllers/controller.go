package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/analytics"
	"github.com/Kramxie/neo-routine-sub000/badges"
	"github.com/Kramxie/neo-routine-sub000/config"
	"github.com/Kramxie/neo-routine-sub000/middleware"
	"github.com/Kramxie/neo-routine-sub000/reminder"
	"github.com/Kramxie/neo-routine-sub000/store"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// Deps bundles the collaborators shared by controllers.
type Deps struct {
	Config    config.AppConfig
	Store     store.Store
	Badges    *badges.Engine
	Insights  *analytics.Aggregator
	Messages  *reminder.Engine
	Cache     utils.Cache
	Blacklist *utils.TokenBlacklist
	Logger    *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().In(d.Config.Location())
	}
	return time.Now().In(d.Config.Location())
}

func (d Deps) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// parseDays reads ?days, defaulting and capping with the insights settings.
func parseDays(ctx *gin.Context, cfg config.AppConfig) (int, error) {
	raw := strings.TrimSpace(ctx.Query("days"))
	if raw == "" {
		return cfg.InsightsDefaultDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid days %q", raw)
	}
	if cfg.InsightsMaxDays > 0 && n > cfg.InsightsMaxDays {
		n = cfg.InsightsMaxDays
	}
	return n, nil
}

func insightsPrefix(userID uint) string {
	return fmt.Sprintf("insights:%d:", userID)
}

func insightsKey(userID uint, days int) string {
	return fmt.Sprintf("%s%d", insightsPrefix(userID), days)
}
