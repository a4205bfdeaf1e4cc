package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Kramxie/neo-routine-sub000/controllers"
	"github.com/Kramxie/neo-routine-sub000/metrics"
	"github.com/Kramxie/neo-routine-sub000/middleware"
	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d controllers.Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authController := controllers.NewAuthController(d)
	routineController := controllers.NewRoutineController(d)
	checkInController := controllers.NewCheckInController(d)
	goalController := controllers.NewGoalController(d)
	badgeController := controllers.NewBadgeController(d)
	insightsController := controllers.NewInsightsController(d)

	authRequired := middleware.AuthRequired(cfg.JWTSecret, d.Blacklist)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)

	protected := api.Group("")
	protected.Use(authRequired, middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))

	protected.GET("/routines", routineController.ListRoutines)
	protected.POST("/routines", routineController.CreateRoutine)
	protected.DELETE("/routines/:id", routineController.ArchiveRoutine)

	protected.POST("/checkins", checkInController.CreateCheckIn)
	protected.DELETE("/checkins", checkInController.DeleteCheckIn)

	protected.GET("/goals", goalController.ListGoals)
	protected.POST("/goals", goalController.CreateGoal)
	protected.PATCH("/goals/:id", goalController.UpdateGoal)

	protected.GET("/badges", badgeController.ListBadges)
	protected.GET("/badges/catalog", badgeController.Catalog)
	protected.POST("/badges/seen", badgeController.MarkSeen)

	protected.GET("/insights", insightsController.GetInsights)
	protected.GET("/insights/message", insightsController.GetMessage)

	coach := protected.Group("/coach")
	coach.Use(middleware.RequireRole(models.RoleCoach))
	coach.GET("/overview", insightsController.GetCoachOverview)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
