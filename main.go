package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Kramxie/neo-routine-sub000/analytics"
	"github.com/Kramxie/neo-routine-sub000/badges"
	"github.com/Kramxie/neo-routine-sub000/config"
	"github.com/Kramxie/neo-routine-sub000/controllers"
	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/reminder"
	"github.com/Kramxie/neo-routine-sub000/routes"
	"github.com/Kramxie/neo-routine-sub000/store"
	"github.com/Kramxie/neo-routine-sub000/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	var hooks []func(context.Context)

	var st store.Store
	switch cfg.Storage {
	case "memory":
		utils.Sugar.Warn("using in-memory storage; data is lost on restart")
		st = store.NewMemoryStore()
	default:
		db := config.InitDatabase(cfg, &models.User{}, &models.Routine{}, &models.RoutineTask{}, &models.CheckIn{}, &models.Goal{}, &models.Badge{})
		st = store.NewGormStore(db)
		hooks = append(hooks, func(context.Context) {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	}

	var cache utils.Cache = utils.NewMemoryCache(nil)
	if cfg.CacheBackend == "redis" {
		rc, err := utils.NewRedisClient(cfg)
		if err != nil {
			utils.Sugar.Warnf("redis unavailable, falling back to in-memory cache: %v", err)
		} else {
			cache = utils.NewRedisCache(rc, "neoroutine:")
			hooks = append(hooks, func(context.Context) { _ = rc.Close() })
		}
	}

	loc := cfg.Location()
	deps := controllers.Deps{
		Config:    cfg,
		Store:     st,
		Badges:    badges.NewEngine(st, badges.WithLogger(utils.Logger.Named("badges")), badges.WithLocation(loc)),
		Insights:  analytics.NewAggregator(st, analytics.WithLogger(utils.Logger.Named("analytics")), analytics.WithLocation(loc)),
		Messages:  reminder.NewEngine(nil),
		Cache:     cache,
		Blacklist: utils.NewTokenBlacklist(cache, nil),
		Logger:    utils.Logger,
	}

	r := routes.SetupRouter(deps)

	utils.Logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("storage", cfg.Storage), zap.String("cache", cfg.CacheBackend))
	if err := utils.GraceServer(":"+cfg.AppPort, r, hooks...); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
