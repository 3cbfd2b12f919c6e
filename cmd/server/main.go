package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/achievement"
	"github.com/yourname/quittracker/internal/api"
	"github.com/yourname/quittracker/internal/auth"
	"github.com/yourname/quittracker/internal/cache"
	"github.com/yourname/quittracker/internal/config"
	"github.com/yourname/quittracker/internal/ledger"
	"github.com/yourname/quittracker/internal/storage"
)

type app struct {
	logger internal.Logger
	plans  storage.PlanRepository
	ledger *ledger.Service
	engine *achievement.Engine
}

func (a *app) Logger() internal.Logger           { return a.logger }
func (a *app) Plans() storage.PlanRepository     { return a.plans }
func (a *app) Ledger() *ledger.Service           { return a.ledger }
func (a *app) Achievements() *achievement.Engine { return a.engine }

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	repos, err := storage.FromConfig(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer repos.Close()

	drafts := cache.NewMemoryCache()
	a := &app{
		logger: logger,
		plans:  repos.Plans,
		ledger: ledger.NewService(repos.Entries, drafts, logger),
		engine: achievement.NewEngine(achievement.DefaultCatalog(), repos.Awards, logger),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.Register(r, a, auth.FromConfig(cfg, logger))

	logger.Infof("server running on %s (storage=%s, auth=%s)", cfg.ListenAddr, cfg.StorageBackend, cfg.AuthMode)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}
