package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourname/quittracker/internal/auth"
)

// Register mounts all routes behind the auth middleware.
func Register(r *gin.Engine, app App, provider auth.Provider) {
	r.Use(RequestIDMiddleware())

	g := r.Group("/api", auth.Middleware(provider))

	g.POST("/plans", PostPlan(app))
	g.GET("/plans", GetPlans(app))
	g.GET("/plans/active", GetActivePlan(app))
	g.POST("/plans/:id/activate", ActivatePlan(app))

	g.GET("/progress", GetProgress(app))
	g.POST("/progress/checkin", PostCheckin(app))
	g.DELETE("/progress/:date", DeleteProgress(app))
	g.GET("/progress/streak", GetStreak(app))
	g.GET("/progress/summary", GetSummary(app))

	g.GET("/achievements", GetAchievements(app))
	g.POST("/achievements/evaluate", PostEvaluate(app))
}
