package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/service"
)

func PostPlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var req service.PlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		if err := service.ValidatePlanRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Plan validation failed")
			return
		}

		p, err := service.CreatePlan(c.Request.Context(), app.Plans(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save plan")
			return
		}

		HandleSuccess(c, app.Logger(), p, nil)
	}
}

func GetPlans(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		plans, err := app.Plans().ListPlans(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch plans")
			return
		}
		HandleSuccess(c, app.Logger(), plans, nil)
	}
}

func GetActivePlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		p, err := app.Plans().GetActivePlan(c.Request.Context(), user.ID)
		if errors.Is(err, internal.ErrNoActivePlan) {
			HandleError(c, app.Logger(), err, 404, "No active plan")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch active plan")
			return
		}
		HandleSuccess(c, app.Logger(), p, nil)
	}
}

func ActivatePlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		planID := c.Param("id")

		err := app.Plans().SetActivePlan(c.Request.Context(), user.ID, planID)
		if errors.Is(err, internal.ErrPlanNotFound) {
			HandleError(c, app.Logger(), err, 404, "Plan not found")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to activate plan")
			return
		}

		p, err := app.Plans().GetPlan(c.Request.Context(), user.ID, planID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch plan")
			return
		}
		HandleSuccess(c, app.Logger(), p, nil)
	}
}
