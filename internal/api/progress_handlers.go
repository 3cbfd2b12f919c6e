package api

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/ledger"
	"github.com/yourname/quittracker/internal/service"
)

// activePlan resolves the caller's active plan. Progress reads degrade to
// an empty result with a create-plan prompt instead of erroring; writes do
// not, there is nothing to write against.
func activePlan(c *gin.Context, app App) (*internal.QuitPlan, error) {
	user := currentUser(c)
	return app.Plans().GetActivePlan(c.Request.Context(), user.ID)
}

func GetProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(ledger.DefaultPageSize)))

		p, err := activePlan(c, app)
		if errors.Is(err, internal.ErrNoActivePlan) {
			HandleSuccess(c, app.Logger(), []internal.ProgressEntry{}, map[string]any{
				"no_active_plan": true,
				"total_days":     0,
			})
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch active plan")
			return
		}

		entries, total, err := app.Ledger().Page(c.Request.Context(), p, page, size)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to build ledger")
			return
		}
		HandleSuccess(c, app.Logger(), entries, map[string]any{
			"page":       page,
			"size":       size,
			"total_days": total,
		})
	}
}

func PostCheckin(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CheckinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateCheckinRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Check-in validation failed")
			return
		}

		p, err := activePlan(c, app)
		if errors.Is(err, internal.ErrNoActivePlan) {
			HandleError(c, app.Logger(), err, 404, "No active plan")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch active plan")
			return
		}

		entry, err := service.SubmitCheckin(c.Request.Context(), app.Ledger(), p, &req)
		if err != nil {
			// The input survives as a local draft; the client can retry.
			HandleError(c, app.Logger(), err, 500, "Failed to save check-in")
			return
		}
		HandleSuccess(c, app.Logger(), entry, nil)
	}
}

func DeleteProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Param("date")

		p, err := activePlan(c, app)
		if errors.Is(err, internal.ErrNoActivePlan) {
			HandleError(c, app.Logger(), err, 404, "No active plan")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch active plan")
			return
		}

		if err := app.Ledger().Delete(c.Request.Context(), p, date); err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to delete check-in")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"date": date, "reset": true})
	}
}

func GetStreak(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := activePlan(c, app)
		if errors.Is(err, internal.ErrNoActivePlan) {
			HandleSuccess(c, app.Logger(), nil, map[string]any{"streak": 0, "no_active_plan": true})
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch active plan")
			return
		}

		streak, err := app.Ledger().Streak(c.Request.Context(), p)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to compute streak")
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"streak": streak})
	}
}

func GetSummary(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := activePlan(c, app)
		if errors.Is(err, internal.ErrNoActivePlan) {
			HandleSuccess(c, app.Logger(), ledger.Summary{}, map[string]any{"no_active_plan": true})
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch active plan")
			return
		}

		sum, err := app.Ledger().Summarize(c.Request.Context(), p)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to summarize progress")
			return
		}
		HandleSuccess(c, app.Logger(), sum, nil)
	}
}
