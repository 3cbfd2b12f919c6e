package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/achievement"
)

func GetAchievements(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		statuses, err := app.Achievements().StatusForUser(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch achievements")
			return
		}
		HandleSuccess(c, app.Logger(), statuses, nil)
	}
}

// PostEvaluate is the well-defined evaluation trigger: clients call it on
// login and after progress updates, and the response drives one-shot
// notifications. Repeating it is harmless; already-awarded achievements
// never come back.
func PostEvaluate(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		p, err := activePlan(c, app)
		if errors.Is(err, internal.ErrNoActivePlan) {
			HandleSuccess(c, app.Logger(), []internal.Achievement{}, map[string]any{"no_active_plan": true})
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

		newly, err := app.Achievements().EvaluateForUser(c.Request.Context(), user.ID, achievement.Progress{
			ElapsedDays: sum.ElapsedDays,
			MoneySaved:  sum.TotalMoneySaved,
		})
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to evaluate achievements")
			return
		}
		if newly == nil {
			newly = []internal.Achievement{}
		}
		HandleSuccess(c, app.Logger(), newly, nil)
	}
}
