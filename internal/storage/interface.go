package storage

import (
	"context"

	"github.com/yourname/quittracker/internal"
)

// PlanRepository persists tapering plans. Exactly one plan is active per
// user; activating one deactivates the rest.
type PlanRepository interface {
	SavePlan(ctx context.Context, p *internal.QuitPlan) error
	GetPlan(ctx context.Context, userID, planID string) (*internal.QuitPlan, error)
	ListPlans(ctx context.Context, userID string) ([]internal.QuitPlan, error)
	// GetActivePlan returns internal.ErrNoActivePlan when the user has none.
	GetActivePlan(ctx context.Context, userID string) (*internal.QuitPlan, error)
	SetActivePlan(ctx context.Context, userID, planID string) error
}

// EntryRepository persists authoritative progress entries, at most one per
// (user, plan, date).
type EntryRepository interface {
	ListEntries(ctx context.Context, userID, planID string) ([]internal.ProgressEntry, error)
	// GetEntry returns internal.ErrRecordNotFound when the date has no record.
	GetEntry(ctx context.Context, userID, planID, date string) (*internal.ProgressEntry, error)
	CreateEntry(ctx context.Context, e *internal.ProgressEntry) error
	// UpdateEntry returns internal.ErrRecordNotFound when the date has no
	// record; callers fall back to CreateEntry.
	UpdateEntry(ctx context.Context, e *internal.ProgressEntry) error
	DeleteEntry(ctx context.Context, userID, planID, date string) error
}

// AchievementRepository persists award records. Award records are
// append-only and unique per (user, achievement); awarding twice is a
// silent no-op at this level too.
type AchievementRepository interface {
	ListAwarded(ctx context.Context, userID string) ([]string, error)
	Award(ctx context.Context, userID, achievementID string) error
}
