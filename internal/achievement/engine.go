package achievement

import (
	"context"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/storage"
)

// Progress is the cumulative input every unlock rule is judged against.
// There is no persisted "in progress" state; totals are recomputed fresh
// on every evaluation.
type Progress struct {
	ElapsedDays int
	MoneySaved  float64
}

// Predicate decides whether an achievement is unlocked by the given
// progress. Rules are keyed by achievement ID, never by display name, so
// renaming or localizing a name cannot silently drop a rule.
type Predicate func(Progress) bool

func DaysAtLeast(n int) Predicate {
	return func(p Progress) bool { return p.ElapsedDays >= n }
}

func MoneyAtLeast(v float64) Predicate {
	return func(p Progress) bool { return p.MoneySaved >= v }
}

// Rule pairs a catalog entry with its unlock predicate.
type Rule struct {
	internal.Achievement
	Unlock Predicate
}

// DefaultCatalog is the static rule set: elapsed-day milestones and
// cumulative-savings breakpoints.
func DefaultCatalog() []Rule {
	return []Rule{
		{internal.Achievement{ID: "days-1", Name: "Ngày đầu tiên", Description: "Hoàn thành ngày đầu tiên của kế hoạch"}, DaysAtLeast(1)},
		{internal.Achievement{ID: "days-3", Name: "3 ngày kiên trì", Description: "3 ngày theo kế hoạch"}, DaysAtLeast(3)},
		{internal.Achievement{ID: "days-7", Name: "1 tuần không hút", Description: "1 tuần theo kế hoạch"}, DaysAtLeast(7)},
		{internal.Achievement{ID: "days-30", Name: "1 tháng bứt phá", Description: "1 tháng theo kế hoạch"}, DaysAtLeast(30)},
		{internal.Achievement{ID: "days-180", Name: "6 tháng bền bỉ", Description: "6 tháng theo kế hoạch"}, DaysAtLeast(180)},
		{internal.Achievement{ID: "days-365", Name: "1 năm thay đổi", Description: "Tròn 1 năm theo kế hoạch"}, DaysAtLeast(365)},
		{internal.Achievement{ID: "money-100k", Name: "Tiết kiệm 100.000đ", Description: "Tiết kiệm được 100.000đ"}, MoneyAtLeast(100_000)},
		{internal.Achievement{ID: "money-500k", Name: "Tiết kiệm 500.000đ", Description: "Tiết kiệm được 500.000đ"}, MoneyAtLeast(500_000)},
		{internal.Achievement{ID: "money-1m", Name: "Tiết kiệm 1 triệu", Description: "Tiết kiệm được 1.000.000đ"}, MoneyAtLeast(1_000_000)},
		{internal.Achievement{ID: "money-5m", Name: "Tiết kiệm 5 triệu", Description: "Tiết kiệm được 5.000.000đ"}, MoneyAtLeast(5_000_000)},
	}
}

// Engine evaluates the catalog and awards each achievement at most once.
type Engine struct {
	rules  []Rule
	awards storage.AchievementRepository
	logger internal.Logger
}

func NewEngine(rules []Rule, awards storage.AchievementRepository, logger internal.Logger) *Engine {
	return &Engine{rules: rules, awards: awards, logger: logger}
}

// Catalog returns the rule set's catalog entries.
func (e *Engine) Catalog() []internal.Achievement {
	out := make([]internal.Achievement, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Achievement
	}
	return out
}

// Evaluate checks every rule not in awarded against progress and issues an
// award call for each satisfied one. Awarding is strictly additive: nothing
// is ever revoked. A failed award call is skipped, not reported as newly
// awarded, and naturally retried on the next pass since the awarded set
// still lacks it. Repeated calls with an unchanged awarded set and progress
// return nothing new.
func (e *Engine) Evaluate(ctx context.Context, userID string, awarded map[string]bool, p Progress) []internal.Achievement {
	var newly []internal.Achievement
	for _, r := range e.rules {
		if awarded[r.ID] || !r.Unlock(p) {
			continue
		}
		if err := e.awards.Award(ctx, userID, r.ID); err != nil {
			e.logger.Warnf("achievement: award %s for user %s failed, will retry next pass: %v", r.ID, userID, err)
			continue
		}
		newly = append(newly, r.Achievement)
	}
	return newly
}

// EvaluateForUser fetches the user's awarded set and runs Evaluate. A store
// read failure skips the whole pass; nothing is optimistically awarded.
func (e *Engine) EvaluateForUser(ctx context.Context, userID string, p Progress) ([]internal.Achievement, error) {
	ids, err := e.awards.ListAwarded(ctx, userID)
	if err != nil {
		return nil, err
	}
	awarded := make(map[string]bool, len(ids))
	for _, id := range ids {
		awarded[id] = true
	}
	return e.Evaluate(ctx, userID, awarded, p), nil
}

// Status is one catalog entry with the user's unlock state.
type Status struct {
	internal.Achievement
	Awarded bool `json:"awarded"`
}

// StatusForUser returns the whole catalog with awarded/locked flags.
func (e *Engine) StatusForUser(ctx context.Context, userID string) ([]Status, error) {
	ids, err := e.awards.ListAwarded(ctx, userID)
	if err != nil {
		return nil, err
	}
	awarded := make(map[string]bool, len(ids))
	for _, id := range ids {
		awarded[id] = true
	}
	out := make([]Status, len(e.rules))
	for i, r := range e.rules {
		out[i] = Status{Achievement: r.Achievement, Awarded: awarded[r.ID]}
	}
	return out, nil
}
