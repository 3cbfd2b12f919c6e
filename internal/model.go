package internal

import "time"

// DateFormat is the calendar-day format used everywhere a ledger date is
// stored or exchanged. Ledger dates are timezone-naive days, not instants.
const DateFormat = "2006-01-02"

const (
	// CigarettesPerPack converts a configured pack price into a per-cigarette price.
	CigarettesPerPack = 20
	// DefaultCigarettePrice applies when a plan configures no price at all.
	DefaultCigarettePrice = 1250
)

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// PlanWeek is one 7-day block of a tapering plan. Historic plan payloads
// named the daily allowance inconsistently, so all known spellings are
// accepted; DailyTarget resolves them by fixed precedence.
type PlanWeek struct {
	Amount          *int `json:"amount,omitempty"`
	Target          *int `json:"target,omitempty"`
	Cigarettes      *int `json:"cigarettes,omitempty"`
	DailyCigarettes *int `json:"daily_cigarettes,omitempty"`
}

// DailyTarget returns the week's daily cigarette allowance. Precedence:
// amount, target, cigarettes, daily_cigarettes; 0 when none is set.
func (w PlanWeek) DailyTarget() int {
	for _, v := range []*int{w.Amount, w.Target, w.Cigarettes, w.DailyCigarettes} {
		if v != nil {
			return *v
		}
	}
	return 0
}

// QuitPlan is a tapering schedule anchored at StartDate. A plan is never
// mutated once active; edits store a new plan row and move the active marker.
type QuitPlan struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	StartDate         string     `json:"start_date"` // DateFormat
	Weeks             []PlanWeek `json:"weeks"`
	InitialCigarettes int        `json:"initial_cigarettes"`
	PricePerCigarette float64    `json:"price_per_cigarette,omitempty"`
	PackPrice         float64    `json:"pack_price,omitempty"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
}

// CigarettePrice resolves the money-per-cigarette used for savings math:
// explicit per-cigarette price, else pack price divided by pack size, else
// the hard default.
func (p *QuitPlan) CigarettePrice() float64 {
	if p.PricePerCigarette > 0 {
		return p.PricePerCigarette
	}
	if p.PackPrice > 0 {
		return p.PackPrice / CigarettesPerPack
	}
	return DefaultCigarettePrice
}

// Provenance tags where a ledger entry came from.
type Provenance string

const (
	// ProvenanceAuthoritative marks an entry backed by the record store.
	ProvenanceAuthoritative Provenance = "authoritative"
	// ProvenanceDraft marks a locally cached check-in that has not been
	// accepted by the record store yet.
	ProvenanceDraft Provenance = "draft"
	// ProvenancePlaceholder marks a synthesized row for a day with no report.
	ProvenancePlaceholder Provenance = "placeholder"
)

// ProgressEntry is one day of a plan's ledger. Actual and the derived
// fields are pointers: nil means "not reported yet" and must never be
// flattened to zero, the UI renders nil as N/A.
type ProgressEntry struct {
	ID                string     `json:"id,omitempty"`
	UserID            string     `json:"user_id"`
	PlanID            string     `json:"plan_id"`
	Date              string     `json:"date"` // DateFormat
	TargetCigarettes  int        `json:"target_cigarettes"`
	ActualCigarettes  *int       `json:"actual_cigarettes"`
	InitialCigarettes int        `json:"initial_cigarettes"`
	CigarettesAvoided *int       `json:"cigarettes_avoided"`
	MoneySaved        *float64   `json:"money_saved"`
	HealthScore       *int       `json:"health_score"`
	Notes             string     `json:"notes,omitempty"`
	Provenance        Provenance `json:"provenance"`
	CreatedAt         time.Time  `json:"created_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at,omitempty"`
}

// Reported reports whether the day has a user-submitted count.
func (e *ProgressEntry) Reported() bool {
	return e != nil && e.ActualCigarettes != nil
}

// Achievement is a catalog entry. Unlock rules live in the achievement
// package keyed by ID; the display name carries no semantics and is safe
// to localize.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}
