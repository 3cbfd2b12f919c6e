package plan

import (
	"time"

	"github.com/yourname/quittracker/internal"
)

const DaysPerWeek = 7

// ResolveTarget maps a plan and a calendar date to the daily cigarette
// allowance for that date. This is the single home of the week-index
// arithmetic; every call site that needs a day's target goes through here.
//
// Rules:
//   - nil plan or a plan without weeks resolves to 0 (nothing to compute from)
//   - a date before the plan start resolves to the baseline, the taper has
//     not begun yet
//   - a date past the last defined week keeps the last week's value, the
//     plan does not expire to zero
//   - an unparsable start date resolves to the first week's target
func ResolveTarget(p *internal.QuitPlan, date time.Time) int {
	if p == nil || len(p.Weeks) == 0 {
		return 0
	}
	start, err := time.Parse(internal.DateFormat, p.StartDate)
	if err != nil {
		return p.Weeks[0].DailyTarget()
	}
	days := DaysBetween(start, date)
	if days < 0 {
		return p.InitialCigarettes
	}
	week := days / DaysPerWeek
	if week >= len(p.Weeks) {
		week = len(p.Weeks) - 1
	}
	return p.Weeks[week].DailyTarget()
}

// WeekReduction reports the percentage drop of the week containing date
// relative to the previous week's target, for "vs. last week" feedback.
// ok is false during the first week, before the start, or when the previous
// week's target is zero. Informational only; never feeds back into targets.
func WeekReduction(p *internal.QuitPlan, date time.Time) (pct float64, ok bool) {
	if p == nil || len(p.Weeks) < 2 {
		return 0, false
	}
	start, err := time.Parse(internal.DateFormat, p.StartDate)
	if err != nil {
		return 0, false
	}
	days := DaysBetween(start, date)
	if days < DaysPerWeek {
		return 0, false
	}
	week := days / DaysPerWeek
	if week >= len(p.Weeks) {
		week = len(p.Weeks) - 1
	}
	prev := p.Weeks[week-1].DailyTarget()
	if prev == 0 {
		return 0, false
	}
	cur := p.Weeks[week].DailyTarget()
	return float64(prev-cur) / float64(prev) * 100, true
}

// PlanEnd returns the plan's end date, start + weeks*7 days. The ledger
// range runs from the start date to min(today, PlanEnd) inclusive.
func PlanEnd(p *internal.QuitPlan) (time.Time, error) {
	start, err := time.Parse(internal.DateFormat, p.StartDate)
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 0, len(p.Weeks)*DaysPerWeek), nil
}

// ElapsedDays counts plan days up to and including today; the start date is
// day 1. Zero when today precedes the start or the start date is unparsable.
func ElapsedDays(p *internal.QuitPlan, today time.Time) int {
	if p == nil {
		return 0
	}
	start, err := time.Parse(internal.DateFormat, p.StartDate)
	if err != nil {
		return 0
	}
	days := DaysBetween(start, today) + 1
	if days < 0 {
		return 0
	}
	return days
}

// DaysBetween returns the number of whole calendar days from start to d,
// negative when d precedes start. Clock components are ignored.
func DaysBetween(start, d time.Time) int {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(start) / (24 * time.Hour))
}
