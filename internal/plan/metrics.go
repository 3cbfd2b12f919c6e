package plan

import (
	"math"

	"github.com/yourname/quittracker/internal"
)

// Metrics are the derived per-day fields. All three are nil exactly when the
// day has no reported count; the nil/zero distinction is load-bearing for
// the UI and must survive every marshal hop.
type Metrics struct {
	Avoided     *int
	MoneySaved  *float64
	HealthScore *int
}

// DeriveMetrics computes avoided/money/health from a day's report.
//
// Avoided is measured against the user's original baseline, not the week's
// taper target: it answers "how much less than my old habit", which is a
// different question from "did I meet this week's target" (that one belongs
// to the streak). Health score is the avoided share of the baseline as a
// percentage; a zero baseline scores 0 rather than dividing.
func DeriveMetrics(baseline int, actual *int, pricePerCigarette float64) Metrics {
	if actual == nil {
		return Metrics{}
	}
	avoided := baseline - *actual
	if avoided < 0 {
		avoided = 0
	}
	money := float64(avoided) * pricePerCigarette
	score := 0
	if baseline > 0 {
		score = int(math.Round(float64(avoided) / float64(baseline) * 100))
	}
	return Metrics{Avoided: &avoided, MoneySaved: &money, HealthScore: &score}
}

// ApplyMetrics backfills an entry's derived fields from its own counts.
func ApplyMetrics(e *internal.ProgressEntry, pricePerCigarette float64) {
	m := DeriveMetrics(e.InitialCigarettes, e.ActualCigarettes, pricePerCigarette)
	e.CigarettesAvoided = m.Avoided
	e.MoneySaved = m.MoneySaved
	e.HealthScore = m.HealthScore
}
