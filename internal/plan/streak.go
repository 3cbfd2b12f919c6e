package plan

import (
	"time"

	"github.com/yourname/quittracker/internal"
)

// StreakLookbackDays bounds the backward walk; a streak longer than this
// reports the cap.
const StreakLookbackDays = 30

// EntryLookup resolves a calendar date (DateFormat) to that day's entry, or
// nil when the day has no record at all.
type EntryLookup func(date string) *internal.ProgressEntry

// ComputeStreak counts consecutive goal-meeting days ending at today,
// walking backward one day at a time. Two distinct conditions end the walk:
// a day with no report (absence breaks the streak, it is not skipped) and a
// day where the actual count exceeded the target.
func ComputeStreak(lookup EntryLookup, today time.Time) int {
	streak := 0
	day := today
	for i := 0; i < StreakLookbackDays; i++ {
		e := lookup(day.Format(internal.DateFormat))
		if !e.Reported() {
			break
		}
		if *e.ActualCigarettes > e.TargetCigarettes {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
