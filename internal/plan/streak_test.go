package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/quittracker/internal"
)

func lookupFor(entries map[string]*internal.ProgressEntry) EntryLookup {
	return func(date string) *internal.ProgressEntry {
		return entries[date]
	}
}

func reportedDay(date string, actual, target int) *internal.ProgressEntry {
	return &internal.ProgressEntry{Date: date, ActualCigarettes: &actual, TargetCigarettes: target}
}

func day(t *testing.T, offset int) string {
	t.Helper()
	base := mustDate(t, "2025-03-10")
	return base.AddDate(0, 0, offset).Format(internal.DateFormat)
}

func TestComputeStreakCountsBackward(t *testing.T) {
	today := mustDate(t, "2025-03-10")
	entries := map[string]*internal.ProgressEntry{
		day(t, 0):  reportedDay(day(t, 0), 5, 10),
		day(t, -1): reportedDay(day(t, -1), 10, 10), // meeting exactly counts
		day(t, -2): reportedDay(day(t, -2), 3, 10),
	}
	assert.Equal(t, 3, ComputeStreak(lookupFor(entries), today))
}

func TestComputeStreakStopsAtUnreportedDay(t *testing.T) {
	today := mustDate(t, "2025-03-10")
	entries := map[string]*internal.ProgressEntry{
		day(t, 0): reportedDay(day(t, 0), 5, 10),
		// day -1 missing
		day(t, -2): reportedDay(day(t, -2), 3, 10),
	}
	assert.Equal(t, 1, ComputeStreak(lookupFor(entries), today))
}

func TestComputeStreakStopsWhenTargetExceeded(t *testing.T) {
	today := mustDate(t, "2025-03-10")
	entries := map[string]*internal.ProgressEntry{
		day(t, 0):  reportedDay(day(t, 0), 5, 10),
		day(t, -1): reportedDay(day(t, -1), 11, 10),
		day(t, -2): reportedDay(day(t, -2), 3, 10),
	}
	assert.Equal(t, 1, ComputeStreak(lookupFor(entries), today))
}

func TestComputeStreakTodayBreaksIt(t *testing.T) {
	today := mustDate(t, "2025-03-10")
	entries := map[string]*internal.ProgressEntry{
		day(t, 0):  reportedDay(day(t, 0), 15, 10),
		day(t, -1): reportedDay(day(t, -1), 3, 10),
	}
	assert.Equal(t, 0, ComputeStreak(lookupFor(entries), today))
}

func TestComputeStreakLookbackBound(t *testing.T) {
	today := mustDate(t, "2025-03-10")
	entries := map[string]*internal.ProgressEntry{}
	for i := 0; i < 45; i++ {
		d := today.AddDate(0, 0, -i).Format(internal.DateFormat)
		entries[d] = reportedDay(d, 0, 10)
	}
	assert.Equal(t, StreakLookbackDays, ComputeStreak(lookupFor(entries), today))
}

func TestComputeStreakNoData(t *testing.T) {
	assert.Equal(t, 0, ComputeStreak(lookupFor(nil), time.Now()))
}
