package achievement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/quittracker/internal"
)

// fakeAwards is an in-memory award store with per-achievement failure
// injection.
type fakeAwards struct {
	awarded  map[string]bool
	failIDs  map[string]bool
	failList bool
	calls    int
}

func newFakeAwards() *fakeAwards {
	return &fakeAwards{awarded: make(map[string]bool), failIDs: make(map[string]bool)}
}

func (f *fakeAwards) ListAwarded(ctx context.Context, userID string) ([]string, error) {
	if f.failList {
		return nil, errors.New("store down")
	}
	var ids []string
	for id := range f.awarded {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeAwards) Award(ctx context.Context, userID, achievementID string) error {
	f.calls++
	if f.failIDs[achievementID] {
		return errors.New("store down")
	}
	f.awarded[achievementID] = true
	return nil
}

func ids(achievements []internal.Achievement) []string {
	var out []string
	for _, a := range achievements {
		out = append(out, a.ID)
	}
	return out
}

func TestEvaluateAwardsThresholds(t *testing.T) {
	awards := newFakeAwards()
	e := NewEngine(DefaultCatalog(), awards, internal.NopLogger{})

	newly, err := e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 8, MoneySaved: 0})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"days-1", "days-3", "days-7"}, ids(newly))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	awards := newFakeAwards()
	e := NewEngine(DefaultCatalog(), awards, internal.NopLogger{})

	first, err := e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 8})
	assert.NoError(t, err)
	assert.NotEmpty(t, first)

	// Same progress, updated awarded set: nothing new, no award calls.
	calls := awards.calls
	second, err := e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 8})
	assert.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, calls, awards.calls)
}

func TestEvaluateMoneyThresholds(t *testing.T) {
	awards := newFakeAwards()
	e := NewEngine(DefaultCatalog(), awards, internal.NopLogger{})

	newly, err := e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 1, MoneySaved: 600_000})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"days-1", "money-100k", "money-500k"}, ids(newly))
}

func TestFailedAwardIsSkippedAndRetried(t *testing.T) {
	awards := newFakeAwards()
	awards.failIDs["days-7"] = true
	e := NewEngine(DefaultCatalog(), awards, internal.NopLogger{})

	newly, err := e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 8})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"days-1", "days-3"}, ids(newly))
	assert.False(t, awards.awarded["days-7"])

	// Next pass picks it up once the store recovers.
	delete(awards.failIDs, "days-7")
	newly, err = e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 8})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"days-7"}, ids(newly))
}

func TestEvaluateNeverRevokes(t *testing.T) {
	awards := newFakeAwards()
	awards.awarded["days-7"] = true
	e := NewEngine(DefaultCatalog(), awards, internal.NopLogger{})

	// Progress no longer satisfies the predicate; the award stays and is
	// not re-issued.
	newly, err := e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 2})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"days-1"}, ids(newly))
	assert.True(t, awards.awarded["days-7"])
}

func TestEvaluateSkipsPassWhenListFails(t *testing.T) {
	awards := newFakeAwards()
	awards.failList = true
	e := NewEngine(DefaultCatalog(), awards, internal.NopLogger{})

	newly, err := e.EvaluateForUser(context.Background(), "u1", Progress{ElapsedDays: 8})
	assert.Error(t, err)
	assert.Nil(t, newly)
	assert.Equal(t, 0, awards.calls)
}

func TestStatusForUser(t *testing.T) {
	awards := newFakeAwards()
	awards.awarded["days-1"] = true
	e := NewEngine(DefaultCatalog(), awards, internal.NopLogger{})

	statuses, err := e.StatusForUser(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Len(t, statuses, len(DefaultCatalog()))
	byID := map[string]bool{}
	for _, s := range statuses {
		byID[s.ID] = s.Awarded
	}
	assert.True(t, byID["days-1"])
	assert.False(t, byID["days-7"])
}
