package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/cache"
)

// fakeRepo is a single-user, single-plan entry store with switchable
// failure modes.
type fakeRepo struct {
	mu      sync.Mutex
	entries map[string]internal.ProgressEntry // date -> entry

	failAll       bool  // every call errors
	updateMissing bool  // UpdateEntry pretends the record vanished
	creates       int
	updates       int
}

var errStoreDown = errors.New("store down")

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[string]internal.ProgressEntry)}
}

func (r *fakeRepo) ListEntries(ctx context.Context, userID, planID string) ([]internal.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errStoreDown
	}
	var out []internal.ProgressEntry
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeRepo) GetEntry(ctx context.Context, userID, planID, date string) (*internal.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errStoreDown
	}
	e, ok := r.entries[date]
	if !ok {
		return nil, internal.ErrRecordNotFound
	}
	cp := e
	return &cp, nil
}

func (r *fakeRepo) CreateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errStoreDown
	}
	r.creates++
	r.entries[e.Date] = *e
	return nil
}

func (r *fakeRepo) UpdateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errStoreDown
	}
	if r.updateMissing {
		return internal.ErrRecordNotFound
	}
	if _, ok := r.entries[e.Date]; !ok {
		return internal.ErrRecordNotFound
	}
	r.updates++
	r.entries[e.Date] = *e
	return nil
}

func (r *fakeRepo) DeleteEntry(ctx context.Context, userID, planID, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errStoreDown
	}
	delete(r.entries, date)
	return nil
}

func wk(n int) internal.PlanWeek {
	return internal.PlanWeek{Amount: &n}
}

func taperPlan() *internal.QuitPlan {
	return &internal.QuitPlan{
		ID:                "p1",
		UserID:            "u1",
		StartDate:         "2025-01-01",
		Weeks:             []internal.PlanWeek{wk(20), wk(15), wk(10), wk(0)},
		InitialCigarettes: 20,
		PricePerCigarette: 1250,
	}
}

func newTestService(repo *fakeRepo, today string) (*Service, *cache.MemoryCache) {
	drafts := cache.NewMemoryCache()
	s := NewService(repo, drafts, internal.NopLogger{})
	s.Now = func() time.Time {
		d, _ := time.Parse(internal.DateFormat, today)
		return d
	}
	return s, drafts
}

func TestBuildFillsGaps(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-04")
	p := taperPlan()

	for _, date := range []string{"2025-01-01", "2025-01-02", "2025-01-04"} {
		actual := 10
		repo.entries[date] = internal.ProgressEntry{
			ID: "e-" + date, UserID: "u1", PlanID: "p1", Date: date,
			TargetCigarettes: 20, ActualCigarettes: &actual, InitialCigarettes: 20,
		}
	}

	entries, err := s.Build(context.Background(), p)
	assert.NoError(t, err)
	assert.Len(t, entries, 4)

	gap := entries[2]
	assert.Equal(t, "2025-01-03", gap.Date)
	assert.Equal(t, internal.ProvenancePlaceholder, gap.Provenance)
	assert.Nil(t, gap.ActualCigarettes)
	assert.Nil(t, gap.CigarettesAvoided)
	assert.Equal(t, 20, gap.TargetCigarettes)
}

func TestBuildCoversWholePlanRange(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-06-01") // far past plan end
	p := taperPlan()

	entries, err := s.Build(context.Background(), p)
	assert.NoError(t, err)
	// start .. start+28 inclusive
	assert.Len(t, entries, 29)

	seen := map[string]bool{}
	prev := ""
	for _, e := range entries {
		assert.False(t, seen[e.Date], "duplicate date %s", e.Date)
		seen[e.Date] = true
		assert.Greater(t, e.Date, prev)
		prev = e.Date
	}
	assert.Equal(t, "2025-01-01", entries[0].Date)
	assert.Equal(t, "2025-01-29", entries[len(entries)-1].Date)
}

func TestBuildBackfillsDerivedFields(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-01")
	p := taperPlan()

	actual := 12
	repo.entries["2025-01-01"] = internal.ProgressEntry{
		ID: "e1", UserID: "u1", PlanID: "p1", Date: "2025-01-01",
		TargetCigarettes: 20, ActualCigarettes: &actual, InitialCigarettes: 20,
	}

	entries, err := s.Build(context.Background(), p)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 8, *entries[0].CigarettesAvoided)
	assert.Equal(t, 10000.0, *entries[0].MoneySaved)
	assert.Equal(t, 40, *entries[0].HealthScore)
}

func TestBuildDegradesWhenStoreDown(t *testing.T) {
	repo := newFakeRepo()
	repo.failAll = true
	s, _ := newTestService(repo, "2025-01-03")
	p := taperPlan()

	entries, err := s.Build(context.Background(), p)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, internal.ProvenancePlaceholder, e.Provenance)
	}
}

func TestPagePagination(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-06-01")
	p := taperPlan()

	page1, total, err := s.Page(context.Background(), p, 1, 7)
	assert.NoError(t, err)
	assert.Equal(t, 29, total)
	assert.Len(t, page1, 7)
	assert.Equal(t, "2025-01-01", page1[0].Date)

	page5, _, err := s.Page(context.Background(), p, 5, 7)
	assert.NoError(t, err)
	assert.Len(t, page5, 1)

	empty, _, err := s.Page(context.Background(), p, 6, 7)
	assert.NoError(t, err)
	assert.Len(t, empty, 0)
}

func TestWriteCreatesWhenNoRecordExists(t *testing.T) {
	repo := newFakeRepo()
	s, drafts := newTestService(repo, "2025-01-02")
	p := taperPlan()

	entry, err := s.Write(context.Background(), p, "2025-01-02", 12, "rough day")
	assert.NoError(t, err)
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 0, repo.updates)
	assert.Equal(t, internal.ProvenanceAuthoritative, entry.Provenance)
	assert.Equal(t, 8, *entry.CigarettesAvoided)
	assert.NotEmpty(t, entry.ID)

	_, ok := drafts.Get("p1", "2025-01-02")
	assert.False(t, ok)
}

func TestWriteUpdatesExistingRecord(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-02")
	p := taperPlan()

	first, err := s.Write(context.Background(), p, "2025-01-02", 12, "")
	assert.NoError(t, err)
	second, err := s.Write(context.Background(), p, "2025-01-02", 9, "better")
	assert.NoError(t, err)

	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.entries, 1)
	assert.Equal(t, 9, *repo.entries["2025-01-02"].ActualCigarettes)
}

func TestWriteFallsBackToCreateOnLostRecord(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-02")
	p := taperPlan()

	_, err := s.Write(context.Background(), p, "2025-01-02", 12, "")
	assert.NoError(t, err)

	// The update path reports the record as gone; the write must recover
	// as a create instead of failing.
	repo.updateMissing = true
	_, err = s.Write(context.Background(), p, "2025-01-02", 9, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, repo.creates)
}

func TestWriteKeepsDraftOnStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failAll = true
	s, drafts := newTestService(repo, "2025-01-02")
	p := taperPlan()

	entry, err := s.Write(context.Background(), p, "2025-01-02", 12, "keep me")
	assert.Error(t, err)
	assert.ErrorIs(t, err, internal.ErrStoreUnavailable)
	assert.Equal(t, internal.ProvenanceDraft, entry.Provenance)

	draft, ok := drafts.Get("p1", "2025-01-02")
	assert.True(t, ok)
	assert.Equal(t, 12, *draft.ActualCigarettes)
	assert.Equal(t, "keep me", draft.Notes)

	// The draft shows up in the ledger until the store accepts it.
	repo.failAll = false
	entries, err := s.Build(context.Background(), p)
	assert.NoError(t, err)
	assert.Equal(t, internal.ProvenanceDraft, entries[1].Provenance)

	// A successful write supersedes the draft.
	_, err = s.Write(context.Background(), p, "2025-01-02", 12, "keep me")
	assert.NoError(t, err)
	_, ok = drafts.Get("p1", "2025-01-02")
	assert.False(t, ok)
}

func TestDeleteRevertsSlotToPlaceholder(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-10")
	p := taperPlan()

	_, err := s.Write(context.Background(), p, "2025-01-10", 5, "")
	assert.NoError(t, err)

	err = s.Delete(context.Background(), p, "2025-01-10")
	assert.NoError(t, err)
	assert.Len(t, repo.entries, 0)

	entries, err := s.Build(context.Background(), p)
	assert.NoError(t, err)
	slot := entries[len(entries)-1]
	assert.Equal(t, "2025-01-10", slot.Date)
	assert.Equal(t, internal.ProvenancePlaceholder, slot.Provenance)
	// The target is recalculated from the plan, not zeroed.
	assert.Equal(t, 15, slot.TargetCigarettes)
	assert.Nil(t, slot.ActualCigarettes)
}

func TestDeletePlaceholderIsANoOp(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-10")
	p := taperPlan()

	err := s.Delete(context.Background(), p, "2025-01-05")
	assert.NoError(t, err)
}

func TestStreakFromStore(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-10")
	p := taperPlan()

	// Three qualifying days ending today, then a gap.
	for _, date := range []string{"2025-01-08", "2025-01-09", "2025-01-10"} {
		_, err := s.Write(context.Background(), p, date, 5, "")
		assert.NoError(t, err)
	}
	streak, err := s.Streak(context.Background(), p)
	assert.NoError(t, err)
	assert.Equal(t, 3, streak)

	// Exceeding the target today kills the streak.
	_, err = s.Write(context.Background(), p, "2025-01-10", 99, "")
	assert.NoError(t, err)
	streak, err = s.Streak(context.Background(), p)
	assert.NoError(t, err)
	assert.Equal(t, 0, streak)
}

func TestSummarize(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-03")
	p := taperPlan()

	_, err := s.Write(context.Background(), p, "2025-01-01", 12, "")
	assert.NoError(t, err)
	_, err = s.Write(context.Background(), p, "2025-01-02", 10, "")
	assert.NoError(t, err)

	sum, err := s.Summarize(context.Background(), p)
	assert.NoError(t, err)
	assert.Equal(t, 3, sum.ElapsedDays)
	assert.Equal(t, 2, sum.ReportedDays)
	assert.Equal(t, 18, sum.TotalAvoided)
	assert.Equal(t, 22500.0, sum.TotalMoneySaved)
	assert.InDelta(t, 45.0, sum.AvgHealthScore, 0.01)
}

func TestBuildRequiresPlan(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestService(repo, "2025-01-03")
	_, err := s.Build(context.Background(), nil)
	assert.ErrorIs(t, err, internal.ErrNoActivePlan)
}
