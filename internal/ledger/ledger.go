package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/cache"
	"github.com/yourname/quittracker/internal/plan"
	"github.com/yourname/quittracker/internal/storage"
)

// DefaultPageSize is one week per page; the plan's first day lands on page 1.
const DefaultPageSize = 7

// Service materializes a plan's day-indexed ledger: authoritative entries
// merged with local drafts and resolver-synthesized placeholders into one
// ordered, gap-free sequence, plus the write/delete operations against it.
type Service struct {
	entries storage.EntryRepository
	drafts  cache.LocalCache
	logger  internal.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(entries storage.EntryRepository, drafts cache.LocalCache, logger internal.Logger) *Service {
	return &Service{
		entries: entries,
		drafts:  drafts,
		logger:  logger,
		Now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor serializes writes per (user, plan, date) so the create-vs-update
// decision reads provenance atomically with respect to its own write.
func (s *Service) lockFor(userID, planID, date string) *sync.Mutex {
	k := userID + "|" + planID + "|" + date
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[k]
	if !ok {
		m = &sync.Mutex{}
		s.locks[k] = m
	}
	return m
}

// Build returns the complete ledger for the plan: every calendar day from
// the start date to min(today, planEnd) inclusive, ascending, no gaps, no
// duplicate dates. Authoritative entries win over drafts, drafts over
// placeholders. Every row carries a resolver-computed target; derived
// fields missing on a reported row are backfilled in the result.
//
// A store read failure degrades to draft/placeholder data rather than
// failing the whole ledger; an unparsable start date yields an empty ledger
// since the range cannot be enumerated.
func (s *Service) Build(ctx context.Context, p *internal.QuitPlan) ([]internal.ProgressEntry, error) {
	if p == nil {
		return nil, internal.ErrNoActivePlan
	}
	start, err := time.Parse(internal.DateFormat, p.StartDate)
	if err != nil {
		s.logger.Warnf("ledger: plan %s has unparsable start date %q", p.ID, p.StartDate)
		return []internal.ProgressEntry{}, nil
	}

	stored, err := s.entries.ListEntries(ctx, p.UserID, p.ID)
	if err != nil {
		s.logger.Warnf("ledger: store read failed, serving drafts/placeholders only: %v", err)
		stored = nil
	}
	byDate := make(map[string]internal.ProgressEntry, len(stored))
	for _, e := range stored {
		e.Provenance = internal.ProvenanceAuthoritative
		byDate[e.Date] = e
	}

	end, _ := plan.PlanEnd(p)
	today := s.Now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if today.Before(end) {
		end = today
	}

	price := p.CigarettePrice()
	var out []internal.ProgressEntry
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		ds := day.Format(internal.DateFormat)
		if e, ok := byDate[ds]; ok {
			if e.Reported() && e.CigarettesAvoided == nil {
				plan.ApplyMetrics(&e, price)
			}
			out = append(out, e)
			continue
		}
		if d, ok := s.drafts.Get(p.ID, ds); ok {
			d.Provenance = internal.ProvenanceDraft
			d.TargetCigarettes = plan.ResolveTarget(p, day)
			if d.Reported() {
				plan.ApplyMetrics(d, price)
			}
			out = append(out, *d)
			continue
		}
		out = append(out, s.placeholder(p, day))
	}
	return out, nil
}

func (s *Service) placeholder(p *internal.QuitPlan, day time.Time) internal.ProgressEntry {
	return internal.ProgressEntry{
		UserID:            p.UserID,
		PlanID:            p.ID,
		Date:              day.Format(internal.DateFormat),
		TargetCigarettes:  plan.ResolveTarget(p, day),
		InitialCigarettes: p.InitialCigarettes,
		Provenance:        internal.ProvenancePlaceholder,
	}
}

// Page returns one fixed-size page of the ledger (1-based) and the total
// day count.
func (s *Service) Page(ctx context.Context, p *internal.QuitPlan, page, size int) ([]internal.ProgressEntry, int, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	all, err := s.Build(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	lo := (page - 1) * size
	if lo >= total {
		return []internal.ProgressEntry{}, total, nil
	}
	hi := lo + size
	if hi > total {
		hi = total
	}
	return all[lo:hi], total, nil
}

// Write upserts the report for one date. An existing authoritative record
// is updated; anything else (placeholder slot, draft, or a lost race) is a
// create. An update that comes back RecordNotFound retries as a create
// rather than failing. On store failure the entry is kept as a local draft
// and the error is returned, so no user input is lost.
func (s *Service) Write(ctx context.Context, p *internal.QuitPlan, date string, actual int, notes string) (*internal.ProgressEntry, error) {
	if p == nil {
		return nil, internal.ErrNoActivePlan
	}
	day, err := time.Parse(internal.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	l := s.lockFor(p.UserID, p.ID, date)
	l.Lock()
	defer l.Unlock()

	now := s.Now()
	entry := &internal.ProgressEntry{
		UserID:            p.UserID,
		PlanID:            p.ID,
		Date:              date,
		TargetCigarettes:  plan.ResolveTarget(p, day),
		ActualCigarettes:  &actual,
		InitialCigarettes: p.InitialCigarettes,
		Notes:             notes,
		Provenance:        internal.ProvenanceAuthoritative,
		UpdatedAt:         now,
	}
	plan.ApplyMetrics(entry, p.CigarettePrice())

	existing, err := s.entries.GetEntry(ctx, p.UserID, p.ID, date)
	switch {
	case err == nil:
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		err = s.entries.UpdateEntry(ctx, entry)
		if errors.Is(err, internal.ErrRecordNotFound) {
			// Record vanished between read and write; recover as a create.
			err = s.create(ctx, entry, now)
		}
	case errors.Is(err, internal.ErrRecordNotFound):
		err = s.create(ctx, entry, now)
	default:
		// Cannot even tell whether the record exists.
	}

	if err != nil {
		entry.Provenance = internal.ProvenanceDraft
		s.drafts.Set(p.ID, date, entry)
		s.logger.Warnf("ledger: write for %s failed, kept as draft: %v", date, err)
		return entry, fmt.Errorf("%w: %v", internal.ErrStoreUnavailable, err)
	}
	s.drafts.Remove(p.ID, date)
	return entry, nil
}

func (s *Service) create(ctx context.Context, e *internal.ProgressEntry, now time.Time) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = now
	return s.entries.CreateEntry(ctx, e)
}

// Delete clears the report for one date. A slot with no authoritative
// record only needs its draft dropped; a real record is removed from the
// store. Either way the slot reverts to a resolver-computed placeholder on
// the next Build, with its target recalculated, not zeroed.
func (s *Service) Delete(ctx context.Context, p *internal.QuitPlan, date string) error {
	if p == nil {
		return internal.ErrNoActivePlan
	}
	l := s.lockFor(p.UserID, p.ID, date)
	l.Lock()
	defer l.Unlock()

	s.drafts.Remove(p.ID, date)
	_, err := s.entries.GetEntry(ctx, p.UserID, p.ID, date)
	if errors.Is(err, internal.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", internal.ErrStoreUnavailable, err)
	}
	if err := s.entries.DeleteEntry(ctx, p.UserID, p.ID, date); err != nil {
		return fmt.Errorf("%w: %v", internal.ErrStoreUnavailable, err)
	}
	return nil
}

// Streak walks authoritative entries backward from today. Drafts and
// placeholders do not count as reports.
func (s *Service) Streak(ctx context.Context, p *internal.QuitPlan) (int, error) {
	if p == nil {
		return 0, nil
	}
	stored, err := s.entries.ListEntries(ctx, p.UserID, p.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", internal.ErrStoreUnavailable, err)
	}
	byDate := make(map[string]*internal.ProgressEntry, len(stored))
	for i := range stored {
		byDate[stored[i].Date] = &stored[i]
	}
	return plan.ComputeStreak(func(date string) *internal.ProgressEntry {
		return byDate[date]
	}, s.Now()), nil
}

// Summary is the cumulative progress over the plan so far.
type Summary struct {
	ElapsedDays     int     `json:"elapsed_days"`
	ReportedDays    int     `json:"reported_days"`
	TotalAvoided    int     `json:"total_avoided"`
	TotalMoneySaved float64 `json:"total_money_saved"`
	AvgHealthScore  float64 `json:"avg_health_score"`
}

// Summarize folds the ledger into the dashboard totals; these same numbers
// feed achievement evaluation.
func (s *Service) Summarize(ctx context.Context, p *internal.QuitPlan) (Summary, error) {
	entries, err := s.Build(ctx, p)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{ElapsedDays: plan.ElapsedDays(p, s.Now())}
	healthTotal := 0
	for i := range entries {
		e := &entries[i]
		if !e.Reported() {
			continue
		}
		sum.ReportedDays++
		if e.CigarettesAvoided != nil {
			sum.TotalAvoided += *e.CigarettesAvoided
		}
		if e.MoneySaved != nil {
			sum.TotalMoneySaved += *e.MoneySaved
		}
		if e.HealthScore != nil {
			healthTotal += *e.HealthScore
		}
	}
	if sum.ReportedDays > 0 {
		sum.AvgHealthScore = float64(healthTotal) / float64(sum.ReportedDays)
	}
	return sum, nil
}
