package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourname/quittracker/internal"
)

// AwardRecord is the persisted form of one (user, achievement) award.
type AwardRecord struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	AwardedAt     time.Time `json:"awarded_at"`
}

// FileStorage keeps everything in memory and persists to JSON files through
// debounced background workers, one per file. Writes signal the worker and
// return immediately; Close flushes synchronously.
type FileStorage struct {
	plans   map[string]*internal.QuitPlan                 // planID -> plan
	entries map[string]map[string]*internal.ProgressEntry // userID|planID -> date -> entry
	awards  map[string]map[string]AwardRecord             // userID -> achievementID -> record

	mu sync.RWMutex

	plansFile   string
	entriesFile string
	awardsFile  string

	savePlansChan   chan struct{}
	saveEntriesChan chan struct{}
	saveAwardsChan  chan struct{}
	shutdownChan    chan struct{}
	saveDelay       time.Duration
	logger          internal.Logger
}

func NewFileStorage(plansFile, entriesFile, awardsFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		plans:           make(map[string]*internal.QuitPlan),
		entries:         make(map[string]map[string]*internal.ProgressEntry),
		awards:          make(map[string]map[string]AwardRecord),
		plansFile:       plansFile,
		entriesFile:     entriesFile,
		awardsFile:      awardsFile,
		savePlansChan:   make(chan struct{}, 1),
		saveEntriesChan: make(chan struct{}, 1),
		saveAwardsChan:  make(chan struct{}, 1),
		shutdownChan:    make(chan struct{}),
		saveDelay:       500 * time.Millisecond,
		logger:          logger,
	}

	if err := s.loadPlans(); err != nil {
		logger.Errorf("storage: failed to load plans: %v", err)
		return nil, err
	}
	if err := s.loadEntries(); err != nil {
		logger.Errorf("storage: failed to load entries: %v", err)
		return nil, err
	}
	if err := s.loadAwards(); err != nil {
		logger.Errorf("storage: failed to load awards: %v", err)
		return nil, err
	}

	go s.saveWorker(s.savePlansChan, s.savePlans, "plans")
	go s.saveWorker(s.saveEntriesChan, s.saveEntries, "entries")
	go s.saveWorker(s.saveAwardsChan, s.saveAwards, "awards")

	return s, nil
}

func entryKey(userID, planID string) string {
	return userID + "|" + planID
}

func decodeJSONFile(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadPlans() error {
	var plans []*internal.QuitPlan
	if err := decodeJSONFile(s.plansFile, &plans); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	return nil
}

func (s *FileStorage) loadEntries() error {
	var entries []*internal.ProgressEntry
	if err := decodeJSONFile(s.entriesFile, &entries); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		k := entryKey(e.UserID, e.PlanID)
		if s.entries[k] == nil {
			s.entries[k] = make(map[string]*internal.ProgressEntry)
		}
		s.entries[k][e.Date] = e
	}
	return nil
}

func (s *FileStorage) loadAwards() error {
	var records []AwardRecord
	if err := decodeJSONFile(s.awardsFile, &records); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if s.awards[r.UserID] == nil {
			s.awards[r.UserID] = make(map[string]AwardRecord)
		}
		s.awards[r.UserID][r.AchievementID] = r
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) savePlans() error {
	s.mu.RLock()
	plans := make([]*internal.QuitPlan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, p)
	}
	s.mu.RUnlock()
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	return atomicWriteFileJSON(s.plansFile, plans)
}

func (s *FileStorage) saveEntries() error {
	s.mu.RLock()
	entries := make([]*internal.ProgressEntry, 0)
	for _, byDate := range s.entries {
		for _, e := range byDate {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return atomicWriteFileJSON(s.entriesFile, entries)
}

func (s *FileStorage) saveAwards() error {
	s.mu.RLock()
	records := make([]AwardRecord, 0)
	for _, byID := range s.awards {
		for _, r := range byID {
			records = append(records, r)
		}
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.awardsFile, records)
}

func (s *FileStorage) saveWorker(signal chan struct{}, save func() error, name string) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", name, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func signalSave(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Close stops the workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)
	if err := s.savePlans(); err != nil {
		return err
	}
	if err := s.saveEntries(); err != nil {
		return err
	}
	return s.saveAwards()
}

// --- PlanRepository ---

func (s *FileStorage) SavePlan(ctx context.Context, p *internal.QuitPlan) error {
	s.mu.Lock()
	if p.Active {
		for _, other := range s.plans {
			if other.UserID == p.UserID && other.ID != p.ID {
				other.Active = false
			}
		}
	}
	cp := *p
	s.plans[p.ID] = &cp
	s.mu.Unlock()
	signalSave(s.savePlansChan)
	return nil
}

func (s *FileStorage) GetPlan(ctx context.Context, userID, planID string) (*internal.QuitPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok || p.UserID != userID {
		return nil, internal.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *FileStorage) ListPlans(ctx context.Context, userID string) ([]internal.QuitPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plans []internal.QuitPlan
	for _, p := range s.plans {
		if p.UserID == userID {
			plans = append(plans, *p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	return plans, nil
}

func (s *FileStorage) GetActivePlan(ctx context.Context, userID string) (*internal.QuitPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.UserID == userID && p.Active {
			cp := *p
			return &cp, nil
		}
	}
	return nil, internal.ErrNoActivePlan
}

func (s *FileStorage) SetActivePlan(ctx context.Context, userID, planID string) error {
	s.mu.Lock()
	target, ok := s.plans[planID]
	if !ok || target.UserID != userID {
		s.mu.Unlock()
		return internal.ErrPlanNotFound
	}
	for _, p := range s.plans {
		if p.UserID == userID {
			p.Active = p.ID == planID
		}
	}
	s.mu.Unlock()
	signalSave(s.savePlansChan)
	return nil
}

// --- EntryRepository ---

func (s *FileStorage) ListEntries(ctx context.Context, userID, planID string) ([]internal.ProgressEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDate, ok := s.entries[entryKey(userID, planID)]
	if !ok {
		return []internal.ProgressEntry{}, nil
	}
	entries := make([]internal.ProgressEntry, 0, len(byDate))
	for _, e := range byDate {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

func (s *FileStorage) GetEntry(ctx context.Context, userID, planID, date string) (*internal.ProgressEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDate, ok := s.entries[entryKey(userID, planID)]
	if !ok {
		return nil, internal.ErrRecordNotFound
	}
	e, ok := byDate[date]
	if !ok {
		return nil, internal.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *FileStorage) CreateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	s.mu.Lock()
	k := entryKey(e.UserID, e.PlanID)
	if s.entries[k] == nil {
		s.entries[k] = make(map[string]*internal.ProgressEntry)
	}
	cp := *e
	s.entries[k][e.Date] = &cp
	s.mu.Unlock()
	signalSave(s.saveEntriesChan)
	return nil
}

func (s *FileStorage) UpdateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	s.mu.Lock()
	byDate, ok := s.entries[entryKey(e.UserID, e.PlanID)]
	if !ok {
		s.mu.Unlock()
		return internal.ErrRecordNotFound
	}
	if _, ok := byDate[e.Date]; !ok {
		s.mu.Unlock()
		return internal.ErrRecordNotFound
	}
	cp := *e
	byDate[e.Date] = &cp
	s.mu.Unlock()
	signalSave(s.saveEntriesChan)
	return nil
}

func (s *FileStorage) DeleteEntry(ctx context.Context, userID, planID, date string) error {
	s.mu.Lock()
	if byDate, ok := s.entries[entryKey(userID, planID)]; ok {
		delete(byDate, date)
	}
	s.mu.Unlock()
	signalSave(s.saveEntriesChan)
	return nil
}

// --- AchievementRepository ---

func (s *FileStorage) ListAwarded(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID, ok := s.awards[userID]
	if !ok {
		return []string{}, nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStorage) Award(ctx context.Context, userID, achievementID string) error {
	s.mu.Lock()
	if s.awards[userID] == nil {
		s.awards[userID] = make(map[string]AwardRecord)
	}
	if _, ok := s.awards[userID][achievementID]; !ok {
		s.awards[userID][achievementID] = AwardRecord{
			UserID:        userID,
			AchievementID: achievementID,
			AwardedAt:     time.Now(),
		}
	}
	s.mu.Unlock()
	signalSave(s.saveAwardsChan)
	return nil
}

// --- Compile-time assertions ---
var _ PlanRepository = (*FileStorage)(nil)
var _ EntryRepository = (*FileStorage)(nil)
var _ AchievementRepository = (*FileStorage)(nil)
