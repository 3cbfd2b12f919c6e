package cache

import (
	"sync"

	"github.com/yourname/quittracker/internal"
)

// LocalCache holds unsynced check-in drafts between page loads. It is
// best-effort and never authoritative: a draft survives a failed store
// write so the user's input is not lost, and is dropped the moment an
// authoritative write for the same date succeeds. Keys are scoped by
// (planID, date) so drafts never leak across plans.
type LocalCache interface {
	Get(planID, date string) (*internal.ProgressEntry, bool)
	Set(planID, date string, e *internal.ProgressEntry)
	Remove(planID, date string)
}

type MemoryCache struct {
	mu     sync.RWMutex
	drafts map[string]*internal.ProgressEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{drafts: make(map[string]*internal.ProgressEntry)}
}

func key(planID, date string) string {
	return planID + "|" + date
}

func (c *MemoryCache) Get(planID, date string) (*internal.ProgressEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.drafts[key(planID, date)]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

func (c *MemoryCache) Set(planID, date string, e *internal.ProgressEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *e
	c.drafts[key(planID, date)] = &cp
}

func (c *MemoryCache) Remove(planID, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, key(planID, date))
}

var _ LocalCache = (*MemoryCache)(nil)
