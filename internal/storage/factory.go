package storage

import (
	"fmt"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/config"
)

// Repositories bundles the three repository facets plus the Close hook of
// whichever backend is behind them.
type Repositories struct {
	Plans   PlanRepository
	Entries EntryRepository
	Awards  AchievementRepository
	Close   func() error
}

// FromConfig builds the backend selected by STORAGE_BACKEND.
func FromConfig(cfg *config.Config, logger internal.Logger) (*Repositories, error) {
	switch cfg.StorageBackend {
	case "file":
		s, err := NewFileStorage(cfg.PlansFile, cfg.EntriesFile, cfg.AwardsFile, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{Plans: s, Entries: s, Awards: s, Close: s.Close}, nil
	case "postgres":
		s, err := NewPostgresStorage(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{Plans: s, Entries: s, Awards: s, Close: s.Close}, nil
	case "sqlite":
		s, err := NewSQLiteStorage(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{Plans: s, Entries: s, Awards: s, Close: s.Close}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
