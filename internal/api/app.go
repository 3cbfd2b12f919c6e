package api

import (
	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/achievement"
	"github.com/yourname/quittracker/internal/ledger"
	"github.com/yourname/quittracker/internal/storage"
)

// App is the wiring surface handlers pull their collaborators from.
type App interface {
	Logger() internal.Logger
	Plans() storage.PlanRepository
	Ledger() *ledger.Service
	Achievements() *achievement.Engine
}
