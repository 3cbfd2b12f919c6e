package service

import (
	"context"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/ledger"
)

type CheckinRequest struct {
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	ActualCigarettes *int   `json:"actual_cigarettes" validate:"required,gte=0"`
	Notes            string `json:"notes" validate:"omitempty,max=1000"`
}

func ValidateCheckinRequest(req *CheckinRequest) error {
	return validate.Struct(req)
}

// SubmitCheckin writes a day's report through the ledger. On a store
// failure the ledger has already kept the input as a local draft; the
// caller gets both the draft entry and the error so the UI can show a
// retry affordance without losing data.
func SubmitCheckin(ctx context.Context, l *ledger.Service, p *internal.QuitPlan, req *CheckinRequest) (*internal.ProgressEntry, error) {
	return l.Write(ctx, p, req.Date, *req.ActualCigarettes, req.Notes)
}
