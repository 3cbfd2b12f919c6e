package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/storage"
)

var validate = validator.New()

// PlanWeekRequest carries one week's allowance. Only amount is accepted on
// input; the legacy field spellings are a read-side concern.
type PlanWeekRequest struct {
	Amount int `json:"amount" validate:"gte=0"`
}

type PlanRequest struct {
	Name              string            `json:"name" validate:"omitempty,max=120"`
	StartDate         string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	Weeks             []PlanWeekRequest `json:"weeks" validate:"required,min=1,dive"`
	InitialCigarettes int               `json:"initial_cigarettes" validate:"required,gt=0"`
	PricePerCigarette float64           `json:"price_per_cigarette" validate:"omitempty,gt=0"`
	PackPrice         float64           `json:"pack_price" validate:"omitempty,gt=0"`
}

func ValidatePlanRequest(req *PlanRequest) error {
	return validate.Struct(req)
}

// CreatePlan stores a new plan version and makes it the user's active plan.
// Plans are never edited in place: a change is a new row plus a moved
// active marker, so historic ledgers stay reproducible.
func CreatePlan(ctx context.Context, plans storage.PlanRepository, user *internal.User, req *PlanRequest) (*internal.QuitPlan, error) {
	weeks := make([]internal.PlanWeek, len(req.Weeks))
	for i, w := range req.Weeks {
		amount := w.Amount
		weeks[i] = internal.PlanWeek{Amount: &amount}
	}
	p := &internal.QuitPlan{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		Name:              req.Name,
		StartDate:         req.StartDate,
		Weeks:             weeks,
		InitialCigarettes: req.InitialCigarettes,
		PricePerCigarette: req.PricePerCigarette,
		PackPrice:         req.PackPrice,
		Active:            true,
		CreatedAt:         time.Now(),
	}
	if err := plans.SavePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
