package internal

import "errors"

// Sentinel errors for conditions the service layer recovers from or maps to
// specific API responses. Store implementations must return ErrRecordNotFound
// (possibly wrapped) so the ledger's update-to-create fallback can trigger.
var (
	ErrNoActivePlan     = errors.New("no active plan")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrRecordNotFound   = errors.New("record not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// AppError is the error payload embedded in API responses.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}
