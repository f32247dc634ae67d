package payment

import "errors"

var (
	ErrNotOwner           = errors.New("billing entry does not belong to caller")
	ErrAlreadyPaid        = errors.New("Payment already completed")
	ErrRetryLimitExceeded = errors.New("Maximum retry attempts exceeded")
	ErrIntegrationOff     = errors.New("Coach PayChangu integration not enabled")
	ErrBillingNotFound    = errors.New("billing entry not found")
)
