package subscription

import "errors"

var (
	ErrNoActiveSubscription = errors.New("no active subscription found")
	ErrAlreadySubscribed    = errors.New("coach already has an active subscription")
	ErrPlanNotFound         = errors.New("no plan for the requested tier and billing cycle")
	ErrInvalidAction        = errors.New("unsupported subscription action")
	ErrNotCanceled          = errors.New("subscription was not canceled")
	ErrInvalidEffectiveDate = errors.New("effective date must be immediate or end_of_period")
)
