package handlers

import (
	"time"

	"github.com/tiyeni/coachpay/pkg/response"
	"github.com/tiyeni/coachpay/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// SwaggerSubscription is a simplified view of models.Subscription for
// documentation purposes.
type SwaggerSubscription struct {
	ID              string                   `json:"id"`
	CoachID         string                   `json:"coach_id"`
	Tier            types.SubscriptionTier   `json:"tier"`
	Cycle           types.BillingCycle       `json:"billing_cycle"`
	Price           int64                    `json:"price"`
	Status          types.SubscriptionStatus `json:"status"`
	IsTrial         bool                     `json:"is_trial"`
	AutoRenew       bool                     `json:"auto_renew"`
	ExpiresAt       *time.Time               `json:"expires_at"`
	NextBillingDate *time.Time               `json:"next_billing_date"`
	CreatedAt       time.Time                `json:"created_at"`
}

// SwaggerBillingEntry is a simplified view of models.BillingHistory for
// documentation purposes.
type SwaggerBillingEntry struct {
	ID                 string              `json:"id"`
	SubscriptionID     string              `json:"subscription_id"`
	Amount             int64               `json:"amount"`
	Currency           string              `json:"currency"`
	Status             types.BillingStatus `json:"status"`
	PaychanguReference string              `json:"paychangu_reference"`
	RetryCount         int                 `json:"retry_count"`
	CreatedAt          time.Time           `json:"created_at"`
}
