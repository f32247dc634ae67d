package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tiyeni/coachpay/pkg/types"
)

// Subscription is one coach's platform subscription. Rows are never hard
// deleted: cancellation and expiry are status flips, so a coach accumulates
// rows over time but at most one may be in a billable status. The partial
// unique index enforces that invariant at the storage layer instead of
// relying on query-side limit(1).
type Subscription struct {
	ID       string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	CoachID  string                   `gorm:"column:coach_id;type:varchar(64);not null;index:idx_sub_coach_billable,unique,where:status = 'trial' OR status = 'active'" json:"coach_id"`
	Tier     types.SubscriptionTier   `gorm:"column:tier;type:varchar(32);not null" json:"tier"`
	Cycle    types.BillingCycle       `gorm:"column:billing_cycle;type:varchar(32);not null" json:"billing_cycle"`
	Price    int64                    `gorm:"column:price;type:bigint;not null" json:"price"`
	Currency string                   `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status   types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	IsTrial  bool                     `gorm:"column:is_trial;not null;default:false" json:"is_trial"`
	// TrialEndsAt is set only while IsTrial is true.
	TrialEndsAt        *time.Time `gorm:"column:trial_ends_at;default:null" json:"trial_ends_at"`
	AutoRenew          bool       `gorm:"column:auto_renew;not null;default:true" json:"auto_renew"`
	CanceledAt         *time.Time `gorm:"column:canceled_at;default:null" json:"canceled_at"`
	CancellationReason *string    `gorm:"column:cancellation_reason;type:varchar(255);default:null" json:"cancellation_reason"`
	ExpiresAt          *time.Time `gorm:"column:expires_at;default:null" json:"expires_at"`
	NextBillingDate    *time.Time `gorm:"column:next_billing_date;default:null" json:"next_billing_date"`
	// PaychanguReference points at the most recent gateway transaction for
	// this subscription. Settlement correlates through the billing ledger
	// first; this pointer is the fallback.
	PaychanguReference *string `gorm:"column:paychangu_subscription_id;type:varchar(128);default:null;index" json:"paychangu_subscription_id"`
	// Extra stores additional JSON data (promotion details, migration notes).
	Extra     datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// Billable reports whether this row is the coach's live subscription.
func (s *Subscription) Billable() bool {
	return s != nil && s.Status.Billable()
}

// Canceled reports whether the subscription was canceled but has not yet
// reached its natural expiry, the only state reactivation accepts.
func (s *Subscription) Canceled() bool {
	return s != nil && s.CanceledAt != nil && !s.AutoRenew &&
		(s.ExpiresAt == nil || s.ExpiresAt.After(time.Now()))
}
