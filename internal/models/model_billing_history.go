package models

import (
	"time"

	"github.com/tiyeni/coachpay/pkg/types"
)

const MaxPaymentRetries = 3

// BillingHistory is the append-mostly payment ledger. A row is created in
// pending status before the gateway is called, so a failed external call
// still leaves an auditable row. Rows are immutable once paid.
type BillingHistory struct {
	ID             string              `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string              `gorm:"column:subscription_id;type:uuid;not null;index:idx_billing_sub_id" json:"subscription_id"`
	CoachID        string              `gorm:"column:coach_id;type:varchar(64);not null;index" json:"coach_id"`
	Amount         int64               `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency       string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status         types.BillingStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// PaychanguReference is the tx_ref sent to the gateway; regenerated on
	// every retry, so only the latest attempt's reference is stored.
	PaychanguReference string     `gorm:"column:paychangu_reference;type:varchar(128);not null;uniqueIndex" json:"paychangu_reference"`
	RetryCount         int        `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	LastRetryAt        *time.Time `gorm:"column:last_retry_at;default:null" json:"last_retry_at"`
	PeriodStart        *time.Time `gorm:"column:billing_period_start;default:null" json:"billing_period_start"`
	PeriodEnd          *time.Time `gorm:"column:billing_period_end;default:null" json:"billing_period_end"`
	PaidAt             *time.Time `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (BillingHistory) TableName() string {
	return "billing_history"
}

// Retryable reports whether another payment attempt may be made.
func (b *BillingHistory) Retryable() bool {
	return b != nil && b.Status != types.BillingStatusPaid && b.RetryCount < MaxPaymentRetries
}
