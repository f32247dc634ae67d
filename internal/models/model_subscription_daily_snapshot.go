package models

import (
	"time"

	"github.com/tiyeni/coachpay/pkg/types"
)

// SubscriptionDailySnapshot is a per-day, per-tier rollup written by the
// expiry sweep and read by the statistics service.
type SubscriptionDailySnapshot struct {
	ID           string                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SnapshotDate string                 `gorm:"column:snapshot_date;type:varchar(10);not null;uniqueIndex:idx_snapshot_date_tier,priority:1" json:"snapshot_date"`
	Tier         types.SubscriptionTier `gorm:"column:tier;type:varchar(32);not null;uniqueIndex:idx_snapshot_date_tier,priority:2" json:"tier"`
	ActiveCount  int64                  `gorm:"column:active_count;type:bigint;not null" json:"active_count"`
	TrialCount   int64                  `gorm:"column:trial_count;type:bigint;not null" json:"trial_count"`
	// PaidAmount is the sum of billing rows settled on the snapshot day.
	PaidAmount int64     `gorm:"column:paid_amount;type:bigint;not null" json:"paid_amount"`
	Currency   string    `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (SubscriptionDailySnapshot) TableName() string {
	return "subscription_daily_snapshot"
}
