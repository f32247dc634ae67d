package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tiyeni/coachpay/pkg/types"
)

// SubscriptionChange is the append-only audit trail: exactly one row per
// successful management action.
type SubscriptionChange struct {
	ID             string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string                       `gorm:"column:subscription_id;type:uuid;not null;index:idx_change_sub_id" json:"subscription_id"`
	CoachID        string                       `gorm:"column:coach_id;type:varchar(64);not null;index" json:"coach_id"`
	ChangeType     types.SubscriptionChangeType `gorm:"column:change_type;type:varchar(32);not null" json:"change_type"`
	FromTier       types.SubscriptionTier       `gorm:"column:from_tier;type:varchar(32)" json:"from_tier"`
	ToTier         types.SubscriptionTier       `gorm:"column:to_tier;type:varchar(32)" json:"to_tier"`
	FromPrice      int64                        `gorm:"column:from_price;type:bigint" json:"from_price"`
	ToPrice        int64                        `gorm:"column:to_price;type:bigint" json:"to_price"`
	// ProratedAmount is negative for downgrade credits.
	ProratedAmount int64             `gorm:"column:prorated_amount;type:bigint" json:"prorated_amount"`
	EffectiveDate  time.Time         `gorm:"column:effective_date;not null" json:"effective_date"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (SubscriptionChange) TableName() string {
	return "subscription_change"
}
