package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tiyeni/coachpay/pkg/types"
)

// SubscriptionNotification is an append-only queue row for downstream
// email/in-app delivery. Delivery itself is out of scope; SentAt stays nil
// until a consumer picks the row up.
type SubscriptionNotification struct {
	ID             string                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string                 `gorm:"column:subscription_id;type:uuid;not null;index:idx_notif_sub_id" json:"subscription_id"`
	CoachID        string                 `gorm:"column:coach_id;type:varchar(64);not null;index" json:"coach_id"`
	Type           types.NotificationType `gorm:"column:notification_type;type:varchar(64);not null" json:"notification_type"`
	Metadata       datatypes.JSONMap      `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	SentAt         *time.Time             `gorm:"column:sent_at;default:null" json:"sent_at"`
	CreatedAt      time.Time              `json:"created_at"`
}

func (SubscriptionNotification) TableName() string {
	return "subscription_notification"
}
