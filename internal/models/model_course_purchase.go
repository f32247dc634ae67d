package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tiyeni/coachpay/pkg/types"
)

// CoursePurchase records a client's one-off payment for a coach's course or
// bundle. These settle through the coach's own PayChangu account, not the
// platform's.
type CoursePurchase struct {
	ID                 string              `gorm:"column:id;type:uuid;primary_key" json:"id"`
	CourseID           string              `gorm:"column:course_id;type:varchar(64);not null;index" json:"course_id"`
	CoachID            string              `gorm:"column:coach_id;type:varchar(64);not null;index" json:"coach_id"`
	ClientID           string              `gorm:"column:client_id;type:varchar(64);not null;index" json:"client_id"`
	Amount             int64               `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency           string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status             types.BillingStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	PaychanguReference string              `gorm:"column:paychangu_reference;type:varchar(128);not null;uniqueIndex" json:"paychangu_reference"`
	PaidAt             *time.Time          `gorm:"column:paid_at;default:null" json:"paid_at"`
	Extra              datatypes.JSONMap   `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (CoursePurchase) TableName() string {
	return "course_purchase"
}
