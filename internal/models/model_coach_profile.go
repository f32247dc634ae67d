package models

import (
	"time"

	"github.com/tiyeni/coachpay/pkg/types"
)

// CoachProfile mirrors the identity record for payment purposes. Roles and
// authentication live with the identity provider; what matters here is the
// per-coach PayChangu credential used for multi-tenant course checkout.
type CoachProfile struct {
	ID    string     `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Email string     `gorm:"column:email;type:varchar(255);not null" json:"email"`
	Role  types.Role `gorm:"column:role;type:varchar(32);not null" json:"role"`
	// PaychanguEnabled gates whether clients can pay this coach at all.
	PaychanguEnabled bool `gorm:"column:paychangu_enabled;not null;default:false" json:"paychangu_enabled"`
	// PaychanguSecret is the coach's own gateway credential. Payments for a
	// coach's courses settle into the coach's gateway account, never the
	// platform's.
	PaychanguSecret string    `gorm:"column:paychangu_secret;type:varchar(255)" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (CoachProfile) TableName() string {
	return "coach_profile"
}

func (p *CoachProfile) IntegrationReady() bool {
	return p != nil && p.PaychanguEnabled && p.PaychanguSecret != ""
}
