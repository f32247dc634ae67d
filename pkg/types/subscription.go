package types

type SubscriptionStatus string

const (
	SubscriptionStatusTrial    SubscriptionStatus = "trial"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// Billable reports whether the status counts as a live subscription.
// At most one subscription per coach may be in a billable status.
func (s SubscriptionStatus) Billable() bool {
	return s == SubscriptionStatusTrial || s == SubscriptionStatusActive
}

type SubscriptionTier string

const (
	SubscriptionTierBasic      SubscriptionTier = "basic"
	SubscriptionTierPremium    SubscriptionTier = "premium"
	SubscriptionTierEnterprise SubscriptionTier = "enterprise"
)

func (t SubscriptionTier) Valid() bool {
	switch t {
	case SubscriptionTierBasic, SubscriptionTierPremium, SubscriptionTierEnterprise:
		return true
	}
	return false
}

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) Valid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}

// Days is the flat cycle length used for proration and expiry extension.
func (c BillingCycle) Days() int {
	if c == BillingCycleYearly {
		return 365
	}
	return 30
}

type SubscriptionChangeType string

const (
	SubscriptionChangeTypeUpgrade    SubscriptionChangeType = "upgrade"
	SubscriptionChangeTypeDowngrade  SubscriptionChangeType = "downgrade"
	SubscriptionChangeTypeCancel     SubscriptionChangeType = "cancel"
	SubscriptionChangeTypeReactivate SubscriptionChangeType = "reactivate"
)

type BillingStatus string

const (
	BillingStatusPending BillingStatus = "pending"
	BillingStatusPaid    BillingStatus = "paid"
	BillingStatusFailed  BillingStatus = "failed"
)

type NotificationType string

const (
	NotificationTypeSubscriptionChanged  NotificationType = "subscription_changed"
	NotificationTypeSubscriptionCanceled NotificationType = "subscription_canceled"
	NotificationTypeSubscriptionRenewed  NotificationType = "subscription_renewed"
	NotificationTypeSubscriptionExpired  NotificationType = "subscription_expired"
	NotificationTypeExpiryWarning        NotificationType = "expiry_warning"
	NotificationTypePaymentFailed        NotificationType = "payment_failed"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)
