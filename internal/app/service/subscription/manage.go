package subscription

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/pkg/logctx"
	"github.com/tiyeni/coachpay/pkg/tool"
	"github.com/tiyeni/coachpay/pkg/types"
)

const (
	EffectiveImmediate   = "immediate"
	EffectiveEndOfPeriod = "end_of_period"
)

// ManageRequest is the tagged request for a single management action. Which
// fields are required depends on Action; Validate enforces that before any
// state is touched.
type ManageRequest struct {
	Action             types.SubscriptionChangeType `json:"action"`
	NewTier            types.SubscriptionTier       `json:"new_tier,omitempty"`
	NewCycle           types.BillingCycle           `json:"new_billing_cycle,omitempty"`
	CancellationReason string                       `json:"cancellation_reason,omitempty"`
	EffectiveDate      string                       `json:"effective_date,omitempty"`
}

func (r *ManageRequest) Validate() error {
	switch r.Action {
	case types.SubscriptionChangeTypeUpgrade, types.SubscriptionChangeTypeDowngrade:
		if !r.NewTier.Valid() {
			return fmt.Errorf("%w: invalid tier %q", ErrPlanNotFound, r.NewTier)
		}
		if !r.NewCycle.Valid() {
			return fmt.Errorf("%w: invalid billing cycle %q", ErrPlanNotFound, r.NewCycle)
		}
	case types.SubscriptionChangeTypeCancel:
		if r.EffectiveDate != EffectiveImmediate && r.EffectiveDate != EffectiveEndOfPeriod {
			return ErrInvalidEffectiveDate
		}
	case types.SubscriptionChangeTypeReactivate:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, r.Action)
	}
	return nil
}

type ManageResult struct {
	Success        bool                   `json:"success"`
	Message        string                 `json:"message"`
	ProratedAmount int64                  `json:"prorated_amount"`
	NewTier        types.SubscriptionTier `json:"new_tier,omitempty"`
	NewPrice       int64                  `json:"new_price,omitempty"`
	EffectiveDate  time.Time              `json:"effective_date"`
}

// Manage applies one state-transition action to the coach's current
// subscription. The row update, the change-log insert and the notification
// insert commit atomically; a failed action leaves no partial audit trail.
func (s *Service) Manage(ctx context.Context, coachID string, req *ManageRequest) (*ManageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.GetCurrent(ctx, coachID)
	if err != nil {
		return nil, err
	}

	var res *ManageResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch req.Action {
		case types.SubscriptionChangeTypeUpgrade, types.SubscriptionChangeTypeDowngrade:
			res, err = s.applyTierChange(tx, sub, req)
		case types.SubscriptionChangeTypeCancel:
			res, err = s.applyCancel(tx, sub, req)
		case types.SubscriptionChangeTypeReactivate:
			res, err = s.applyReactivate(tx, sub)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_managed",
		"coach_id", coachID, "subscription_id", sub.ID, "action", req.Action)
	return res, nil
}

func (s *Service) applyTierChange(tx *gorm.DB, sub *models.Subscription, req *ManageRequest) (*ManageResult, error) {
	plan := s.cfg.GetPlan(req.NewTier, req.NewCycle)
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	now := time.Now()
	change, notif, prorated := tierChangeTransition(sub, plan, req.Action, now)
	if err := persistTransition(tx, sub, change, notif); err != nil {
		return nil, err
	}

	return &ManageResult{
		Success:        true,
		Message:        fmt.Sprintf("Subscription changed to %s/%s", sub.Tier, sub.Cycle),
		ProratedAmount: prorated,
		NewTier:        sub.Tier,
		NewPrice:       sub.Price,
		EffectiveDate:  now,
	}, nil
}

func (s *Service) applyCancel(tx *gorm.DB, sub *models.Subscription, req *ManageRequest) (*ManageResult, error) {
	now := time.Now()
	change, notif, cancelDate := cancelTransition(sub, req, now)
	if err := persistTransition(tx, sub, change, notif); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Subscription canceled effective %s", cancelDate.Format("2006-01-02"))
	if req.EffectiveDate == EffectiveImmediate {
		msg = "Subscription canceled immediately"
	}
	return &ManageResult{Success: true, Message: msg, EffectiveDate: cancelDate}, nil
}

func (s *Service) applyReactivate(tx *gorm.DB, sub *models.Subscription) (*ManageResult, error) {
	now := time.Now()
	change, notif, err := reactivateTransition(sub, now)
	if err != nil {
		return nil, err
	}
	if err := persistTransition(tx, sub, change, notif); err != nil {
		return nil, err
	}

	return &ManageResult{Success: true, Message: "Subscription reactivated", EffectiveDate: now}, nil
}

// tierChangeTransition moves the subscription onto the new plan. Trial rows
// keep trial status and prorate nothing; payment is only collected when the
// trial converts.
func tierChangeTransition(sub *models.Subscription, plan *types.Plan, action types.SubscriptionChangeType, now time.Time) (*models.SubscriptionChange, *models.SubscriptionNotification, int64) {
	var prorated int64
	if !sub.IsTrial {
		prorated = Prorate(sub.Price, plan.Price, sub.ExpiresAt, now, sub.Cycle.Days())
	}

	fromTier, fromPrice := sub.Tier, sub.Price
	sub.Tier = plan.Tier
	sub.Cycle = plan.Cycle
	sub.Price = plan.Price
	sub.Currency = plan.Currency
	if !sub.IsTrial {
		sub.Status = types.SubscriptionStatusActive
	}

	change := &models.SubscriptionChange{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		CoachID:        sub.CoachID,
		ChangeType:     action,
		FromTier:       fromTier,
		ToTier:         sub.Tier,
		FromPrice:      fromPrice,
		ToPrice:        sub.Price,
		ProratedAmount: prorated,
		EffectiveDate:  now,
		Metadata:       datatypes.JSONMap{"billing_cycle": string(sub.Cycle)},
	}
	notif := newNotification(sub, types.NotificationTypeSubscriptionChanged, datatypes.JSONMap{
		"from_tier": string(fromTier), "to_tier": string(sub.Tier),
	})
	return change, notif, prorated
}

// cancelTransition turns auto-renew off and either deactivates now or leaves
// the row active until the expiry sweep retires it at period end.
func cancelTransition(sub *models.Subscription, req *ManageRequest, now time.Time) (*models.SubscriptionChange, *models.SubscriptionNotification, time.Time) {
	cancelDate := now
	if req.EffectiveDate == EffectiveEndOfPeriod && sub.ExpiresAt != nil {
		cancelDate = *sub.ExpiresAt
	}

	sub.AutoRenew = false
	sub.CanceledAt = &now
	if req.CancellationReason != "" {
		reason := req.CancellationReason
		sub.CancellationReason = &reason
	}
	if req.EffectiveDate == EffectiveImmediate {
		sub.Status = types.SubscriptionStatusInactive
	}

	change := &models.SubscriptionChange{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		CoachID:        sub.CoachID,
		ChangeType:     types.SubscriptionChangeTypeCancel,
		FromTier:       sub.Tier,
		ToTier:         sub.Tier,
		FromPrice:      sub.Price,
		ToPrice:        sub.Price,
		EffectiveDate:  cancelDate,
		Metadata:       datatypes.JSONMap{"effective": req.EffectiveDate, "reason": req.CancellationReason},
	}
	notif := newNotification(sub, types.NotificationTypeSubscriptionCanceled, datatypes.JSONMap{
		"effective_date": cancelDate.Format(time.RFC3339),
	})
	return change, notif, cancelDate
}

// reactivateTransition undoes a pending cancellation. Only rows canceled but
// still inside their paid period qualify.
func reactivateTransition(sub *models.Subscription, now time.Time) (*models.SubscriptionChange, *models.SubscriptionNotification, error) {
	if !sub.Canceled() {
		return nil, nil, ErrNotCanceled
	}

	sub.Status = types.SubscriptionStatusActive
	sub.AutoRenew = true
	sub.CanceledAt = nil
	sub.CancellationReason = nil

	change := &models.SubscriptionChange{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		CoachID:        sub.CoachID,
		ChangeType:     types.SubscriptionChangeTypeReactivate,
		FromTier:       sub.Tier,
		ToTier:         sub.Tier,
		FromPrice:      sub.Price,
		ToPrice:        sub.Price,
		EffectiveDate:  now,
		Metadata:       datatypes.JSONMap{},
	}
	notif := newNotification(sub, types.NotificationTypeSubscriptionRenewed, datatypes.JSONMap{})
	return change, notif, nil
}

// persistTransition writes the updated row plus its single change-log row and
// single notification inside the caller's transaction.
func persistTransition(tx *gorm.DB, sub *models.Subscription, change *models.SubscriptionChange, notif *models.SubscriptionNotification) error {
	if err := tx.Save(sub).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if err := tx.Create(change).Error; err != nil {
		return fmt.Errorf("failed to record subscription change: %w", err)
	}
	if err := tx.Create(notif).Error; err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}

func newNotification(sub *models.Subscription, t types.NotificationType, meta datatypes.JSONMap) *models.SubscriptionNotification {
	return &models.SubscriptionNotification{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		CoachID:        sub.CoachID,
		Type:           t,
		Metadata:       meta,
	}
}

// Prorate computes the tier-change adjustment:
// (newPrice - oldPrice) * daysRemaining / totalCycleDays, with daysRemaining
// the ceiling of the time left until expiry. Negative results are downgrade
// credits. No expiry means nothing remains to prorate.
func Prorate(oldPrice, newPrice int64, expiresAt *time.Time, now time.Time, cycleDays int) int64 {
	if expiresAt == nil || cycleDays <= 0 {
		return 0
	}
	days := int64(math.Ceil(expiresAt.Sub(now).Hours() / 24))
	if days <= 0 {
		return 0
	}
	return (newPrice - oldPrice) * days / int64(cycleDays)
}
