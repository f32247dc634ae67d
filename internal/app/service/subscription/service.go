package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/pkg/config"
	"github.com/tiyeni/coachpay/pkg/logctx"
	"github.com/tiyeni/coachpay/pkg/tool"
	"github.com/tiyeni/coachpay/pkg/types"
)

type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

// GetCurrent returns the coach's single billable subscription. The partial
// unique index guarantees at most one row matches.
func (s *Service) GetCurrent(ctx context.Context, coachID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("coach_id = ? AND status IN ?", coachID,
			[]types.SubscriptionStatus{types.SubscriptionStatusTrial, types.SubscriptionStatusActive}).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// GetPayable returns the subscription payment initiation should bill: the
// billable row when one exists, otherwise the coach's newest selected plan
// still awaiting its first payment.
func (s *Service) GetPayable(ctx context.Context, coachID string) (*models.Subscription, error) {
	var rows []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	sub := PickPayable(rows)
	if sub == nil {
		return nil, ErrNoActiveSubscription
	}
	return sub, nil
}

// PickPayable selects the billable row from a newest-first list, falling back
// to the newest inactive row that was never canceled: a selected plan whose
// first payment has not settled yet. Canceled and expired rows are never
// payable.
func PickPayable(rows []*models.Subscription) *models.Subscription {
	for _, sub := range rows {
		if sub.Billable() {
			return sub
		}
	}
	for _, sub := range rows {
		if sub.Status == types.SubscriptionStatusInactive && sub.CanceledAt == nil {
			return sub
		}
	}
	return nil
}

// StartTrial creates a trial subscription for a coach with no billable row.
func (s *Service) StartTrial(ctx context.Context, coachID string, tier types.SubscriptionTier, cycle types.BillingCycle) (*models.Subscription, error) {
	plan := s.cfg.GetPlan(tier, cycle)
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if _, err := s.GetCurrent(ctx, coachID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrNoActiveSubscription) {
		return nil, err
	}

	now := time.Now()
	trialEnds := now.AddDate(0, 0, s.cfg.TrialDays)
	sub := &models.Subscription{
		ID:          tool.GenerateUUIDV7(),
		CoachID:     coachID,
		Tier:        tier,
		Cycle:       cycle,
		Price:       plan.Price,
		Currency:    plan.Currency,
		Status:      types.SubscriptionStatusTrial,
		IsTrial:     true,
		TrialEndsAt: &trialEnds,
		AutoRenew:   true,
		ExpiresAt:   &trialEnds,
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create trial subscription: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("trial_started", "coach_id", coachID, "tier", tier, "cycle", cycle)
	return sub, nil
}

// SelectPlan creates a paid subscription shell. It stays inactive until the
// first payment settles through the gateway callback.
func (s *Service) SelectPlan(ctx context.Context, coachID string, tier types.SubscriptionTier, cycle types.BillingCycle) (*models.Subscription, error) {
	plan := s.cfg.GetPlan(tier, cycle)
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if _, err := s.GetCurrent(ctx, coachID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrNoActiveSubscription) {
		return nil, err
	}

	sub := &models.Subscription{
		ID:        tool.GenerateUUIDV7(),
		CoachID:   coachID,
		Tier:      tier,
		Cycle:     cycle,
		Price:     plan.Price,
		Currency:  plan.Currency,
		Status:    types.SubscriptionStatusInactive,
		AutoRenew: true,
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("plan_selected", "coach_id", coachID, "tier", tier, "cycle", cycle)
	return sub, nil
}

// ScanSubscriptions implements paginated admin listing with filters.
func (s *Service) ScanSubscriptions(ctx context.Context, req *ScanSubscriptionsRequest) (*ScanSubscriptionsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Subscription{})
	if len(req.Filters) > 0 {
		tx = tx.Where(types.CommonFilters(req.Filters))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var rows []*models.Subscription
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(orderClause(req.SortBy, req.SortOrder))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return &ScanSubscriptionsResponse{Items: rows, Total: total}, nil
}

type ScanSubscriptionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanSubscriptionsResponse struct {
	Items []*models.Subscription `json:"items"`
	Total int64                  `json:"total"`
}
