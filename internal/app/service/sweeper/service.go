package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/pkg/config"
	"github.com/tiyeni/coachpay/pkg/tool"
	"github.com/tiyeni/coachpay/pkg/types"
)

// Service retires past-due subscriptions, warns coaches ahead of expiry and
// writes the daily analytics snapshots. It runs on a cron schedule; every
// method is also safe to call ad hoc.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

func (s *Service) Run(ctx context.Context) {
	now := time.Now()
	if err := s.ExpirePastDue(ctx, now); err != nil {
		s.log.Errorf("expiry sweep failed: %v", err)
	}
	if err := s.WarnExpiring(ctx, now); err != nil {
		s.log.Errorf("expiry warnings failed: %v", err)
	}
	if err := s.WriteSnapshots(ctx, now); err != nil {
		s.log.Errorf("daily snapshots failed: %v", err)
	}
}

// ExpirePastDue flips subscriptions whose window has closed: trials past
// trial end, non-renewing active rows past expiry, and auto-renewing rows
// whose renewal never settled within the grace window. End-of-period cancels
// are retired here, which is what makes deferred cancellation effective.
func (s *Service) ExpirePastDue(ctx context.Context, now time.Time) error {
	graceCutoff := now.AddDate(0, 0, -s.cfg.Sweep.GraceDays)
	var due []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("(status = ? AND trial_ends_at < ?) OR (status = ? AND auto_renew = false AND expires_at < ?) OR (status = ? AND auto_renew = true AND expires_at < ?)",
			types.SubscriptionStatusTrial, now,
			types.SubscriptionStatusActive, now,
			types.SubscriptionStatusActive, graceCutoff).
		Find(&due).Error
	if err != nil {
		return fmt.Errorf("failed to find past-due subscriptions: %w", err)
	}

	for _, sub := range due {
		sub := sub
		if !pastDue(sub, now, s.cfg.Sweep.GraceDays) {
			continue
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(sub).Update("status", types.SubscriptionStatusExpired).Error; err != nil {
				return err
			}
			n := &models.SubscriptionNotification{
				ID:             tool.GenerateUUIDV7(),
				SubscriptionID: sub.ID,
				CoachID:        sub.CoachID,
				Type:           types.NotificationTypeSubscriptionExpired,
				Metadata:       datatypes.JSONMap{"expired_at": now.Format(time.RFC3339)},
			}
			return tx.Create(n).Error
		})
		if err != nil {
			s.log.Errorw("failed to expire subscription", "subscription_id", sub.ID, "err", err)
			continue
		}
		s.log.Infow("subscription_expired", "subscription_id", sub.ID, "coach_id", sub.CoachID)
	}
	return nil
}

// pastDue reports whether a subscription's window has closed. Auto-renewing
// rows get graceDays past expiry for the renewal to settle before they are
// retired.
func pastDue(sub *models.Subscription, now time.Time, graceDays int) bool {
	switch sub.Status {
	case types.SubscriptionStatusTrial:
		return sub.TrialEndsAt != nil && sub.TrialEndsAt.Before(now)
	case types.SubscriptionStatusActive:
		if sub.ExpiresAt == nil {
			return false
		}
		if !sub.AutoRenew {
			return sub.ExpiresAt.Before(now)
		}
		return sub.ExpiresAt.Before(now.AddDate(0, 0, -graceDays))
	default:
		return false
	}
}

// WarnExpiring queues an expiry warning for active subscriptions whose
// expiry lands exactly N days out, for each configured N.
func (s *Service) WarnExpiring(ctx context.Context, now time.Time) error {
	for _, days := range s.cfg.Sweep.WarningDays {
		target := now.AddDate(0, 0, days).Format("2006-01-02")
		var subs []*models.Subscription
		err := s.db.WithContext(ctx).
			Where("status = ? AND DATE(expires_at) = ?", types.SubscriptionStatusActive, target).
			Find(&subs).Error
		if err != nil {
			return fmt.Errorf("failed to find subscriptions expiring in %d days: %w", days, err)
		}

		for _, sub := range subs {
			n := &models.SubscriptionNotification{
				ID:             tool.GenerateUUIDV7(),
				SubscriptionID: sub.ID,
				CoachID:        sub.CoachID,
				Type:           types.NotificationTypeExpiryWarning,
				Metadata:       datatypes.JSONMap{"days_remaining": days},
			}
			if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
				s.log.Errorw("failed to queue expiry warning", "subscription_id", sub.ID, "err", err)
			}
		}
		if len(subs) > 0 {
			s.log.Infow("expiry_warnings_queued", "days", days, "count", len(subs))
		}
	}
	return nil
}

type tierCount struct {
	Tier   types.SubscriptionTier
	Status types.SubscriptionStatus
	Count  int64
}

type tierPaid struct {
	Tier types.SubscriptionTier
	Sum  int64
}

// WriteSnapshots upserts one per-tier rollup row for the snapshot day.
func (s *Service) WriteSnapshots(ctx context.Context, now time.Time) error {
	day := now.Format("2006-01-02")

	var counts []tierCount
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Select("tier, status, count(*) as count").
		Where("status IN ?", []types.SubscriptionStatus{types.SubscriptionStatusTrial, types.SubscriptionStatusActive}).
		Group("tier").Group("status").
		Scan(&counts).Error
	if err != nil {
		return fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var paid []tierPaid
	err = s.db.WithContext(ctx).Model(&models.BillingHistory{}).
		Select("subscription.tier as tier, COALESCE(SUM(billing_history.amount), 0) as sum").
		Joins("JOIN subscription ON subscription.id = billing_history.subscription_id").
		Where("billing_history.status = ? AND DATE(billing_history.paid_at) = ?", types.BillingStatusPaid, day).
		Group("subscription.tier").
		Scan(&paid).Error
	if err != nil {
		return fmt.Errorf("failed to sum settled payments: %w", err)
	}

	for _, snap := range BuildSnapshots(day, counts, paid) {
		var existing models.SubscriptionDailySnapshot
		err := s.db.WithContext(ctx).
			Where("snapshot_date = ? AND tier = ?", day, snap.Tier).
			First(&existing).Error
		if err == nil {
			snap.ID = existing.ID
			snap.CreatedAt = existing.CreatedAt
		} else {
			snap.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.WithContext(ctx).Save(snap).Error; err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
	}
	return nil
}

// BuildSnapshots merges the count and revenue aggregates into one snapshot
// row per tier.
func BuildSnapshots(day string, counts []tierCount, paid []tierPaid) []*models.SubscriptionDailySnapshot {
	byTier := map[types.SubscriptionTier]*models.SubscriptionDailySnapshot{}
	get := func(tier types.SubscriptionTier) *models.SubscriptionDailySnapshot {
		if snap, ok := byTier[tier]; ok {
			return snap
		}
		snap := &models.SubscriptionDailySnapshot{SnapshotDate: day, Tier: tier, Currency: "MWK"}
		byTier[tier] = snap
		return snap
	}

	for _, c := range counts {
		snap := get(c.Tier)
		if c.Status == types.SubscriptionStatusTrial {
			snap.TrialCount = c.Count
		} else {
			snap.ActiveCount = c.Count
		}
	}
	for _, p := range paid {
		get(p.Tier).PaidAmount = p.Sum
	}

	out := make([]*models.SubscriptionDailySnapshot, 0, len(byTier))
	for _, snap := range byTier {
		out = append(out, snap)
	}
	return out
}
