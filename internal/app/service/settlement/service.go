package settlement

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tiyeni/coachpay/internal/app/service/callbacklog"
	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/internal/platform/paychangu"
	"github.com/tiyeni/coachpay/pkg/config"
	"github.com/tiyeni/coachpay/pkg/logctx"
	"github.com/tiyeni/coachpay/pkg/tool"
	"github.com/tiyeni/coachpay/pkg/types"
)

// StatusSuccessful is the only inbound callback status that can settle a
// payment, and even then only after server-side verification agrees.
const StatusSuccessful = "successful"

var (
	ErrUnknownReference = errors.New("no payment matches the transaction reference")
	ErrBadSignature     = errors.New("callback signature verification failed")
)

// Verifier is the slice of the gateway client settlement needs.
type Verifier interface {
	VerifyPayment(ctx context.Context, secret, txRef string) (*paychangu.VerifyResponse, error)
}

type Service struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	gw     Verifier
	logSvc *callbacklog.Service
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, gw *paychangu.Client, logSvc *callbacklog.Service) *Service {
	return &Service{cfg: cfg, db: db, log: log, gw: gw, logSvc: logSvc}
}

func (s *Service) Logger() *zap.SugaredLogger { return s.log }

// Callback is the gateway's asynchronous result notification.
type Callback struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

// VerifySignature checks the HMAC-SHA256 signature the gateway puts on the
// raw callback body. Callbacks without a valid signature never reach any
// state change.
func (s *Service) VerifySignature(body []byte, signature string) bool {
	return VerifySignature(s.cfg.PayChangu.WebhookSecret, body, signature)
}

func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

// HandleCallback finalizes the payment a callback refers to. The inbound
// status is advisory only: settlement always re-verifies with the gateway,
// and any disagreement deactivates rather than activates.
func (s *Service) HandleCallback(ctx context.Context, traceID string, cb *Callback) (resErr error) {
	dataBytes, _ := json.Marshal(cb)
	s.logSvc.Save(ctx, &models.CallbackLog{
		TxRef:   cb.TxRef,
		TraceID: traceID,
		Data:    datatypes.JSON(dataBytes),
		Status:  models.CallbackLogStatusReceived,
	})

	defer func() {
		status := models.CallbackLogStatusHandled
		resMap := map[string]any{}
		if resErr != nil {
			status = models.CallbackLogStatusHandleFailed
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		res := datatypes.JSON(resBytes)
		s.logSvc.Save(ctx, &models.CallbackLog{
			TxRef:   cb.TxRef,
			TraceID: traceID,
			Data:    datatypes.JSON(dataBytes),
			Result:  &res,
			Status:  status,
		})
	}()

	// Correlate the reference to its ledger row first, so settlement lands
	// on the attempt that produced it rather than blindly on a subscription.
	var billing models.BillingHistory
	err := s.db.WithContext(ctx).Where("paychangu_reference = ?", cb.TxRef).First(&billing).Error
	if err == nil {
		return s.settleSubscriptionPayment(ctx, cb, &billing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up billing entry: %w", err)
	}

	var purchase models.CoursePurchase
	err = s.db.WithContext(ctx).Where("paychangu_reference = ?", cb.TxRef).First(&purchase).Error
	if err == nil {
		return s.settleCoursePurchase(ctx, cb, &purchase)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up purchase: %w", err)
	}

	// Fallback: a subscription whose gateway pointer matches but whose
	// ledger row is gone or predates the ledger.
	var sub models.Subscription
	err = s.db.WithContext(ctx).Where("paychangu_subscription_id = ?", cb.TxRef).First(&sub).Error
	if err == nil {
		return s.settleSubscription(ctx, cb, &sub, nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}
	return ErrUnknownReference
}

func (s *Service) settleSubscriptionPayment(ctx context.Context, cb *Callback, billing *models.BillingHistory) error {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("id = ?", billing.SubscriptionID).First(&sub).Error; err != nil {
		return fmt.Errorf("failed to load subscription for billing entry: %w", err)
	}
	return s.settleSubscription(ctx, cb, &sub, billing)
}

func (s *Service) settleSubscription(ctx context.Context, cb *Callback, sub *models.Subscription, billing *models.BillingHistory) error {
	confirmed := s.confirm(ctx, cb, s.cfg.PayChangu.Secret)

	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if billing != nil && billing.Status != types.BillingStatusPaid {
			updates := map[string]any{"status": types.BillingStatusFailed}
			if confirmed {
				updates["status"] = types.BillingStatusPaid
				updates["paid_at"] = now
			}
			if err := tx.Model(billing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to finalize billing entry: %w", err)
			}
		}

		notifType := settleTransition(sub, confirmed, now)
		if !confirmed {
			logctx.FromCtx(ctx, s.log).Warnw("settlement_not_confirmed",
				"tx_ref", cb.TxRef, "inbound_status", cb.Status, "subscription_id", sub.ID)
		}
		if err := tx.Save(sub).Error; err != nil {
			return fmt.Errorf("failed to finalize subscription: %w", err)
		}

		meta := datatypes.JSONMap{"tx_ref": cb.TxRef}
		if sub.ExpiresAt != nil && confirmed {
			meta["expires_at"] = sub.ExpiresAt.Format(time.RFC3339)
		}
		return s.notify(tx, sub, notifType, meta)
	})
}

// settleTransition applies the verified payment outcome to the subscription
// and returns the notification type to queue. An unconfirmed payment always
// deactivates, whatever the inbound callback claimed.
func settleTransition(sub *models.Subscription, confirmed bool, now time.Time) types.NotificationType {
	if !confirmed {
		sub.Status = types.SubscriptionStatusInactive
		return types.NotificationTypePaymentFailed
	}

	expiry := NextExpiry(sub.ExpiresAt, now, sub.Cycle.Days())
	sub.Status = types.SubscriptionStatusActive
	sub.IsTrial = false
	sub.TrialEndsAt = nil
	sub.ExpiresAt = &expiry
	sub.NextBillingDate = &expiry
	return types.NotificationTypeSubscriptionRenewed
}

func (s *Service) settleCoursePurchase(ctx context.Context, cb *Callback, purchase *models.CoursePurchase) error {
	var coach models.CoachProfile
	if err := s.db.WithContext(ctx).Where("id = ?", purchase.CoachID).First(&coach).Error; err != nil {
		return fmt.Errorf("failed to load coach for purchase: %w", err)
	}
	confirmed := s.confirm(ctx, cb, coach.PaychanguSecret)

	updates := map[string]any{"status": types.BillingStatusFailed}
	if confirmed {
		updates["status"] = types.BillingStatusPaid
		updates["paid_at"] = time.Now()
	}
	if err := s.db.WithContext(ctx).Model(purchase).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to finalize purchase: %w", err)
	}
	return nil
}

// confirm re-verifies the transaction server side. Verification errors count
// as not confirmed.
func (s *Service) confirm(ctx context.Context, cb *Callback, secret string) bool {
	if cb.Status != StatusSuccessful {
		return false
	}
	res, err := s.gw.VerifyPayment(ctx, secret, cb.TxRef)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("verify_payment_failed", "tx_ref", cb.TxRef, "err", err)
		return false
	}
	return res.Confirmed()
}

func (s *Service) notify(tx *gorm.DB, sub *models.Subscription, t types.NotificationType, meta datatypes.JSONMap) error {
	n := &models.SubscriptionNotification{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		CoachID:        sub.CoachID,
		Type:           t,
		Metadata:       meta,
	}
	if err := tx.Create(n).Error; err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}

// NextExpiry extends a subscription by its cycle length. Unexpired time is
// kept: the new window starts at the current expiry when it is still in the
// future, otherwise at settlement time.
func NextExpiry(current *time.Time, now time.Time, cycleDays int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(0, 0, cycleDays)
}
