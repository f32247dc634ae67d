package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiyeni/coachpay/internal/app/service/subscription"
	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/internal/platform/paychangu"
	"github.com/tiyeni/coachpay/pkg/config"
	"github.com/tiyeni/coachpay/pkg/logctx"
	"github.com/tiyeni/coachpay/pkg/tool"
	"github.com/tiyeni/coachpay/pkg/types"
)

// Gateway is the slice of the PayChangu client the payment flows need.
type Gateway interface {
	CreatePayment(ctx context.Context, secret string, req *paychangu.PaymentRequest) (*paychangu.PaymentResponse, error)
	VerifyPayment(ctx context.Context, secret, txRef string) (*paychangu.VerifyResponse, error)
}

type Service struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	gw     Gateway
	subSvc *subscription.Service
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, gw *paychangu.Client, subSvc *subscription.Service) *Service {
	return &Service{cfg: cfg, db: db, log: log, gw: gw, subSvc: subSvc}
}

type Contact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type InitiateResult struct {
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
	BillingID   string `json:"billing_id,omitempty"`
	PurchaseID  string `json:"purchase_id,omitempty"`
}

// InitiateSubscriptionPayment bills the coach's payable subscription through
// the platform gateway account: the billable row, or a selected plan awaiting
// its first payment. A pending ledger row is written before the external
// call, so a failed call still leaves an auditable failed row.
func (s *Service) InitiateSubscriptionPayment(ctx context.Context, coachID string, contact *Contact) (*InitiateResult, error) {
	sub, err := s.subSvc.GetPayable(ctx, coachID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txRef := newTxRef("sub", sub.ID, now)
	periodEnd := now.AddDate(0, 0, sub.Cycle.Days())
	billing := &models.BillingHistory{
		ID:                 tool.GenerateUUIDV7(),
		SubscriptionID:     sub.ID,
		CoachID:            coachID,
		Amount:             sub.Price,
		Currency:           sub.Currency,
		Status:             types.BillingStatusPending,
		PaychanguReference: txRef,
		PeriodStart:        &now,
		PeriodEnd:          &periodEnd,
	}
	if err := s.db.WithContext(ctx).Create(billing).Error; err != nil {
		return nil, fmt.Errorf("failed to create billing entry: %w", err)
	}

	res, err := s.gw.CreatePayment(ctx, s.cfg.PayChangu.Secret, &paychangu.PaymentRequest{
		TxRef:       txRef,
		Amount:      sub.Price,
		Currency:    sub.Currency,
		Email:       contact.Email,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		CallbackURL: s.cfg.PayChangu.CallbackURL,
		ReturnURL:   s.cfg.PayChangu.ReturnURL,
	})
	if err != nil {
		s.markBillingFailed(ctx, billing)
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(sub).
		Update("paychangu_subscription_id", txRef).Error; err != nil {
		return nil, fmt.Errorf("failed to store gateway reference: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("payment_initiated",
		"coach_id", coachID, "billing_id", billing.ID, "tx_ref", txRef)
	return &InitiateResult{CheckoutURL: res.Data.CheckoutURL, TxRef: txRef, BillingID: billing.ID}, nil
}

// Retry re-attempts a failed or stuck billing entry. The attempt is consumed
// before the gateway call, so a gateway failure still burns a retry slot.
func (s *Service) Retry(ctx context.Context, coachID, billingID string, contact *Contact) (*InitiateResult, error) {
	var billing models.BillingHistory
	if err := s.db.WithContext(ctx).Where("id = ?", billingID).First(&billing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillingNotFound
		}
		return nil, fmt.Errorf("failed to load billing entry: %w", err)
	}
	if billing.CoachID != coachID {
		return nil, ErrNotOwner
	}
	if err := RetryPrecondition(&billing); err != nil {
		return nil, err
	}

	now := time.Now()
	txRef := newTxRef("retry", billing.ID, now)
	updates := map[string]any{
		"paychangu_reference": txRef,
		"retry_count":         billing.RetryCount + 1,
		"last_retry_at":       now,
		"status":              types.BillingStatusPending,
	}
	if err := s.db.WithContext(ctx).Model(&billing).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update billing entry: %w", err)
	}

	res, err := s.gw.CreatePayment(ctx, s.cfg.PayChangu.Secret, &paychangu.PaymentRequest{
		TxRef:       txRef,
		Amount:      billing.Amount,
		Currency:    billing.Currency,
		Email:       contact.Email,
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		CallbackURL: s.cfg.PayChangu.CallbackURL,
		ReturnURL:   s.cfg.PayChangu.ReturnURL,
	})
	if err != nil {
		s.markBillingFailed(ctx, &billing)
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", billing.SubscriptionID).
		Update("paychangu_subscription_id", txRef).Error; err != nil {
		return nil, fmt.Errorf("failed to store gateway reference: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("payment_retried",
		"billing_id", billing.ID, "retry_count", billing.RetryCount+1, "tx_ref", txRef)
	return &InitiateResult{CheckoutURL: res.Data.CheckoutURL, TxRef: txRef, BillingID: billing.ID}, nil
}

type CourseCheckoutRequest struct {
	CourseID string `json:"course_id"`
	CoachID  string `json:"coach_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Contact
}

// InitiateCoursePayment starts a client's one-off checkout for a coach's
// course. The call is routed through the coach's own gateway credential.
func (s *Service) InitiateCoursePayment(ctx context.Context, clientID string, req *CourseCheckoutRequest) (*InitiateResult, error) {
	var coach models.CoachProfile
	if err := s.db.WithContext(ctx).Where("id = ?", req.CoachID).First(&coach).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntegrationOff
		}
		return nil, fmt.Errorf("failed to load coach profile: %w", err)
	}
	if !coach.IntegrationReady() {
		return nil, ErrIntegrationOff
	}

	now := time.Now()
	txRef := newTxRef("course", req.CourseID, now)
	purchase := &models.CoursePurchase{
		ID:                 tool.GenerateUUIDV7(),
		CourseID:           req.CourseID,
		CoachID:            req.CoachID,
		ClientID:           clientID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Status:             types.BillingStatusPending,
		PaychanguReference: txRef,
	}
	if err := s.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	res, err := s.gw.CreatePayment(ctx, coach.PaychanguSecret, &paychangu.PaymentRequest{
		TxRef:       txRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CallbackURL: s.cfg.PayChangu.CallbackURL,
		ReturnURL:   s.cfg.PayChangu.ReturnURL,
	})
	if err != nil {
		if uerr := s.db.WithContext(ctx).Model(purchase).
			Update("status", types.BillingStatusFailed).Error; uerr != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to mark purchase failed: %v", uerr)
		}
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("course_payment_initiated",
		"client_id", clientID, "course_id", req.CourseID, "tx_ref", txRef)
	return &InitiateResult{CheckoutURL: res.Data.CheckoutURL, TxRef: txRef, PurchaseID: purchase.ID}, nil
}

// ListBillingHistory returns the coach's ledger, newest first.
func (s *Service) ListBillingHistory(ctx context.Context, coachID string, from, size int) ([]*models.BillingHistory, error) {
	if size <= 0 {
		size = 20
	}
	var rows []*models.BillingHistory
	q := s.db.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Order("created_at desc").
		Limit(size)
	if from > 0 {
		q = q.Offset(from)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list billing history: %w", err)
	}
	return rows, nil
}

func (s *Service) markBillingFailed(ctx context.Context, billing *models.BillingHistory) {
	if err := s.db.WithContext(ctx).Model(billing).
		Update("status", types.BillingStatusFailed).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to mark billing entry failed: %v", err)
	}
}

// RetryPrecondition checks the retry gate: paid rows are final and the retry
// ceiling is hard.
func RetryPrecondition(b *models.BillingHistory) error {
	if b.Status == types.BillingStatusPaid {
		return ErrAlreadyPaid
	}
	if b.RetryCount >= models.MaxPaymentRetries {
		return ErrRetryLimitExceeded
	}
	return nil
}

func newTxRef(prefix, targetID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", prefix, targetID, now.UnixMilli())
}
